package selection

import "github.com/banshee-data/truthana/internal/truth"

// SingleTauTrigger is the single-tau-like threshold combination.
type SingleTauTrigger struct {
	TauPtGeV float64 `json:"tau_pt_gev" yaml:"tau_pt_gev"`
	BPtGeV   float64 `json:"b_pt_gev" yaml:"b_pt_gev"`
}

// DiTauTrigger is the di-tau-like threshold combination.
type DiTauTrigger struct {
	Tau0PtGeV float64 `json:"tau0_pt_gev" yaml:"tau0_pt_gev"`
	Tau1PtGeV float64 `json:"tau1_pt_gev" yaml:"tau1_pt_gev"`
	BPtGeV    float64 `json:"b_pt_gev" yaml:"b_pt_gev"`
}

// TriggerEmulation is the logical OR of the two threshold combinations,
// evaluated on the resolved tau0, tau1 and b0.
type TriggerEmulation struct {
	SingleTau SingleTauTrigger
	DiTau     DiTauTrigger
	TauEtaMax float64
	BEtaMax   float64
}

// DefaultTriggerEmulation returns the standard thresholds.
func DefaultTriggerEmulation() TriggerEmulation {
	return TriggerEmulation{
		SingleTau: SingleTauTrigger{TauPtGeV: 100, BPtGeV: 45},
		DiTau:     DiTauTrigger{Tau0PtGeV: 40, Tau1PtGeV: 30, BPtGeV: 80},
		TauEtaMax: 2.5,
		BEtaMax:   2.4,
	}
}

// SingleTauFires evaluates the single-tau-like combination.
func (t TriggerEmulation) SingleTauFires(tau0, b0 *truth.Particle) (bool, error) {
	ok, err := IsAcceptableTau(tau0, t.SingleTau.TauPtGeV, t.TauEtaMax)
	if err != nil || !ok {
		return false, err
	}
	return IsAcceptableB(b0, t.SingleTau.BPtGeV, t.BEtaMax), nil
}

// DiTauFires evaluates the di-tau-like combination.
func (t TriggerEmulation) DiTauFires(tau0, tau1, b0 *truth.Particle) (bool, error) {
	ok, err := IsAcceptableTau(tau0, t.DiTau.Tau0PtGeV, t.TauEtaMax)
	if err != nil || !ok {
		return false, err
	}
	ok, err = IsAcceptableTau(tau1, t.DiTau.Tau1PtGeV, t.TauEtaMax)
	if err != nil || !ok {
		return false, err
	}
	return IsAcceptableB(b0, t.DiTau.BPtGeV, t.BEtaMax), nil
}

// Passes reports whether either combination fires. Both combinations are
// evaluated so that a resolution error in either is surfaced.
func (t TriggerEmulation) Passes(tau0, tau1, b0 *truth.Particle) (bool, error) {
	stt, err := t.SingleTauFires(tau0, b0)
	if err != nil {
		return false, err
	}
	dtt, err := t.DiTauFires(tau0, tau1, b0)
	if err != nil {
		return false, err
	}
	return stt || dtt, nil
}
