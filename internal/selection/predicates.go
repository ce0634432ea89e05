package selection

import (
	"math"

	"github.com/banshee-data/truthana/internal/decay"
	"github.com/banshee-data/truthana/internal/truth"
	"github.com/banshee-data/truthana/internal/units"
)

// Calorimeter barrel/end-cap transition, vetoed for taus. The interval is open.
const (
	GapEtaLow  = 1.37
	GapEtaHigh = 1.52
)

// DefaultDoubleTagDR is the large-radius jet to b-quark matching radius.
const DefaultDoubleTagDR = 1.0

// Window is a transverse-momentum floor and pseudorapidity ceiling.
type Window struct {
	PtMinGeV float64 `json:"pt_min_gev" yaml:"pt_min_gev"`
	EtaMax   float64 `json:"eta_max" yaml:"eta_max"`
}

// IsGoodEvent is the event-quality check. It accepts every event.
func IsGoodEvent(*truth.Event) bool {
	return true
}

// IsOppositeSign reports whether the signed species identifiers have
// opposite signs.
func IsOppositeSign(p0, p1 *truth.Particle) bool {
	return p0.PdgID*p1.PdgID < 0
}

// InDetectorGap reports whether |eta| lies strictly inside (1.37, 1.52).
func InDetectorGap(absEta float64) bool {
	return absEta > GapEtaLow && absEta < GapEtaHigh
}

// IsBJet reports whether a jet carries the bottom true-flavour label.
func IsBJet(jet *truth.Jet) bool {
	return jet.TrueFlavor == truth.FlavorBottom
}

// IsBTruth reports whether a particle is a bottom quark.
func IsBTruth(p *truth.Particle) bool {
	return p.AbsPdgID() == truth.PdgBottom
}

// IsTauTruth reports whether a particle is a tau lepton.
func IsTauTruth(p *truth.Particle) bool {
	return p.AbsPdgID() == truth.PdgTau
}

// IsFromHiggs reports whether the truth classifier tagged the particle as a
// Higgs decay product.
func IsFromHiggs(p *truth.Particle) bool {
	origin, ok := p.AuxInt(truth.AuxParticleOrigin)
	return ok && origin == truth.OriginHiggs
}

// IsHiggsTo reports whether p is a Higgs boson with exactly two children,
// at least one of which has the given absolute species.
func IsHiggsTo(p *truth.Particle, absPdgID int) bool {
	return p.PdgID == truth.PdgHiggs && p.NChildren() == 2 && decay.HasChild(p, absPdgID)
}

// IsAcceptableTau applies the tau acceptance to the visible momentum: pt at
// least ptMinGeV, |eta| at most etaMax and outside the crack. Non-tau
// particles fail. A tau without a neutrino child is an error.
func IsAcceptableTau(tau *truth.Particle, ptMinGeV, etaMax float64) (bool, error) {
	if !IsTauTruth(tau) {
		return false, nil
	}
	vis, err := decay.VisibleMomentum(tau)
	if err != nil {
		return false, err
	}
	if vis.Pt() < units.FromGeV(ptMinGeV) {
		return false, nil
	}
	absEta := math.Abs(vis.Eta())
	if absEta > etaMax {
		return false, nil
	}
	if InDetectorGap(absEta) {
		return false, nil
	}
	return true, nil
}

// IsAcceptableB applies the b-quark acceptance: pt at least ptMinGeV and
// |eta| at most etaMax. There is no crack veto.
func IsAcceptableB(b *truth.Particle, ptMinGeV, etaMax float64) bool {
	if !IsBTruth(b) {
		return false
	}
	if b.P4.Pt() < units.FromGeV(ptMinGeV) {
		return false
	}
	return math.Abs(b.P4.Eta()) <= etaMax
}

// IsNotOverlapping reports whether every b-tau pair is at least minDR apart.
// One pair strictly closer than minDR fails the whole predicate.
func IsNotOverlapping(b0, b1, tau0, tau1 *truth.Particle, minDR float64) bool {
	for _, b := range [2]*truth.Particle{b0, b1} {
		for _, tau := range [2]*truth.Particle{tau0, tau1} {
			if b.P4.DeltaR(tau.P4) < minDR {
				return false
			}
		}
	}
	return true
}

// IsDoubleBTagged reports whether a large-radius jet lies within maxDR of
// both b-quarks.
func IsDoubleBTagged(fatJet *truth.Jet, b0, b1 *truth.Particle, maxDR float64) bool {
	return fatJet.P4.DeltaR(b0.P4) < maxDR && fatJet.P4.DeltaR(b1.P4) < maxDR
}

// IsIsolatedFrom reports whether p4 is more than radius away from every
// reference particle.
func IsIsolatedFrom(p4 truth.FourMomentum, radius float64, refs ...*truth.Particle) bool {
	for _, ref := range refs {
		if p4.DeltaR(ref.P4) <= radius {
			return false
		}
	}
	return true
}
