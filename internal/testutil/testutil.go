// Package testutil provides shared test utilities and fixtures.
//
// The builders here assemble truth decay graphs for HH → bbττ events so that
// selection, pipeline and runner tests share one set of kinematics.
package testutil

import (
	"math"
	"testing"

	"github.com/banshee-data/truthana/internal/truth"
	"github.com/banshee-data/truthana/internal/units"
)

// TauMassGeV is the tau lepton mass used by the builders.
const TauMassGeV = 1.777

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// NewParticle creates a truth particle with the given children.
func NewParticle(barcode, pdgID int, p4 truth.FourMomentum, children ...*truth.Particle) *truth.Particle {
	return &truth.Particle{Barcode: barcode, PdgID: pdgID, P4: p4, Children: children}
}

// GeVP4 builds a four-momentum from GeV-valued pt and mass.
func GeVP4(ptGeV, eta, phi, massGeV float64) truth.FourMomentum {
	return truth.PtEtaPhiM(units.FromGeV(ptGeV), eta, phi, units.FromGeV(massGeV))
}

// NewDecayedTau creates a final-state tau whose children are a tau-neutrino
// collinear with the tau carrying nuPtGeV and a visible hadron carrying the
// rest. pdgID is ±15; the neutrino takes the matching sign.
func NewDecayedTau(barcode, pdgID int, full truth.FourMomentum, nuPtGeV float64) *truth.Particle {
	sign := 1
	if pdgID < 0 {
		sign = -1
	}
	nu := NewParticle(barcode+1, sign*truth.PdgNuTau, truth.PtEtaPhiM(units.FromGeV(nuPtGeV), full.Eta(), full.Phi(), 0))
	vis := NewParticle(barcode+2, -sign*211, full.Sub(nu.P4))
	return NewParticle(barcode, pdgID, full, nu, vis)
}

// NewJet creates a jet from GeV-valued kinematics.
func NewJet(ptGeV, eta, phi float64, flavor int) *truth.Jet {
	return &truth.Jet{P4: GeVP4(ptGeV, eta, phi, 5), TrueFlavor: flavor}
}

// NewFatJet creates a large-radius jet from GeV-valued kinematics.
func NewFatJet(ptGeV, eta, phi, massGeV float64, flavor int) *truth.Jet {
	return &truth.Jet{P4: GeVP4(ptGeV, eta, phi, massGeV), TrueFlavor: flavor}
}

// HHOptions controls NewHHEvent.
type HHOptions struct {
	RunNumber    uint64
	EventNumber  uint64
	Weight       float64
	DiTauMassGeV float64
	TauPtGeV     float64
	NuPtGeV      float64
	TauEta       float64
	B0           [3]float64 // pt (GeV), eta, phi
	B1           [3]float64
	// WithRadiation inserts a same-species pre-radiation copy between each
	// Higgs and its decay products.
	WithRadiation bool
	Jets          []*truth.Jet
	FatJets       []*truth.Jet
}

// DefaultHHOptions returns an event that passes every selection stage:
// opposite-sign pairs in acceptance, no b-tau overlap, di-tau trigger
// thresholds met and a 65 GeV di-tau mass.
func DefaultHHOptions() HHOptions {
	return HHOptions{
		RunNumber:    345835,
		EventNumber:  1,
		Weight:       1.0,
		DiTauMassGeV: 65,
		TauPtGeV:     60,
		NuPtGeV:      10,
		TauEta:       0,
		B0:           [3]float64{90, 1.0, 2.5},
		B1:           [3]float64{40, -1.0, -2.5},
		Jets: []*truth.Jet{
			NewJet(85, 1.0, 2.45, truth.FlavorBottom),
			NewJet(38, -1.0, -2.45, truth.FlavorBottom),
		},
	}
}

// DiTauOpeningAngle returns the azimuthal opening between two equal-pt taus
// at eta 0 that produces the requested invariant mass.
func DiTauOpeningAngle(ptGeV, massGeV float64) float64 {
	e2 := ptGeV*ptGeV + TauMassGeV*TauMassGeV
	cos := (TauMassGeV*TauMassGeV + e2 - massGeV*massGeV/2) / (ptGeV * ptGeV)
	return math.Acos(math.Max(-1, math.Min(1, cos)))
}

// NewHHEvent builds a di-Higgs event: H→ττ and H→bb̄ with decayed taus,
// truth-tau records tagged as Higgs descendants, and the given jets.
func NewHHEvent(o HHOptions) *truth.Event {
	dphi := DiTauOpeningAngle(o.TauPtGeV, o.DiTauMassGeV)

	tau0 := NewDecayedTau(100, truth.PdgTau, GeVP4(o.TauPtGeV, o.TauEta, -dphi/2, TauMassGeV), o.NuPtGeV)
	tau1 := NewDecayedTau(110, -truth.PdgTau, GeVP4(o.TauPtGeV, o.TauEta, dphi/2, TauMassGeV), o.NuPtGeV)
	b0 := NewParticle(200, truth.PdgBottom, GeVP4(o.B0[0], o.B0[1], o.B0[2], 4.7))
	b1 := NewParticle(210, -truth.PdgBottom, GeVP4(o.B1[0], o.B1[1], o.B1[2], 4.7))

	for _, tau := range []*truth.Particle{tau0, tau1} {
		tau.Aux = map[string]float64{truth.AuxParticleOrigin: truth.OriginHiggs}
	}

	hChildren := func(a, b *truth.Particle) []*truth.Particle {
		if !o.WithRadiation {
			return []*truth.Particle{a, b}
		}
		gamma := func(bc int) *truth.Particle { return NewParticle(bc, 22, GeVP4(1, 0, 0, 0)) }
		ca := NewParticle(a.Barcode+1000, a.PdgID, a.P4, a, gamma(a.Barcode+2000))
		cb := NewParticle(b.Barcode+1000, b.PdgID, b.P4, b, gamma(b.Barcode+2000))
		return []*truth.Particle{ca, cb}
	}

	hTauTau := NewParticle(10, truth.PdgHiggs, tau0.P4.Add(tau1.P4), hChildren(tau0, tau1)...)
	hBB := NewParticle(20, truth.PdgHiggs, b0.P4.Add(b1.P4), hChildren(b0, b1)...)
	gluon := NewParticle(1, 21, GeVP4(5, 3, 0, 0))

	particles := []*truth.Particle{gluon, hTauTau, hBB}
	particles = append(particles, hTauTau.Children...)
	particles = append(particles, hBB.Children...)
	if o.WithRadiation {
		particles = append(particles, tau0, tau1, b0, b1)
	}
	particles = append(particles, tau0.Children...)
	particles = append(particles, tau1.Children...)

	return &truth.Event{
		RunNumber:   o.RunNumber,
		EventNumber: o.EventNumber,
		Weights:     []float64{o.Weight, 0.5 * o.Weight},
		Particles:   particles,
		TruthTaus:   []*truth.Particle{tau0, tau1},
		Jets:        o.Jets,
		FatJets:     o.FatJets,
	}
}
