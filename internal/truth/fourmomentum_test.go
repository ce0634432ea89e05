package truth

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

const tol = 1e-9

func TestPtEtaPhiM_RoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name               string
		pt, eta, phi, mass float64
	}{
		{"central", 45000, 0.3, 1.2, 4700},
		{"forward", 30000, -2.1, -2.8, 1777},
		{"massless", 100000, 1.0, 3.0, 0},
		{"at gap edge", 25000, 1.37, 0.0, 1777},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := PtEtaPhiM(tt.pt, tt.eta, tt.phi, tt.mass)
			assert.InDelta(t, tt.pt, p.Pt(), 1e-6)
			assert.InDelta(t, tt.eta, p.Eta(), tol)
			assert.InDelta(t, tt.phi, p.Phi(), tol)
			assert.InDelta(t, tt.mass, p.M(), 1e-3)
		})
	}
}

func TestEtaAlongBeam(t *testing.T) {
	t.Parallel()

	assert.Equal(t, etaAlongBeam, FourMomentum{Pz: 10, E: 10}.Eta())
	assert.Equal(t, -etaAlongBeam, FourMomentum{Pz: -10, E: 10}.Eta())
	assert.Equal(t, 0.0, FourMomentum{}.Eta())
}

func TestDeltaPhiWraps(t *testing.T) {
	t.Parallel()

	a := PtEtaPhiM(1000, 0, 3.0, 0)
	b := PtEtaPhiM(1000, 0, -3.0, 0)
	// 6.0 apart the short way round is 2π-6.
	assert.InDelta(t, 6.0-2*math.Pi, a.DeltaPhi(b), tol)
	assert.InDelta(t, 2*math.Pi-6.0, a.DeltaR(b), tol)
}

func TestDeltaR(t *testing.T) {
	t.Parallel()

	a := PtEtaPhiM(20000, 0.5, 0.1, 0)
	b := PtEtaPhiM(50000, -0.1, 0.9, 0)
	assert.InDelta(t, math.Hypot(0.6, 0.8), a.DeltaR(b), tol)
	assert.InDelta(t, a.DeltaR(b), b.DeltaR(a), tol)
}

func TestInvariantMassOfPair(t *testing.T) {
	t.Parallel()

	// Back-to-back massless pair of 60 GeV each has m = 120 GeV.
	a := PtEtaPhiM(60000, 0, 0, 0)
	b := PtEtaPhiM(60000, 0, math.Pi, 0)
	assert.InDelta(t, 120000, a.Add(b).M(), 1e-6)

	// Subtracting returns the original vector.
	sum := a.Add(b)
	back := sum.Sub(b)
	assert.InDelta(t, a.Px, back.Px, tol)
	assert.InDelta(t, a.E, back.E, tol)
}

func TestMasslessVectorsStayMassless(t *testing.T) {
	t.Parallel()

	for _, pt := range []float64{1, 2500, 45000, 100000, 7e6} {
		for _, eta := range []float64{-4.5, -1.37, 0, 0.3, 1.0, 1.52, 3.2} {
			for _, phi := range []float64{-3.0, 0, 1.2, 3.0} {
				p := PtEtaPhiM(pt, eta, phi, 0)
				assert.Zero(t, p.M(), "pt=%g eta=%g phi=%g", pt, eta, phi)
			}
		}
	}

	// A muon at the same kinematics keeps its mass.
	mu := PtEtaPhiM(100000, 1.0, 3.0, 105.66)
	assert.InDelta(t, 105.66, mu.M(), 1e-3)
}

func TestSpaceLikeMassIsNegative(t *testing.T) {
	t.Parallel()

	p := FourMomentum{Px: 3, E: 2}
	assert.InDelta(t, -math.Sqrt(5), p.M(), tol)
}

func TestParticleAccessors(t *testing.T) {
	t.Parallel()

	child := &Particle{PdgID: -15}
	p := &Particle{PdgID: 25, Children: []*Particle{child}, Aux: map[string]float64{AuxParticleOrigin: 14}}

	assert.Equal(t, 15, child.AbsPdgID())
	assert.Equal(t, 1, p.NChildren())
	assert.Same(t, child, p.Child(0))
	assert.Nil(t, p.Child(1))
	assert.Nil(t, p.Child(-1))

	origin, ok := p.AuxInt(AuxParticleOrigin)
	assert.True(t, ok)
	assert.Equal(t, OriginHiggs, origin)

	_, ok = child.AuxInt(AuxParticleOrigin)
	assert.False(t, ok)
}
