package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/truthana/internal/truth"
	"github.com/banshee-data/truthana/internal/units"
)

func TestNewHHEvent_DiTauMass(t *testing.T) {
	for _, mass := range []float64{55, 65, 90} {
		o := DefaultHHOptions()
		o.DiTauMassGeV = mass
		ev := NewHHEvent(o)
		require.Len(t, ev.TruthTaus, 2)
		got := ev.TruthTaus[0].P4.Add(ev.TruthTaus[1].P4).M()
		assert.InDelta(t, mass, units.ToGeV(got), 1e-6)
	}
}

func TestNewDecayedTau_VisiblePt(t *testing.T) {
	tau := NewDecayedTau(1, -truth.PdgTau, GeVP4(60, 0.5, 1.0, TauMassGeV), 10)
	require.Len(t, tau.Children, 2)
	assert.Equal(t, -truth.PdgNuTau, tau.Children[0].PdgID)
	vis := tau.Children[1].P4
	assert.InDelta(t, 50, units.ToGeV(vis.Pt()), 1e-6)
	assert.InDelta(t, 0.5, vis.Eta(), 1e-9)
}

func TestNewHHEvent_RadiationCopies(t *testing.T) {
	o := DefaultHHOptions()
	o.WithRadiation = true
	ev := NewHHEvent(o)

	h := ev.Particles[1]
	require.Equal(t, truth.PdgHiggs, h.PdgID)
	copyTau := h.Child(0)
	require.Equal(t, truth.PdgTau, copyTau.PdgID)
	assert.Same(t, ev.TruthTaus[0], copyTau.Child(0))
}

func TestAssertHelpers(t *testing.T) {
	AssertNoError(t, nil)
	AssertError(t, assert.AnError)
}
