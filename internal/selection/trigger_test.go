package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/truthana/internal/decay"
	tu "github.com/banshee-data/truthana/internal/testutil"
	"github.com/banshee-data/truthana/internal/truth"
)

func TestTriggerEmulation(t *testing.T) {
	t.Parallel()

	trig := DefaultTriggerEmulation()
	tests := []struct {
		name             string
		tau0, tau1, b0   float64 // visible tau pt and b pt in GeV
		wantSTT, wantDTT bool
	}{
		{"di-tau fires", 50, 35, 90, false, true},
		{"single-tau fires", 110, 10, 50, true, false},
		{"both fire", 120, 40, 95, true, true},
		{"b too soft for di-tau", 50, 35, 70, false, false},
		{"subleading tau too soft", 50, 25, 90, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tau0 := tauAt(tt.tau0, 0.1)
			tau1 := tu.NewDecayedTau(20, -truth.PdgTau, tu.GeVP4(tt.tau1+10, -0.4, 2.5, tu.TauMassGeV), 10)
			b0 := bAt(5, tt.b0, 1.0, -2.0)

			stt, err := trig.SingleTauFires(tau0, b0)
			require.NoError(t, err)
			dtt, err := trig.DiTauFires(tau0, tau1, b0)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSTT, stt)
			assert.Equal(t, tt.wantDTT, dtt)

			fired, err := trig.Passes(tau0, tau1, b0)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSTT || tt.wantDTT, fired)
		})
	}
}

func TestTriggerEmulation_SurfacesResolutionError(t *testing.T) {
	t.Parallel()

	bare := tu.NewParticle(3, truth.PdgTau, tu.GeVP4(150, 0, 0, tu.TauMassGeV))
	_, err := DefaultTriggerEmulation().Passes(bare, bare, bAt(5, 100, 0, 2))
	assert.ErrorIs(t, err, decay.ErrNoNeutrinoChild)
}
