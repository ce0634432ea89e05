package channel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		m    Multiplicity
		want Channel
	}{
		{"two tagged light jets, no fat jet", Multiplicity{TaggedJets: 2}, Resolved},
		{"three tagged light jets", Multiplicity{TaggedJets: 3}, Resolved},
		{"one double-tagged fat jet only", Multiplicity{DoubleTaggedFatJets: 1}, Boosted},
		{"fat jet with one tagged light jet", Multiplicity{DoubleTaggedFatJets: 1, TaggedJets: 1}, Boosted},
		{"both present", Multiplicity{DoubleTaggedFatJets: 2, TaggedJets: 2}, Both},
		{"neither", Multiplicity{TaggedJets: 1}, Unknown},
		{"empty", Multiplicity{}, Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.m))
		})
	}
}

func TestStringAndParse(t *testing.T) {
	t.Parallel()

	for _, c := range All {
		parsed, err := ParseChannel(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, parsed)
	}
	parsed, err := ParseChannel("boosted")
	require.NoError(t, err)
	assert.Equal(t, Boosted, parsed)

	_, err = ParseChannel("merged")
	assert.Error(t, err)
	assert.Equal(t, "Channel(9)", Channel(9).String())
	assert.Equal(t, "Channel RESOLVED", Resolved.CounterName())
}
