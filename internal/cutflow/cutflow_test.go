package cutflow

import (
	"errors"
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddCut_AccumulatesIntoSameSlot(t *testing.T) {
	t.Parallel()

	c := New()
	require.NoError(t, c.AddCut("Initial", 1.0))
	require.NoError(t, c.AddCut("OS Charge", 0.5))
	require.NoError(t, c.AddCut("Initial", 2.0))
	require.NoError(t, c.AddCut("Initial", -0.25))

	want := []Counter{{Name: "Initial", Sum: 2.75}, {Name: "OS Charge", Sum: 0.5}}
	if diff := cmp.Diff(want, c.Stages()); diff != "" {
		t.Errorf("stages mismatch (-want +got):\n%s", diff)
	}
	pos, ok := c.Position("OS Charge")
	assert.True(t, ok)
	assert.Equal(t, 1, pos)
}

func TestAddCut_InsertionOrderIsFirstSeen(t *testing.T) {
	t.Parallel()

	c := New()
	for _, name := range []string{"c", "a", "c", "b", "a", "d", "b"} {
		require.NoError(t, c.AddCut(name, 1))
	}
	assert.Equal(t, []string{"c", "a", "b", "d"}, c.Names())
}

// Randomised interleavings: the set of names equals the distinct inputs and
// every sum equals the sum of the weights passed under that name.
func TestAddCut_RandomInterleavings(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(7))
	names := []string{"Initial", "Good Event", "OS Charge", "Tau Preselection", "Trigger selection"}

	for trial := 0; trial < 50; trial++ {
		c := New()
		expected := map[string]float64{}
		var firstSeen []string
		for i := 0; i < 200; i++ {
			name := names[rng.Intn(len(names))]
			// Multiples of 1/8 keep the float sums exact.
			w := float64(rng.Intn(33)-8) / 8
			if _, ok := expected[name]; !ok {
				firstSeen = append(firstSeen, name)
			}
			expected[name] += w
			require.NoError(t, c.AddCut(name, w))
		}

		require.Equal(t, firstSeen, c.Names())
		for name, want := range expected {
			got, ok := c.Sum(name)
			require.True(t, ok)
			require.Equal(t, want, got, "stage %s", name)
		}
	}
}

func TestAddCut_RejectsNonFinite(t *testing.T) {
	t.Parallel()

	c := New()
	require.NoError(t, c.AddCut("Initial", 1))

	for _, w := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		err := c.AddCut("Initial", w)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidWeight))
	}
	err := c.AddCut("Fresh", math.NaN())
	require.ErrorIs(t, err, ErrInvalidWeight)

	sum, _ := c.Sum("Initial")
	assert.Equal(t, 1.0, sum)
	_, ok := c.Sum("Fresh")
	assert.False(t, ok, "rejected weight must not create a stage")
}

func TestAddCut_RejectNegativeOption(t *testing.T) {
	t.Parallel()

	c := New(WithRejectNegativeWeights())
	require.ErrorIs(t, c.AddCut("Initial", -1), ErrInvalidWeight)
	require.NoError(t, c.AddCut("Initial", 0))
	assert.Equal(t, 1, c.Len())
}

func TestEfficiencies(t *testing.T) {
	t.Parallel()

	c := New()
	require.NoError(t, c.AddCut("Initial", 4))
	require.NoError(t, c.AddCut("Zero", 0))
	require.NoError(t, c.AddCut("AfterZero", 0))
	require.NoError(t, c.AddCut("Last", 0))

	effs := c.Efficiencies()
	require.Len(t, effs, 4)
	assert.False(t, effs[0].HasRelative())
	assert.True(t, effs[1].HasRelative())
	assert.Equal(t, 0.0, effs[1].Relative)
	assert.False(t, effs[2].HasRelative(), "ratio after a zero sum is undefined")
	assert.Equal(t, 3, effs[2].Position)
}

func TestPrint(t *testing.T) {
	t.Parallel()

	c := New()
	require.NoError(t, c.AddCut("Initial", 4))
	require.NoError(t, c.AddCut("OS Charge", 2))
	require.NoError(t, c.AddCut("Empty", 0))
	require.NoError(t, c.AddCut("After", 0))

	var b strings.Builder
	require.NoError(t, c.Print(&b))
	lines := strings.Split(strings.TrimRight(b.String(), "\n"), "\n")
	require.Len(t, lines, 7)
	assert.Equal(t, "Printing cutflow", lines[0])
	assert.True(t, strings.HasPrefix(lines[2], "idx  Name"))
	assert.True(t, strings.HasPrefix(lines[3], "(1 ) Initial"))
	assert.Contains(t, lines[3], "4")
	assert.True(t, strings.HasSuffix(lines[5], "0"))
	assert.True(t, strings.HasSuffix(lines[4], "0.5"))
	assert.True(t, strings.HasSuffix(lines[6], "-"))
	assert.Equal(t, b.String(), c.String())
}

func TestMerge_ByName(t *testing.T) {
	t.Parallel()

	a := New()
	require.NoError(t, a.AddCut("Initial", 1))
	require.NoError(t, a.AddCut("Channel RESOLVED", 1))

	b := New()
	require.NoError(t, b.AddCut("Initial", 2))
	require.NoError(t, b.AddCut("Channel BOOSTED", 2))
	require.NoError(t, b.AddCut("Channel RESOLVED", 3))

	require.NoError(t, a.Merge(b))
	require.NoError(t, a.Merge(nil))
	want := []Counter{
		{Name: "Initial", Sum: 3},
		{Name: "Channel RESOLVED", Sum: 4},
		{Name: "Channel BOOSTED", Sum: 2},
	}
	if diff := cmp.Diff(want, a.Stages()); diff != "" {
		t.Errorf("merged stages mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeInOrder(t *testing.T) {
	t.Parallel()

	s1 := New()
	require.NoError(t, s1.AddCut("Initial", 1))
	require.NoError(t, s1.AddCut("Extra", 5))
	require.NoError(t, s1.AddCut("OS Charge", 1))

	s2 := New()
	require.NoError(t, s2.AddCut("Initial", 2))
	require.NoError(t, s2.AddCut("Good Event", 2))
	require.NoError(t, s2.AddCut("Extra", 1))

	merged, err := MergeInOrder([]string{"Initial", "Good Event", "OS Charge", "Never"}, s1, nil, s2)
	require.NoError(t, err)
	want := []Counter{
		{Name: "Initial", Sum: 3},
		{Name: "Good Event", Sum: 2},
		{Name: "OS Charge", Sum: 1},
		{Name: "Extra", Sum: 6},
	}
	if diff := cmp.Diff(want, merged.Stages()); diff != "" {
		t.Errorf("merged stages mismatch (-want +got):\n%s", diff)
	}
}

func TestFromCounters(t *testing.T) {
	t.Parallel()

	c, err := FromCounters([]Counter{{Name: "b", Sum: 1}, {Name: "a", Sum: 2}})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, c.Names())

	_, err = FromCounters([]Counter{{Name: "x", Sum: math.NaN()}})
	assert.ErrorIs(t, err, ErrInvalidWeight)
}
