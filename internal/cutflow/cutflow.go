// Package cutflow accumulates weighted pass counts across an ordered
// sequence of named selection stages.
//
// A Cutflow is owned by exactly one run (or one shard of a run). Stage
// positions are assigned the first time a name is seen and never change.
// Shards are combined with Merge, which matches stages by name.
package cutflow

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
)

// ErrInvalidWeight is returned when a weight cannot be accumulated.
var ErrInvalidWeight = errors.New("cutflow: invalid weight")

// Counter is a single named weighted accumulator.
type Counter struct {
	Name string  `json:"name"`
	Sum  float64 `json:"sum"`
}

// Option configures a Cutflow.
type Option func(*Cutflow)

// WithRejectNegativeWeights makes AddCut refuse negative weights. By default
// negative generator weights are accepted and subtract from the sum.
func WithRejectNegativeWeights() Option {
	return func(c *Cutflow) { c.rejectNegative = true }
}

// Cutflow is an insertion-ordered collection of Counters keyed by name.
// It is not safe for concurrent use.
type Cutflow struct {
	stages         []Counter
	index          map[string]int
	rejectNegative bool
}

// New returns an empty Cutflow.
func New(opts ...Option) *Cutflow {
	c := &Cutflow{index: make(map[string]int)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AddCut adds weight to the counter called name, appending a new counter at
// the next position if the name has not been seen before. Non-finite weights
// (and negative ones when WithRejectNegativeWeights is set) are rejected
// without creating the stage.
func (c *Cutflow) AddCut(name string, weight float64) error {
	if math.IsNaN(weight) || math.IsInf(weight, 0) {
		return fmt.Errorf("%w: stage %q weight %v", ErrInvalidWeight, name, weight)
	}
	if c.rejectNegative && weight < 0 {
		return fmt.Errorf("%w: stage %q negative weight %v", ErrInvalidWeight, name, weight)
	}
	i, ok := c.index[name]
	if !ok {
		c.stages = append(c.stages, Counter{Name: name})
		i = len(c.stages) - 1
		c.index[name] = i
	}
	c.stages[i].Sum += weight
	return nil
}

// Len returns the number of stages.
func (c *Cutflow) Len() int {
	return len(c.stages)
}

// Names returns stage names in insertion order.
func (c *Cutflow) Names() []string {
	names := make([]string, len(c.stages))
	for i, s := range c.stages {
		names[i] = s.Name
	}
	return names
}

// Stages returns a copy of the counters in insertion order.
func (c *Cutflow) Stages() []Counter {
	out := make([]Counter, len(c.stages))
	copy(out, c.stages)
	return out
}

// Sum returns the accumulated weight for name.
func (c *Cutflow) Sum(name string) (float64, bool) {
	i, ok := c.index[name]
	if !ok {
		return 0, false
	}
	return c.stages[i].Sum, true
}

// Position returns the zero-based position of name.
func (c *Cutflow) Position(name string) (int, bool) {
	i, ok := c.index[name]
	return i, ok
}

// Efficiency describes one stage together with its ratio to the stage
// immediately before it.
type Efficiency struct {
	Position int
	Name     string
	Sum      float64
	// Relative is Sum divided by the preceding stage's Sum. It is NaN for
	// the first stage and whenever the preceding sum is zero.
	Relative float64
}

// HasRelative reports whether Relative is defined.
func (e Efficiency) HasRelative() bool {
	return !math.IsNaN(e.Relative)
}

// Efficiencies returns every stage with its relative efficiency.
func (c *Cutflow) Efficiencies() []Efficiency {
	out := make([]Efficiency, len(c.stages))
	for i, s := range c.stages {
		rel := math.NaN()
		if i > 0 && c.stages[i-1].Sum != 0 {
			rel = s.Sum / c.stages[i-1].Sum
		}
		out[i] = Efficiency{Position: i + 1, Name: s.Name, Sum: s.Sum, Relative: rel}
	}
	return out
}

// Print writes the cutflow table: 1-based position, name, cumulative weight
// and, from the second stage on, the relative efficiency. An undefined ratio
// is printed as "-".
func (c *Cutflow) Print(w io.Writer) error {
	width := 2
	for _, s := range c.stages {
		if l := len(s.Name) + 2; l > width {
			width = l
		}
	}

	var b strings.Builder
	b.WriteString("Printing cutflow\n")
	b.WriteString("----------------\n")
	fmt.Fprintf(&b, "%-5s%-*s%-12s%s\n", "idx", width, "Name", "SumW", "Rel. Eff.")
	for _, e := range c.Efficiencies() {
		fmt.Fprintf(&b, "(%-2d) %-*s%-12.6g", e.Position, width, e.Name, e.Sum)
		switch {
		case e.Position == 1:
		case e.HasRelative():
			fmt.Fprintf(&b, "%.6g", e.Relative)
		default:
			b.WriteString("-")
		}
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// String renders the cutflow table.
func (c *Cutflow) String() string {
	var b strings.Builder
	_ = c.Print(&b)
	return b.String()
}

// Merge adds every counter of other into c by name. Names unseen in c are
// appended in other's insertion order.
func (c *Cutflow) Merge(other *Cutflow) error {
	if other == nil {
		return nil
	}
	for _, s := range other.stages {
		if err := c.AddCut(s.Name, s.Sum); err != nil {
			return fmt.Errorf("merge stage %q: %w", s.Name, err)
		}
	}
	return nil
}

// MergeInOrder combines shard cutflows into a new Cutflow whose stage order
// starts with the names in order that occur in any shard, followed by the
// remaining names in the order shards first introduce them.
func MergeInOrder(order []string, shards ...*Cutflow) (*Cutflow, error) {
	merged := New()
	for _, name := range order {
		var (
			sum   float64
			found bool
		)
		for _, s := range shards {
			if s == nil {
				continue
			}
			if v, ok := s.Sum(name); ok {
				sum += v
				found = true
			}
		}
		if found {
			if err := merged.AddCut(name, sum); err != nil {
				return nil, err
			}
		}
	}
	seeded := make(map[string]bool, merged.Len())
	for _, name := range merged.Names() {
		seeded[name] = true
	}
	for _, s := range shards {
		if s == nil {
			continue
		}
		for _, st := range s.stages {
			if seeded[st.Name] {
				continue
			}
			if err := merged.AddCut(st.Name, st.Sum); err != nil {
				return nil, err
			}
		}
	}
	return merged, nil
}

// FromCounters rebuilds a Cutflow from counters listed in insertion order,
// for example when loading a persisted cutflow. Duplicate names accumulate.
func FromCounters(counters []Counter) (*Cutflow, error) {
	c := New()
	for _, s := range counters {
		if err := c.AddCut(s.Name, s.Sum); err != nil {
			return nil, err
		}
	}
	return c, nil
}
