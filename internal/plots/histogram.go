// Package plots renders the per-run weighted kinematic histograms and the
// cutflow chart.
package plots

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Histogram is a fixed-range weighted histogram. Fills outside [Min, Max)
// go to the underflow or overflow sums but still contribute to Summary.
type Histogram struct {
	Name   string
	Title  string
	XLabel string
	Min    float64
	Max    float64

	sums      []float64
	underflow float64
	overflow  float64

	values  []float64
	weights []float64
}

// NewHistogram books a histogram with bins equal-width bins over [min, max).
func NewHistogram(name, title, xlabel string, bins int, min, max float64) (*Histogram, error) {
	if bins <= 0 {
		return nil, fmt.Errorf("histogram %s: bins must be positive, got %d", name, bins)
	}
	if !(max > min) {
		return nil, fmt.Errorf("histogram %s: empty range [%g, %g)", name, min, max)
	}
	return &Histogram{
		Name:   name,
		Title:  title,
		XLabel: xlabel,
		Min:    min,
		Max:    max,
		sums:   make([]float64, bins),
	}, nil
}

// Fill adds weight w at x. Non-finite values are ignored.
func (h *Histogram) Fill(x, w float64) {
	if math.IsNaN(x) || math.IsInf(x, 0) || math.IsNaN(w) || math.IsInf(w, 0) {
		return
	}
	h.values = append(h.values, x)
	h.weights = append(h.weights, w)

	switch {
	case x < h.Min:
		h.underflow += w
	case x >= h.Max:
		h.overflow += w
	default:
		i := int((x - h.Min) / h.binWidth())
		if i >= len(h.sums) {
			i = len(h.sums) - 1
		}
		h.sums[i] += w
	}
}

func (h *Histogram) binWidth() float64 {
	return (h.Max - h.Min) / float64(len(h.sums))
}

// Entries returns the number of fills.
func (h *Histogram) Entries() int {
	return len(h.values)
}

// Bins returns the in-range bin sums.
func (h *Histogram) Bins() []float64 {
	out := make([]float64, len(h.sums))
	copy(out, h.sums)
	return out
}

// Underflow returns the summed weight below Min.
func (h *Histogram) Underflow() float64 { return h.underflow }

// Overflow returns the summed weight at or above Max.
func (h *Histogram) Overflow() float64 { return h.overflow }

// Summary holds weighted statistics of every fill.
type Summary struct {
	Name    string
	Entries int
	SumW    float64
	Mean    float64
	StdDev  float64
}

// Summary computes the weighted mean and standard deviation of all fills.
// Mean and StdDev are NaN when they are undefined.
func (h *Histogram) Summary() Summary {
	s := Summary{Name: h.Name, Entries: len(h.values), Mean: math.NaN(), StdDev: math.NaN()}
	for _, w := range h.weights {
		s.SumW += w
	}
	if len(h.values) == 0 || s.SumW == 0 {
		return s
	}
	s.Mean = stat.Mean(h.values, h.weights)
	if len(h.values) > 1 {
		s.StdDev = math.Sqrt(stat.Variance(h.values, h.weights))
	}
	return s
}

// Plot draws the in-range bins.
func (h *Histogram) Plot() *plot.Plot {
	p := plot.New()
	p.Title.Text = h.Title
	p.X.Label.Text = h.XLabel
	p.Y.Label.Text = "Sum of weights"

	width := h.binWidth()
	bins := make([]plotter.HistogramBin, len(h.sums))
	for i, w := range h.sums {
		lo := h.Min + float64(i)*width
		bins[i] = plotter.HistogramBin{Min: lo, Max: lo + width, Weight: w}
	}
	hist := &plotter.Histogram{
		Bins:      bins,
		Width:     width,
		FillColor: color.RGBA{R: 70, G: 130, B: 180, A: 255},
		LineStyle: plotter.DefaultLineStyle,
	}
	p.Add(hist, plotter.NewGrid())
	p.X.Min, p.X.Max = h.Min, h.Max
	return p
}

var (
	plotWidth  = 8 * vg.Inch
	plotHeight = 5 * vg.Inch
)
