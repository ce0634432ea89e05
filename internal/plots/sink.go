package plots

import (
	"fmt"
	"path/filepath"

	"github.com/banshee-data/truthana/internal/fsutil"
	"github.com/banshee-data/truthana/internal/monitoring"
	"github.com/banshee-data/truthana/internal/projector"
)

// DefaultDRBBCut is the upper dr_bb edge of the h_dRbbCut histogram.
const DefaultDRBBCut = 0.8

// HistogramSink fills the kinematic histograms from projected rows and
// writes one PNG per histogram into a directory on Close.
type HistogramSink struct {
	fsys    fsutil.FileSystem
	dir     string
	drBBMax float64

	weights       *Histogram
	drTauTau      *Histogram
	drTauVis      *Histogram
	drBB          *Histogram
	drBBCut       *Histogram
	drBJetBJet    *Histogram
	mTauVisTauVis *Histogram
	mBB           *Histogram

	closed bool
}

// NewHistogramSink books the histograms. bins applies to the angular and
// weight histograms; the mass histograms use 1 GeV bins.
func NewHistogramSink(fsys fsutil.FileSystem, dir string, bins int, drBBCut float64) (*HistogramSink, error) {
	s := &HistogramSink{fsys: fsys, dir: dir, drBBMax: drBBCut}
	specs := []struct {
		dst         **Histogram
		name, title string
		xlabel      string
		bins        int
		min, max    float64
	}{
		{&s.weights, "h_mc_weights", "MC weights", "weight", bins, -2, 2},
		{&s.drTauTau, "h_dRtautau", "ΔR(τ, τ)", "ΔR", bins, 0, 10},
		{&s.drTauVis, "h_dRtauvistauvis", "ΔR(τ_h, τ_h)", "ΔR", bins, 0, 10},
		{&s.drBB, "h_dRbb", "ΔR(b-quark, b-quark)", "ΔR", bins, 0, 10},
		{&s.drBBCut, "h_dRbbCut", fmt.Sprintf("ΔR(b-quark, b-quark) < %g", drBBCut), "ΔR", bins, 0, 10},
		{&s.drBJetBJet, "h_dRbjetbjet", "ΔR(b-jet, b-jet)", "ΔR", bins, 0, 10},
		{&s.mTauVisTauVis, "h_mHtautau", "τ_h τ_h invariant mass", "m [GeV]", 150, 0, 150},
		{&s.mBB, "h_mHbb", "b-bbar invariant mass", "m [GeV]", 150, 0, 150},
	}
	for _, sp := range specs {
		h, err := NewHistogram(sp.name, sp.title, sp.xlabel, sp.bins, sp.min, sp.max)
		if err != nil {
			return nil, err
		}
		*sp.dst = h
	}
	return s, nil
}

// Histograms returns the booked histograms in output order.
func (s *HistogramSink) Histograms() []*Histogram {
	return []*Histogram{
		s.weights, s.drTauTau, s.drTauVis, s.drBB, s.drBBCut, s.drBJetBJet, s.mTauVisTauVis, s.mBB,
	}
}

// WriteRow implements projector.RowSink.
func (s *HistogramSink) WriteRow(r *projector.Row) error {
	if s.closed {
		return fmt.Errorf("histogram sink is closed")
	}
	w := r.MCWeight
	s.weights.Fill(w, 1)
	s.drTauTau.Fill(r.DRTauTau, w)
	s.drTauVis.Fill(r.DRTauVisTauVis, w)
	s.drBB.Fill(r.DRBB, w)
	s.mTauVisTauVis.Fill(r.MTauVisTauVis, w)
	s.mBB.Fill(r.MBB, w)
	if r.DRBJetBJet >= 0 {
		s.drBJetBJet.Fill(r.DRBJetBJet, w)
	}
	if r.DRBB < s.drBBMax {
		s.drBBCut.Fill(r.DRBB, w)
	}
	return nil
}

// Summaries returns the weighted statistics of every histogram.
func (s *HistogramSink) Summaries() []Summary {
	hs := s.Histograms()
	out := make([]Summary, len(hs))
	for i, h := range hs {
		out[i] = h.Summary()
	}
	return out
}

// Close logs the summaries and writes <dir>/<name>.png for every histogram.
func (s *HistogramSink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	if err := s.fsys.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create plot dir: %w", err)
	}
	for _, sum := range s.Summaries() {
		monitoring.Logf("%-18s entries=%d sumw=%.6g mean=%.4g stddev=%.4g",
			sum.Name, sum.Entries, sum.SumW, sum.Mean, sum.StdDev)
	}
	for _, h := range s.Histograms() {
		path := filepath.Join(s.dir, h.Name+".png")
		if err := savePNG(s.fsys, path, h); err != nil {
			return err
		}
	}
	return nil
}

func savePNG(fsys fsutil.FileSystem, path string, h *Histogram) error {
	wt, err := h.Plot().WriterTo(plotWidth, plotHeight, "png")
	if err != nil {
		return fmt.Errorf("failed to render %s: %w", h.Name, err)
	}
	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := wt.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
