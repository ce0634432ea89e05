package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is the path to the canonical analysis defaults file.
const DefaultConfigPath = "config/analysis.defaults.json"

// Pipeline variant names.
const (
	VariantChannelAware = "channel-aware"
	VariantTwoObject    = "two-object"
)

// AnalysisConfig represents the selection thresholds and run options.
// Every field is optional; the Get* accessors supply defaults for nil
// fields, so partial files are safe. Thresholds are in GeV.
type AnalysisConfig struct {
	Variant *string `json:"variant,omitempty" yaml:"variant,omitempty"`

	// Object acceptance
	TauPtMinGeV *float64 `json:"tau_pt_min_gev,omitempty" yaml:"tau_pt_min_gev,omitempty"`
	TauEtaMax   *float64 `json:"tau_eta_max,omitempty" yaml:"tau_eta_max,omitempty"`
	BPtMinGeV   *float64 `json:"b_pt_min_gev,omitempty" yaml:"b_pt_min_gev,omitempty"`
	BEtaMax     *float64 `json:"b_eta_max,omitempty" yaml:"b_eta_max,omitempty"`

	// Angular matching
	OverlapMinDR      *float64 `json:"overlap_min_dr,omitempty" yaml:"overlap_min_dr,omitempty"`
	JetBackfillDR     *float64 `json:"jet_backfill_dr,omitempty" yaml:"jet_backfill_dr,omitempty"`
	FatJetDoubleTagDR *float64 `json:"fat_jet_double_tag_dr,omitempty" yaml:"fat_jet_double_tag_dr,omitempty"`
	FatJetBackfillDR  *float64 `json:"fat_jet_backfill_dr,omitempty" yaml:"fat_jet_backfill_dr,omitempty"`

	// Trigger emulation
	STTTauPtGeV  *float64 `json:"stt_tau_pt_gev,omitempty" yaml:"stt_tau_pt_gev,omitempty"`
	STTBPtGeV    *float64 `json:"stt_b_pt_gev,omitempty" yaml:"stt_b_pt_gev,omitempty"`
	DTTTau0PtGeV *float64 `json:"dtt_tau0_pt_gev,omitempty" yaml:"dtt_tau0_pt_gev,omitempty"`
	DTTTau1PtGeV *float64 `json:"dtt_tau1_pt_gev,omitempty" yaml:"dtt_tau1_pt_gev,omitempty"`
	DTTBPtGeV    *float64 `json:"dtt_b_pt_gev,omitempty" yaml:"dtt_b_pt_gev,omitempty"`

	DiTauMassMinGeV *float64 `json:"ditau_mass_min_gev,omitempty" yaml:"ditau_mass_min_gev,omitempty"`

	// Run behaviour
	MaxDecayDepth         *int  `json:"max_decay_depth,omitempty" yaml:"max_decay_depth,omitempty"`
	SkipUnresolvedDecays  *bool `json:"skip_unresolved_decays,omitempty" yaml:"skip_unresolved_decays,omitempty"`
	RejectNegativeWeights *bool `json:"reject_negative_weights,omitempty" yaml:"reject_negative_weights,omitempty"`

	// Histograms
	DRBBCut       *float64 `json:"dr_bb_cut,omitempty" yaml:"dr_bb_cut,omitempty"`
	HistogramBins *int     `json:"histogram_bins,omitempty" yaml:"histogram_bins,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyAnalysisConfig returns an AnalysisConfig with all fields set to nil.
func EmptyAnalysisConfig() *AnalysisConfig {
	return &AnalysisConfig{}
}

// DefaultAnalysisConfig returns a config with every field populated from
// the Get* defaults.
func DefaultAnalysisConfig() *AnalysisConfig {
	e := EmptyAnalysisConfig()
	return &AnalysisConfig{
		Variant:               ptrString(e.GetVariant()),
		TauPtMinGeV:           ptrFloat64(e.GetTauPtMinGeV()),
		TauEtaMax:             ptrFloat64(e.GetTauEtaMax()),
		BPtMinGeV:             ptrFloat64(e.GetBPtMinGeV()),
		BEtaMax:               ptrFloat64(e.GetBEtaMax()),
		OverlapMinDR:          ptrFloat64(e.GetOverlapMinDR()),
		JetBackfillDR:         ptrFloat64(e.GetJetBackfillDR()),
		FatJetDoubleTagDR:     ptrFloat64(e.GetFatJetDoubleTagDR()),
		FatJetBackfillDR:      ptrFloat64(e.GetFatJetBackfillDR()),
		STTTauPtGeV:           ptrFloat64(e.GetSTTTauPtGeV()),
		STTBPtGeV:             ptrFloat64(e.GetSTTBPtGeV()),
		DTTTau0PtGeV:          ptrFloat64(e.GetDTTTau0PtGeV()),
		DTTTau1PtGeV:          ptrFloat64(e.GetDTTTau1PtGeV()),
		DTTBPtGeV:             ptrFloat64(e.GetDTTBPtGeV()),
		DiTauMassMinGeV:       ptrFloat64(e.GetDiTauMassMinGeV()),
		MaxDecayDepth:         ptrInt(e.GetMaxDecayDepth()),
		SkipUnresolvedDecays:  ptrBool(e.GetSkipUnresolvedDecays()),
		RejectNegativeWeights: ptrBool(e.GetRejectNegativeWeights()),
		DRBBCut:               ptrFloat64(e.GetDRBBCut()),
		HistogramBins:         ptrInt(e.GetHistogramBins()),
	}
}

// LoadAnalysisConfig loads an AnalysisConfig from a JSON or YAML file.
// The file is validated to ensure it has a supported extension and is under
// the max file size.
func LoadAnalysisConfig(path string) (*AnalysisConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	switch ext {
	case ".json", ".yaml", ".yml":
	default:
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyAnalysisConfig()
	if ext == ".json" {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath.
// It searches the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *AnalysisConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/<pkg>/
		"../../../" + DefaultConfigPath, // from cmd/<tool>/ or deeper
	}
	for _, path := range candidates {
		if cfg, err := LoadAnalysisConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// JSON renders the config for storage alongside a run.
func (c *AnalysisConfig) JSON() string {
	data, err := json.Marshal(c)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// Validate checks that the configuration values are valid.
func (c *AnalysisConfig) Validate() error {
	if c.Variant != nil {
		switch *c.Variant {
		case VariantChannelAware, VariantTwoObject:
		default:
			return fmt.Errorf("variant must be %q or %q, got %q", VariantChannelAware, VariantTwoObject, *c.Variant)
		}
	}

	nonNegative := map[string]*float64{
		"tau_pt_min_gev":        c.TauPtMinGeV,
		"tau_eta_max":           c.TauEtaMax,
		"b_pt_min_gev":          c.BPtMinGeV,
		"b_eta_max":             c.BEtaMax,
		"overlap_min_dr":        c.OverlapMinDR,
		"jet_backfill_dr":       c.JetBackfillDR,
		"fat_jet_double_tag_dr": c.FatJetDoubleTagDR,
		"fat_jet_backfill_dr":   c.FatJetBackfillDR,
		"stt_tau_pt_gev":        c.STTTauPtGeV,
		"stt_b_pt_gev":          c.STTBPtGeV,
		"dtt_tau0_pt_gev":       c.DTTTau0PtGeV,
		"dtt_tau1_pt_gev":       c.DTTTau1PtGeV,
		"dtt_b_pt_gev":          c.DTTBPtGeV,
		"ditau_mass_min_gev":    c.DiTauMassMinGeV,
		"dr_bb_cut":             c.DRBBCut,
	}
	for name, v := range nonNegative {
		if v != nil && *v < 0 {
			return fmt.Errorf("%s must be non-negative, got %f", name, *v)
		}
	}

	if c.MaxDecayDepth != nil && *c.MaxDecayDepth <= 0 {
		return fmt.Errorf("max_decay_depth must be positive, got %d", *c.MaxDecayDepth)
	}
	if c.HistogramBins != nil && *c.HistogramBins <= 0 {
		return fmt.Errorf("histogram_bins must be positive, got %d", *c.HistogramBins)
	}

	return nil
}

// GetVariant returns the pipeline variant or the default.
func (c *AnalysisConfig) GetVariant() string {
	if c.Variant == nil || *c.Variant == "" {
		return VariantChannelAware
	}
	return *c.Variant
}

// GetTauPtMinGeV returns the tau_pt_min_gev value or the default.
func (c *AnalysisConfig) GetTauPtMinGeV() float64 {
	if c.TauPtMinGeV == nil {
		return 20
	}
	return *c.TauPtMinGeV
}

// GetTauEtaMax returns the tau_eta_max value or the default.
func (c *AnalysisConfig) GetTauEtaMax() float64 {
	if c.TauEtaMax == nil {
		return 2.5
	}
	return *c.TauEtaMax
}

// GetBPtMinGeV returns the b_pt_min_gev value or the default.
func (c *AnalysisConfig) GetBPtMinGeV() float64 {
	if c.BPtMinGeV == nil {
		return 20
	}
	return *c.BPtMinGeV
}

// GetBEtaMax returns the b_eta_max value or the default.
func (c *AnalysisConfig) GetBEtaMax() float64 {
	if c.BEtaMax == nil {
		return 2.4
	}
	return *c.BEtaMax
}

// GetOverlapMinDR returns the overlap_min_dr value or the default.
func (c *AnalysisConfig) GetOverlapMinDR() float64 {
	if c.OverlapMinDR == nil {
		return 0.2
	}
	return *c.OverlapMinDR
}

// GetJetBackfillDR returns the jet_backfill_dr value or the default, which
// depends on the variant: 0.4 for channel-aware, 0.2 for two-object.
func (c *AnalysisConfig) GetJetBackfillDR() float64 {
	if c.JetBackfillDR == nil {
		if c.GetVariant() == VariantTwoObject {
			return 0.2
		}
		return 0.4
	}
	return *c.JetBackfillDR
}

// GetFatJetDoubleTagDR returns the fat_jet_double_tag_dr value or the default.
func (c *AnalysisConfig) GetFatJetDoubleTagDR() float64 {
	if c.FatJetDoubleTagDR == nil {
		return 1.0
	}
	return *c.FatJetDoubleTagDR
}

// GetFatJetBackfillDR returns the fat_jet_backfill_dr value or the default.
func (c *AnalysisConfig) GetFatJetBackfillDR() float64 {
	if c.FatJetBackfillDR == nil {
		return 1.0
	}
	return *c.FatJetBackfillDR
}

// GetSTTTauPtGeV returns the stt_tau_pt_gev value or the default.
func (c *AnalysisConfig) GetSTTTauPtGeV() float64 {
	if c.STTTauPtGeV == nil {
		return 100
	}
	return *c.STTTauPtGeV
}

// GetSTTBPtGeV returns the stt_b_pt_gev value or the default.
func (c *AnalysisConfig) GetSTTBPtGeV() float64 {
	if c.STTBPtGeV == nil {
		return 45
	}
	return *c.STTBPtGeV
}

// GetDTTTau0PtGeV returns the dtt_tau0_pt_gev value or the default.
func (c *AnalysisConfig) GetDTTTau0PtGeV() float64 {
	if c.DTTTau0PtGeV == nil {
		return 40
	}
	return *c.DTTTau0PtGeV
}

// GetDTTTau1PtGeV returns the dtt_tau1_pt_gev value or the default.
func (c *AnalysisConfig) GetDTTTau1PtGeV() float64 {
	if c.DTTTau1PtGeV == nil {
		return 30
	}
	return *c.DTTTau1PtGeV
}

// GetDTTBPtGeV returns the dtt_b_pt_gev value or the default.
func (c *AnalysisConfig) GetDTTBPtGeV() float64 {
	if c.DTTBPtGeV == nil {
		return 80
	}
	return *c.DTTBPtGeV
}

// GetDiTauMassMinGeV returns the ditau_mass_min_gev value or the default.
func (c *AnalysisConfig) GetDiTauMassMinGeV() float64 {
	if c.DiTauMassMinGeV == nil {
		return 60
	}
	return *c.DiTauMassMinGeV
}

// GetMaxDecayDepth returns the max_decay_depth value or the default.
func (c *AnalysisConfig) GetMaxDecayDepth() int {
	if c.MaxDecayDepth == nil {
		return 1000
	}
	return *c.MaxDecayDepth
}

// GetSkipUnresolvedDecays returns the skip_unresolved_decays value or the default.
func (c *AnalysisConfig) GetSkipUnresolvedDecays() bool {
	if c.SkipUnresolvedDecays == nil {
		return false // default: a tau without a neutrino child aborts the run
	}
	return *c.SkipUnresolvedDecays
}

// GetRejectNegativeWeights returns the reject_negative_weights value or the default.
func (c *AnalysisConfig) GetRejectNegativeWeights() bool {
	if c.RejectNegativeWeights == nil {
		return false
	}
	return *c.RejectNegativeWeights
}

// GetDRBBCut returns the dr_bb_cut value or the default.
func (c *AnalysisConfig) GetDRBBCut() float64 {
	if c.DRBBCut == nil {
		return 0.8
	}
	return *c.DRBBCut
}

// GetHistogramBins returns the histogram_bins value or the default.
func (c *AnalysisConfig) GetHistogramBins() int {
	if c.HistogramBins == nil {
		return 100
	}
	return *c.HistogramBins
}
