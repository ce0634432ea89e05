package pipeline

import (
	"fmt"
	"strings"

	"github.com/banshee-data/truthana/internal/config"
	"github.com/banshee-data/truthana/internal/selection"
)

// Variant selects one of the two pipeline generations.
type Variant string

const (
	// ChannelAware resolves b-quarks through their radiation chain, uses
	// large-radius jets and labels the event with a channel.
	ChannelAware Variant = config.VariantChannelAware
	// TwoObject takes the b-quarks as direct Higgs children and has no
	// large-radius jets or channel labelling.
	TwoObject Variant = config.VariantTwoObject
)

// ParseVariant parses a variant name, case-insensitively.
func ParseVariant(s string) (Variant, error) {
	switch Variant(strings.ToLower(strings.TrimSpace(s))) {
	case ChannelAware, "":
		return ChannelAware, nil
	case TwoObject:
		return TwoObject, nil
	}
	return "", fmt.Errorf("unknown pipeline variant %q (want %q or %q)", s, ChannelAware, TwoObject)
}

// Settings holds every threshold the pipeline consults. Momenta in GeV.
type Settings struct {
	Variant Variant

	Tau selection.Window
	B   selection.Window

	// OverlapMinDR is the b-tau separation required by overlap removal.
	OverlapMinDR float64
	// JetBackfillDR is the separation from both taus an untagged light jet
	// needs to be promoted into the jet pair.
	JetBackfillDR     float64
	FatJetDoubleTagDR float64
	FatJetBackfillDR  float64

	Trigger selection.TriggerEmulation

	DiTauMassMinGeV float64
	MaxDecayDepth   int
}

// DefaultSettings returns the standard thresholds for a variant.
func DefaultSettings(v Variant) Settings {
	cfg := config.EmptyAnalysisConfig()
	name := string(v)
	cfg.Variant = &name
	s, err := SettingsFromConfig(cfg)
	if err != nil {
		// Only an unknown variant can fail here.
		panic(err)
	}
	return s
}

// SettingsFromConfig builds pipeline settings from an analysis config,
// applying defaults for unset fields.
func SettingsFromConfig(cfg *config.AnalysisConfig) (Settings, error) {
	if err := cfg.Validate(); err != nil {
		return Settings{}, err
	}
	v, err := ParseVariant(cfg.GetVariant())
	if err != nil {
		return Settings{}, err
	}
	return Settings{
		Variant:           v,
		Tau:               selection.Window{PtMinGeV: cfg.GetTauPtMinGeV(), EtaMax: cfg.GetTauEtaMax()},
		B:                 selection.Window{PtMinGeV: cfg.GetBPtMinGeV(), EtaMax: cfg.GetBEtaMax()},
		OverlapMinDR:      cfg.GetOverlapMinDR(),
		JetBackfillDR:     cfg.GetJetBackfillDR(),
		FatJetDoubleTagDR: cfg.GetFatJetDoubleTagDR(),
		FatJetBackfillDR:  cfg.GetFatJetBackfillDR(),
		Trigger: selection.TriggerEmulation{
			SingleTau: selection.SingleTauTrigger{TauPtGeV: cfg.GetSTTTauPtGeV(), BPtGeV: cfg.GetSTTBPtGeV()},
			DiTau: selection.DiTauTrigger{
				Tau0PtGeV: cfg.GetDTTTau0PtGeV(),
				Tau1PtGeV: cfg.GetDTTTau1PtGeV(),
				BPtGeV:    cfg.GetDTTBPtGeV(),
			},
			TauEtaMax: cfg.GetTauEtaMax(),
			BEtaMax:   cfg.GetBEtaMax(),
		},
		DiTauMassMinGeV: cfg.GetDiTauMassMinGeV(),
		MaxDecayDepth:   cfg.GetMaxDecayDepth(),
	}, nil
}
