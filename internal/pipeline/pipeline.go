package pipeline

import (
	"fmt"

	"github.com/banshee-data/truthana/internal/channel"
	"github.com/banshee-data/truthana/internal/cutflow"
	"github.com/banshee-data/truthana/internal/decay"
	"github.com/banshee-data/truthana/internal/selection"
	"github.com/banshee-data/truthana/internal/truth"
	"github.com/banshee-data/truthana/internal/units"
)

// Cutflow stage names, in gating order.
const (
	StageInitial         = "Initial"
	StageGoodEvent       = "Good Event"
	StageOSCharge        = "OS Charge"
	StageTauPreselection = "Tau Preselection"
	StageBPreselection   = "B-jet preselection"
	StageOverlapRemoval  = "b-tau overlap removal"
	StageTrigger         = "Trigger selection"
	StageDiTauMass       = "Di-tau mass selection"
)

var gatingStages = []string{
	StageGoodEvent,
	StageOSCharge,
	StageTauPreselection,
	StageBPreselection,
	StageOverlapRemoval,
	StageTrigger,
	StageDiTauMass,
}

// StageNames returns the canonical cutflow order for a variant: Initial,
// the channel counters (channel-aware only), then the gating stages.
func StageNames(v Variant) []string {
	names := []string{StageInitial}
	if v == ChannelAware {
		for _, c := range channel.All {
			names = append(names, c.CounterName())
		}
	}
	return append(names, gatingStages...)
}

// Selection is the per-event object assignment. It is discarded once the
// event has been projected.
type Selection struct {
	Event  *truth.Event
	Weight float64

	TauHiggs *truth.Particle
	BHiggs   *truth.Particle

	Tau0, Tau1 *truth.Particle
	B0, B1     *truth.Particle
	// Visible tau momenta, filled only for events that pass every stage.
	Tau0Vis, Tau1Vis truth.FourMomentum

	// TruthTaus holds the truth taus tagged as Higgs descendants.
	TruthTaus []*truth.Particle
	// Jets holds the tagged light jets followed by any backfilled ones.
	Jets []*truth.Jet
	// FatJets holds the double-tagged large-radius jets followed by any
	// backfilled ones.
	FatJets []*truth.Jet

	TaggedJets          int
	DoubleTaggedFatJets int
	Channel             channel.Channel
}

// Result reports how far an event got.
type Result struct {
	Passed bool
	// LastStage is the last cutflow stage that recorded the event.
	LastStage string
	Selection *Selection
}

// Pipeline runs the selection over one event at a time. It holds no
// per-event state and may be shared by concurrent workers, each with its
// own cutflow.
type Pipeline struct {
	settings Settings
	resolver *decay.Resolver
}

// New creates a pipeline with the given settings.
func New(s Settings) *Pipeline {
	return &Pipeline{settings: s, resolver: decay.NewResolver(s.MaxDecayDepth)}
}

// Settings returns the thresholds in use.
func (p *Pipeline) Settings() Settings {
	return p.settings
}

// Process runs one event through the selection, recording into cf.
//
// A rejected event returns a Result with Passed false and a nil error.
// A *PreconditionError is returned for events without a usable weight or
// without both Higgs seeds; the latter is detected after Initial has been
// recorded. Decay resolution failures are returned wrapped and match the
// decay package sentinels.
func (p *Pipeline) Process(ev *truth.Event, cf *cutflow.Cutflow) (*Result, error) {
	if len(ev.Weights) == 0 {
		return nil, p.precondition(ev, "empty weight vector", nil)
	}
	w := ev.Weights[0]
	if err := cf.AddCut(StageInitial, w); err != nil {
		return nil, p.precondition(ev, "unusable event weight", err)
	}

	sel, err := p.resolve(ev)
	if err != nil {
		return nil, err
	}
	sel.Weight = w
	res := &Result{LastStage: StageInitial, Selection: sel}

	p.classifyJets(sel)
	if p.settings.Variant == ChannelAware {
		p.classifyFatJets(sel)
		sel.Channel = channel.Classify(channel.Multiplicity{
			DoubleTaggedFatJets: sel.DoubleTaggedFatJets,
			TaggedJets:          sel.TaggedJets,
		})
		if err := cf.AddCut(sel.Channel.CounterName(), w); err != nil {
			return nil, err
		}
	}

	for _, st := range p.stages() {
		ok, err := st.check(sel)
		if err != nil {
			return nil, fmt.Errorf("event %d/%d: %s: %w", ev.RunNumber, ev.EventNumber, st.name, err)
		}
		if !ok {
			tracef("event %d/%d rejected at %q", ev.RunNumber, ev.EventNumber, st.name)
			return res, nil
		}
		if err := cf.AddCut(st.name, w); err != nil {
			return nil, err
		}
		res.LastStage = st.name
	}

	// Tau preselection already proved both taus have a neutrino child.
	if sel.Tau0Vis, err = decay.VisibleMomentum(sel.Tau0); err != nil {
		return nil, err
	}
	if sel.Tau1Vis, err = decay.VisibleMomentum(sel.Tau1); err != nil {
		return nil, err
	}
	res.Passed = true
	return res, nil
}

func (p *Pipeline) precondition(ev *truth.Event, reason string, err error) error {
	opsf("skipping event %d/%d: %s", ev.RunNumber, ev.EventNumber, reason)
	return &PreconditionError{RunNumber: ev.RunNumber, EventNumber: ev.EventNumber, Reason: reason, Err: err}
}

// resolve finds the Higgs seeds and the final taus and b-quarks.
func (p *Pipeline) resolve(ev *truth.Event) (*Selection, error) {
	sel := &Selection{Event: ev}

	for _, particle := range ev.Particles {
		if particle == nil {
			continue
		}
		if sel.TauHiggs == nil && selection.IsHiggsTo(particle, truth.PdgTau) {
			sel.TauHiggs = particle
		}
		if sel.BHiggs == nil && selection.IsHiggsTo(particle, truth.PdgBottom) {
			sel.BHiggs = particle
		}
		if sel.TauHiggs != nil && sel.BHiggs != nil {
			break
		}
	}
	if sel.TauHiggs == nil {
		return nil, p.precondition(ev, "no H->tautau candidate", nil)
	}
	if sel.BHiggs == nil {
		return nil, p.precondition(ev, "no H->bb candidate", nil)
	}
	tracef("H->tautau children: %d, %d", sel.TauHiggs.Child(0).PdgID, sel.TauHiggs.Child(1).PdgID)
	tracef("H->bb children: %d, %d", sel.BHiggs.Child(0).PdgID, sel.BHiggs.Child(1).PdgID)

	var err error
	if sel.Tau0, err = p.resolver.Final(sel.TauHiggs.Child(0)); err != nil {
		return nil, fmt.Errorf("resolve tau0: %w", err)
	}
	if sel.Tau1, err = p.resolver.Final(sel.TauHiggs.Child(1)); err != nil {
		return nil, fmt.Errorf("resolve tau1: %w", err)
	}

	if p.settings.Variant == TwoObject {
		sel.B0, sel.B1 = sel.BHiggs.Child(0), sel.BHiggs.Child(1)
	} else {
		if sel.B0, err = p.resolver.Final(sel.BHiggs.Child(0)); err != nil {
			return nil, fmt.Errorf("resolve b0: %w", err)
		}
		if sel.B1, err = p.resolver.Final(sel.BHiggs.Child(1)); err != nil {
			return nil, fmt.Errorf("resolve b1: %w", err)
		}
	}

	for _, tau := range ev.TruthTaus {
		if tau != nil && selection.IsFromHiggs(tau) {
			sel.TruthTaus = append(sel.TruthTaus, tau)
		}
	}
	tracef("truth taus from Higgs: %d of %d", len(sel.TruthTaus), len(ev.TruthTaus))

	return sel, nil
}

// classifyJets collects tagged light jets and, when fewer than two are
// tagged, backfills with untagged jets well separated from both taus.
func (p *Pipeline) classifyJets(sel *Selection) {
	jets := sel.Event.Jets
	tagged := make([]bool, len(jets))
	var taggedIdx []int
	for i, jet := range jets {
		if selection.IsBJet(jet) {
			sel.Jets = append(sel.Jets, jet)
			tagged[i] = true
			taggedIdx = append(taggedIdx, i)
		}
	}
	sel.TaggedJets = len(taggedIdx)

	if len(sel.Jets) < 2 {
		for i, jet := range jets {
			if len(sel.Jets) == 2 {
				break
			}
			if tagged[i] || !selection.IsIsolatedFrom(jet.P4, p.settings.JetBackfillDR, sel.Tau0, sel.Tau1) {
				continue
			}
			sel.Jets = append(sel.Jets, jet)
		}
	}
	tracef("btag_idx: %v, jet vector size: %d", taggedIdx, len(sel.Jets))
}

// classifyFatJets collects large-radius jets matched to both b-quarks and,
// when none match, backfills one jet well separated from both taus.
func (p *Pipeline) classifyFatJets(sel *Selection) {
	fatJets := sel.Event.FatJets
	tagged := make([]bool, len(fatJets))
	for i, fj := range fatJets {
		if selection.IsDoubleBTagged(fj, sel.B0, sel.B1, p.settings.FatJetDoubleTagDR) {
			sel.FatJets = append(sel.FatJets, fj)
			tagged[i] = true
		}
	}
	sel.DoubleTaggedFatJets = len(sel.FatJets)

	if len(sel.FatJets) < 1 {
		for i, fj := range fatJets {
			if tagged[i] || !selection.IsIsolatedFrom(fj.P4, p.settings.FatJetBackfillDR, sel.Tau0, sel.Tau1) {
				continue
			}
			sel.FatJets = append(sel.FatJets, fj)
			break
		}
	}
	tracef("double-tagged fat jets: %d, fat jet vector size: %d", sel.DoubleTaggedFatJets, len(sel.FatJets))
}

type stage struct {
	name  string
	check func(*Selection) (bool, error)
}

func (p *Pipeline) stages() []stage {
	s := p.settings
	return []stage{
		{StageGoodEvent, func(sel *Selection) (bool, error) {
			return selection.IsGoodEvent(sel.Event), nil
		}},
		{StageOSCharge, func(sel *Selection) (bool, error) {
			return selection.IsOppositeSign(sel.Tau0, sel.Tau1) && selection.IsOppositeSign(sel.B0, sel.B1), nil
		}},
		{StageTauPreselection, func(sel *Selection) (bool, error) {
			ok, err := selection.IsAcceptableTau(sel.Tau0, s.Tau.PtMinGeV, s.Tau.EtaMax)
			if err != nil || !ok {
				return false, err
			}
			return selection.IsAcceptableTau(sel.Tau1, s.Tau.PtMinGeV, s.Tau.EtaMax)
		}},
		{StageBPreselection, func(sel *Selection) (bool, error) {
			return selection.IsAcceptableB(sel.B0, s.B.PtMinGeV, s.B.EtaMax) &&
				selection.IsAcceptableB(sel.B1, s.B.PtMinGeV, s.B.EtaMax), nil
		}},
		{StageOverlapRemoval, func(sel *Selection) (bool, error) {
			return selection.IsNotOverlapping(sel.B0, sel.B1, sel.Tau0, sel.Tau1, s.OverlapMinDR), nil
		}},
		{StageTrigger, func(sel *Selection) (bool, error) {
			return s.Trigger.Passes(sel.Tau0, sel.Tau1, sel.B0)
		}},
		{StageDiTauMass, func(sel *Selection) (bool, error) {
			return sel.Tau0.P4.Add(sel.Tau1.P4).M() > units.FromGeV(s.DiTauMassMinGeV), nil
		}},
	}
}

// LogSettings writes the active thresholds to the diag stream.
func (p *Pipeline) LogSettings() {
	s := p.settings
	diagf("variant=%s tau=%+v b=%+v overlap_dr=%.2f jet_backfill_dr=%.2f fat_jet_dr=%.2f/%.2f mass_min=%.1f GeV",
		s.Variant, s.Tau, s.B, s.OverlapMinDR, s.JetBackfillDR, s.FatJetDoubleTagDR, s.FatJetBackfillDR, s.DiTauMassMinGeV)
}
