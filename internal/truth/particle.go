package truth

// Species identifiers (PDG codes). The sign encodes particle vs antiparticle.
const (
	PdgBottom = 5
	PdgTau    = 15
	PdgNuTau  = 16
	PdgHiggs  = 25
)

// Jet true-flavour labels.
const (
	FlavorBottom = 5
	FlavorTau    = 15
)

// AuxParticleOrigin is the auxiliary tag holding the truth classifier's
// provenance code. OriginHiggs marks particles produced in a Higgs decay.
const (
	AuxParticleOrigin = "classifierParticleOrigin"
	OriginHiggs       = 14
)

// Particle is a truth record inside an event's decay graph. The graph is
// owned by the Event; selection code only holds references for the lifetime
// of one event.
type Particle struct {
	Barcode  int
	PdgID    int
	P4       FourMomentum
	Children []*Particle
	Aux      map[string]float64
}

// AbsPdgID returns the unsigned species identifier.
func (p *Particle) AbsPdgID() int {
	if p.PdgID < 0 {
		return -p.PdgID
	}
	return p.PdgID
}

// NChildren returns the number of direct children.
func (p *Particle) NChildren() int {
	return len(p.Children)
}

// Child returns the i-th child or nil when i is out of range.
func (p *Particle) Child(i int) *Particle {
	if i < 0 || i >= len(p.Children) {
		return nil
	}
	return p.Children[i]
}

// AuxInt returns an auxiliary tag truncated to an integer.
func (p *Particle) AuxInt(name string) (int, bool) {
	v, ok := p.Aux[name]
	if !ok {
		return 0, false
	}
	return int(v), true
}

// Jet is a reconstructed-from-truth jet with a true-flavour label.
type Jet struct {
	P4         FourMomentum
	TrueFlavor int
	Aux        map[string]float64
}

// Event is the per-event input to the selection pipeline.
type Event struct {
	RunNumber   uint64
	EventNumber uint64
	// Weights is the generator weight vector; only element 0 is used.
	Weights   []float64
	Particles []*Particle
	// TruthTaus references entries of Particles.
	TruthTaus []*Particle
	Jets      []*Jet
	// FatJets holds large-radius jets. Empty for the two-object variant.
	FatJets []*Jet
}
