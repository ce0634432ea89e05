// Package eventio reads truth events from JSON lines, one event per line,
// and rebuilds each event's particle graph from index references.
package eventio

import (
	"errors"
	"fmt"

	"github.com/banshee-data/truthana/internal/truth"
)

// ParticleRecord is the wire form of a truth particle. Momenta are in MeV.
type ParticleRecord struct {
	Barcode  int                `json:"barcode"`
	PdgID    int                `json:"pdg_id"`
	Pt       float64            `json:"pt"`
	Eta      float64            `json:"eta"`
	Phi      float64            `json:"phi"`
	M        float64            `json:"m"`
	Children []int              `json:"children,omitempty"`
	Aux      map[string]float64 `json:"aux,omitempty"`
}

// JetRecord is the wire form of a jet.
type JetRecord struct {
	Pt         float64            `json:"pt"`
	Eta        float64            `json:"eta"`
	Phi        float64            `json:"phi"`
	M          float64            `json:"m"`
	TrueFlavor int                `json:"true_flavor"`
	Aux        map[string]float64 `json:"aux,omitempty"`
}

// EventRecord is one line of input. Children and TruthTaus index into
// Particles.
type EventRecord struct {
	Run       uint64           `json:"run"`
	Event     uint64           `json:"event"`
	Weights   []float64        `json:"weights"`
	Particles []ParticleRecord `json:"particles"`
	TruthTaus []int            `json:"truth_taus,omitempty"`
	Jets      []JetRecord      `json:"jets,omitempty"`
	FatJets   []JetRecord      `json:"fat_jets,omitempty"`
}

// ToEvent links the record into a truth.Event. Cycles among children are
// not rejected here.
func (r *EventRecord) ToEvent() (*truth.Event, error) {
	return r.toEvent(1)
}

// toEvent builds the event with pt and mass multiplied by scale.
func (r *EventRecord) toEvent(scale float64) (*truth.Event, error) {
	particles := make([]*truth.Particle, len(r.Particles))
	for i, pr := range r.Particles {
		particles[i] = &truth.Particle{
			Barcode: pr.Barcode,
			PdgID:   pr.PdgID,
			P4:      truth.PtEtaPhiM(pr.Pt*scale, pr.Eta, pr.Phi, pr.M*scale),
			Aux:     pr.Aux,
		}
	}
	for i, pr := range r.Particles {
		if len(pr.Children) == 0 {
			continue
		}
		children := make([]*truth.Particle, len(pr.Children))
		for j, idx := range pr.Children {
			if idx < 0 || idx >= len(particles) {
				return nil, fmt.Errorf("particle %d: child index %d out of range [0,%d)", i, idx, len(particles))
			}
			children[j] = particles[idx]
		}
		particles[i].Children = children
	}

	taus := make([]*truth.Particle, len(r.TruthTaus))
	for i, idx := range r.TruthTaus {
		if idx < 0 || idx >= len(particles) {
			return nil, fmt.Errorf("truth tau %d: index %d out of range [0,%d)", i, idx, len(particles))
		}
		taus[i] = particles[idx]
	}

	return &truth.Event{
		RunNumber:   r.Run,
		EventNumber: r.Event,
		Weights:     r.Weights,
		Particles:   particles,
		TruthTaus:   taus,
		Jets:        toJets(r.Jets, scale),
		FatJets:     toJets(r.FatJets, scale),
	}, nil
}

func toJets(records []JetRecord, scale float64) []*truth.Jet {
	if len(records) == 0 {
		return nil
	}
	jets := make([]*truth.Jet, len(records))
	for i, jr := range records {
		jets[i] = &truth.Jet{
			P4:         truth.PtEtaPhiM(jr.Pt*scale, jr.Eta, jr.Phi, jr.M*scale),
			TrueFlavor: jr.TrueFlavor,
			Aux:        jr.Aux,
		}
	}
	return jets
}

// ErrBeamAxis is returned by FromEvent for a momentum with zero pt and
// nonzero pz, which collider coordinates cannot represent.
var ErrBeamAxis = errors.New("momentum along the beam axis has no pt/eta form")

func checkRepresentable(p4 truth.FourMomentum) error {
	if p4.Pt() == 0 && p4.Pz != 0 {
		return ErrBeamAxis
	}
	return nil
}

// FromEvent converts an event back to its wire form. Particles not listed
// in ev.Particles but reachable as children or truth taus are appended.
func FromEvent(ev *truth.Event) (*EventRecord, error) {
	index := make(map[*truth.Particle]int, len(ev.Particles))
	var order []*truth.Particle
	add := func(p *truth.Particle) int {
		if i, ok := index[p]; ok {
			return i
		}
		index[p] = len(order)
		order = append(order, p)
		return index[p]
	}
	for _, p := range ev.Particles {
		add(p)
	}
	rec := &EventRecord{
		Run:     ev.RunNumber,
		Event:   ev.EventNumber,
		Weights: ev.Weights,
	}
	for _, t := range ev.TruthTaus {
		rec.TruthTaus = append(rec.TruthTaus, add(t))
	}
	// Children may extend order while it is walked.
	for i := 0; i < len(order); i++ {
		for _, c := range order[i].Children {
			add(c)
		}
	}
	rec.Particles = make([]ParticleRecord, len(order))
	for i, p := range order {
		if err := checkRepresentable(p.P4); err != nil {
			return nil, fmt.Errorf("event %d/%d: particle %d: %w", ev.RunNumber, ev.EventNumber, p.Barcode, err)
		}
		pr := ParticleRecord{
			Barcode: p.Barcode,
			PdgID:   p.PdgID,
			Pt:      p.P4.Pt(),
			Eta:     p.P4.Eta(),
			Phi:     p.P4.Phi(),
			M:       p.P4.M(),
			Aux:     p.Aux,
		}
		for _, c := range p.Children {
			pr.Children = append(pr.Children, index[c])
		}
		rec.Particles[i] = pr
	}
	var err error
	if rec.Jets, err = fromJets(ev.Jets); err != nil {
		return nil, fmt.Errorf("event %d/%d: jet: %w", ev.RunNumber, ev.EventNumber, err)
	}
	if rec.FatJets, err = fromJets(ev.FatJets); err != nil {
		return nil, fmt.Errorf("event %d/%d: fat jet: %w", ev.RunNumber, ev.EventNumber, err)
	}
	return rec, nil
}

func fromJets(jets []*truth.Jet) ([]JetRecord, error) {
	var out []JetRecord
	for _, j := range jets {
		if err := checkRepresentable(j.P4); err != nil {
			return nil, err
		}
		out = append(out, JetRecord{
			Pt:         j.P4.Pt(),
			Eta:        j.P4.Eta(),
			Phi:        j.P4.Phi(),
			M:          j.P4.M(),
			TrueFlavor: j.TrueFlavor,
			Aux:        j.Aux,
		})
	}
	return out, nil
}
