package decay

import (
	"errors"
	"fmt"
)

// Kind classifies a decay-resolution failure.
type Kind string

const (
	KindNilParticle     Kind = "nil-particle"
	KindNoNeutrinoChild Kind = "no-neutrino-child"
	KindCycle           Kind = "cycle"
	KindDepthExceeded   Kind = "depth-exceeded"
)

// Sentinels for errors.Is matching, one per Kind.
var (
	ErrNilParticle     = errors.New("decay: nil particle")
	ErrNoNeutrinoChild = errors.New("decay: tau has no neutrino child")
	ErrCycle           = errors.New("decay: cycle in child chain")
	ErrDepthExceeded   = errors.New("decay: child chain exceeds depth limit")
)

// ResolutionError reports a failure to resolve a particle through the decay
// graph. It unwraps to the sentinel for its Kind.
type ResolutionError struct {
	Kind    Kind
	Barcode int
	PdgID   int
	Depth   int
}

func (e *ResolutionError) Error() string {
	switch e.Kind {
	case KindNoNeutrinoChild:
		return fmt.Sprintf("decay resolution (%s): particle barcode=%d pdg=%d has no tau-neutrino child", e.Kind, e.Barcode, e.PdgID)
	case KindCycle, KindDepthExceeded:
		return fmt.Sprintf("decay resolution (%s): barcode=%d pdg=%d at depth %d", e.Kind, e.Barcode, e.PdgID, e.Depth)
	default:
		return fmt.Sprintf("decay resolution (%s)", e.Kind)
	}
}

// Unwrap returns the sentinel matching the error's Kind.
func (e *ResolutionError) Unwrap() error {
	switch e.Kind {
	case KindNilParticle:
		return ErrNilParticle
	case KindNoNeutrinoChild:
		return ErrNoNeutrinoChild
	case KindCycle:
		return ErrCycle
	case KindDepthExceeded:
		return ErrDepthExceeded
	}
	return nil
}
