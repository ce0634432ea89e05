// Package decay walks the truth decay graph: direct-child lookups by
// species, terminal (post-radiation) instance resolution, and the visible
// momentum of tau leptons.
//
// The graph is expected to be acyclic, but inputs are not trusted: chain
// walks are iterative, track visited particles and stop at a depth limit.
package decay

import (
	"github.com/banshee-data/truthana/internal/truth"
)

// DefaultMaxDepth bounds same-species chain walks.
const DefaultMaxDepth = 1000

// HasChild reports whether any direct child has the given absolute species
// identifier.
func HasChild(parent *truth.Particle, absPdgID int) bool {
	if parent == nil {
		return false
	}
	for _, child := range parent.Children {
		if child != nil && child.AbsPdgID() == absPdgID {
			return true
		}
	}
	return false
}

// AppendChildIndices appends the index of every direct child whose absolute
// species identifier equals absPdgID to dst, in child-list order, and
// reports whether any matched.
func AppendChildIndices(dst []int, parent *truth.Particle, absPdgID int) ([]int, bool) {
	if parent == nil {
		return dst, false
	}
	found := false
	for i, child := range parent.Children {
		if child != nil && child.AbsPdgID() == absPdgID {
			dst = append(dst, i)
			found = true
		}
	}
	return dst, found
}

// firstChild returns the lowest-index child with the given absolute species.
func firstChild(parent *truth.Particle, absPdgID int) *truth.Particle {
	for _, child := range parent.Children {
		if child != nil && child.AbsPdgID() == absPdgID {
			return child
		}
	}
	return nil
}

// Resolver resolves terminal particle instances with a bounded walk.
type Resolver struct {
	MaxDepth int
}

// NewResolver returns a Resolver with the given depth limit. A non-positive
// limit selects DefaultMaxDepth.
func NewResolver(maxDepth int) *Resolver {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Resolver{MaxDepth: maxDepth}
}

// Final follows the lowest-index child sharing p's absolute species until a
// particle with no such child is reached, and returns it. Later same-species
// children (radiated copies) are ignored. A particle without children is its
// own final instance.
func (r *Resolver) Final(p *truth.Particle) (*truth.Particle, error) {
	if p == nil {
		return nil, &ResolutionError{Kind: KindNilParticle}
	}
	maxDepth := r.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	species := p.AbsPdgID()
	visited := map[*truth.Particle]struct{}{p: {}}
	current := p
	for depth := 0; ; depth++ {
		next := firstChild(current, species)
		if next == nil {
			return current, nil
		}
		if _, seen := visited[next]; seen {
			return nil, &ResolutionError{Kind: KindCycle, Barcode: next.Barcode, PdgID: next.PdgID, Depth: depth + 1}
		}
		if depth+1 > maxDepth {
			return nil, &ResolutionError{Kind: KindDepthExceeded, Barcode: current.Barcode, PdgID: current.PdgID, Depth: depth}
		}
		visited[next] = struct{}{}
		current = next
	}
}

var defaultResolver = NewResolver(DefaultMaxDepth)

// Final resolves p with the default depth limit.
func Final(p *truth.Particle) (*truth.Particle, error) {
	return defaultResolver.Final(p)
}

// VisibleMomentum returns the tau's four-momentum minus that of its first
// tau-neutrino child. The tau must be in its final decayed state; a tau with
// no neutrino child yields a ResolutionError of KindNoNeutrinoChild.
func VisibleMomentum(tau *truth.Particle) (truth.FourMomentum, error) {
	if tau == nil {
		return truth.FourMomentum{}, &ResolutionError{Kind: KindNilParticle}
	}
	nu := firstChild(tau, truth.PdgNuTau)
	if nu == nil {
		return truth.FourMomentum{}, &ResolutionError{Kind: KindNoNeutrinoChild, Barcode: tau.Barcode, PdgID: tau.PdgID}
	}
	return tau.P4.Sub(nu.P4), nil
}
