// Package selection holds the boolean selection predicates applied to
// truth particles and jets: charge sign, kinematic acceptance with the
// calorimeter crack veto, b-tau overlap removal, large-radius double-b
// matching, flavour labels and the trigger emulation.
//
// Predicates are pure. The only error they return is a decay-resolution
// failure while computing a tau's visible momentum, which is kept distinct
// from a failed cut.
package selection
