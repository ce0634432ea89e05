// Package truth owns the event data model consumed by the selection core.
//
// Responsibilities: four-momentum arithmetic (pt, eta, phi, invariant mass,
// angular distance), truth particles linked into a decay graph through
// their child lists, jets with a true-flavour label, and the per-event
// container handed to the pipeline.
//
// Dependency rule: truth depends only on the standard library. It has no
// knowledge of cuts, cutflows or storage.
package truth
