// Package pipeline sequences the selection predicates into the ordered,
// short-circuiting HH → bbττ event selection.
//
// Responsibilities:
//   - Object resolution: find the H→ττ and H→bb̄ seeds, resolve the final
//     taus and b-quarks, collect Higgs-descended truth taus.
//   - Jet classification: tagged light jets with untagged backfill, and
//     double-tagged large-radius jets with backfill.
//   - Channel labelling (channel-aware variant only), recorded as monitoring
//     counters that never gate the event.
//   - Gating stages, each recording the event weight into the caller's
//     cutflow on success and stopping the event on failure.
//
// Dependency rule: pipeline depends on truth, decay, selection, channel,
// cutflow and config. It performs no I/O; the cutflow is owned by the caller.
package pipeline
