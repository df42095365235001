// Package ot applies, inverts and rebases graph deltas.
//
// # Apply
//
// [Engine.Apply] mutates a graph one leaf delta at a time inside a
// per-call transaction. The transaction records every leaf as it was
// actually applied (a delete records the props it removed, a property
// change records the value it replaced), so its inverse restores the graph
// exactly.
//
// Failures fall into three classes:
//
//   - Malformed deltas (missing fields) roll the whole call back and come
//     back as a [Report] of kind [KindMalformed].
//   - Property changes with a stale "from" value are applied anyway and come
//     back as a [Report] of kind [KindConflict].
//   - Structural violations are returned as errors from pkg/errors and
//     leave the graph for the caller to resync.
//
// Connecting an existing arc, or disconnecting a missing one, is not an
// error: the engine applies the inverse and then the delta, which leaves
// exactly one or zero arcs.
//
// # Rebase
//
// [Rebase] transforms one batch against another that has already been
// applied, so two editors that started from the same graph converge:
//
//	b2, err := ot.Rebase(b, a) // apply a, then b2
//	a2, err := ot.Rebase(a, b) // apply b, then a2
//
// [Merge] and [Engine.MergeInto] compose the two steps.
//
// # Snapshots
//
// [DeltasFromGraph] serializes a graph into a creation batch and
// [GraphFromDeltas] rebuilds one from it.
package ot
