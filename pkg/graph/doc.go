// Package graph provides the shared, mutable patch graph that deltas edit.
//
// # Overview
//
// A [Graph] is a tree of named nodes plus a separate, ordered list of
// directed [Arc] values between them. Nodes are addressed by dotted paths
// such as "dualvco_1.vco_1": the first segment names a top-level module,
// later segments name nested ports or parameters.
//
// Each node carries a [Props] map of JSON-shaped values (numbers, strings,
// arrays, nested maps). A node whose "kind" property is "outlet" is a
// signal-producing port and takes part in feedback detection.
//
// # Storage
//
// Nodes live in an arena and are addressed internally by [Handle]. A path
// index maps every dotted path to its handle; it is updated incrementally
// by [Graph.MakePath], [Graph.Remove] and [Graph.Move], so lookups never
// walk the tree. A node belongs to exactly one parent slot.
//
// # Path Primitives
//
//   - [Graph.FindPath]: resolve a full path, PATH_NOT_FOUND if absent
//   - [Graph.FindPathContainer]: resolve the parent and return the last key
//   - [Graph.MakePath]: create an empty node; ancestors must already exist
//     and an occupied slot is reported, never renamed
//   - [CopyProperties]: deep-copy a payload minus the reserved delta keys
//
// # Arcs
//
// Arcs reference paths by string and are not validated against the tree.
// Duplicate and self-loop checks belong to the delta engine in pkg/ot;
// this package only stores, finds, removes and rewrites them.
//
// # Value Comparison
//
// [Equal] compares property values structurally. [ApproxEqual] treats
// numbers within 0.1% of each other, or both near zero, as unchanged, which
// suits continuously dragged parameters. [Compare] selects between the two
// with a [Comparison] mode.
//
// # Concurrency
//
// Graph is not safe for concurrent use. Callers that share a graph across
// goroutines must serialize access; pkg/session does this with a mutex.
package graph
