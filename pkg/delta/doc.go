// Package delta defines the reversible edit operations applied to a graph.
//
// # Overview
//
// A [Delta] is either a single leaf operation or an ordered batch of deltas,
// possibly nested. Batches are the unit of transmission, inversion and
// rebase; nesting carries no meaning beyond grouping (for example, one group
// per node when a whole graph is serialized).
//
// # Operations
//
//   - [OpNewNode]: create a node at Path and store Props on it
//   - [OpDelNode]: remove the childless node at Path
//   - [OpConnect]: add the arc Paths[0] -> Paths[1]
//   - [OpDisconnect]: remove the arc Paths[0] -> Paths[1]
//   - [OpRepath]: move the node at Paths[0] to Paths[1]
//   - [OpPropChange]: set property Name on Path from From to To
//
// Use the constructors ([NewNode], [Connect], [Seq], ...) rather than
// filling the struct by hand.
//
// # Inversion
//
// [Inverse] is a pure function. Applying a delta and then its inverse
// leaves a graph unchanged: creates become deletes (with the same props),
// connects become disconnects, repaths swap their endpoints and property
// changes swap From and To. A batch inverts to the reverse sequence of its
// inverted elements, so undo is LIFO.
//
// # Wire Format
//
// Deltas encode to JSON records with "op" as the discriminator:
//
//	[
//	  {"op": "newnode", "path": "lfo_1", "kind": "lfo", "pos": [10, 10]},
//	  {"op": "connect", "paths": ["lfo_1.sine", "vca_1.cv"]},
//	  {"op": "propchange", "path": "lfo_1.rate", "name": "value", "from": 1, "to": 2}
//	]
//
// Node properties are flattened into the record. A batch is a JSON array.
// A JSON null for "from" or "to" decodes as a missing value.
package delta
