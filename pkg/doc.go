// Package pkg holds the gotlib libraries for editing patch graphs with
// operational transforms.
//
// # Overview
//
// A patch graph is a tree of modules and their ports plus a list of arcs
// between ports. Every edit is a [delta] that can be inverted, applied
// atomically, and rebased over a concurrent edit:
//
//  1. [graph] - the node tree, properties and arcs
//  2. [delta] - edit records, inversion and JSON encoding
//  3. [ot] - the apply engine (rollback, conflict reports) and rebase
//  4. [feedback] - signal loops between modules
//  5. [session] - one shared graph serialized across editors
//
// Supporting packages: [io] reads and writes graph files, [cache] stores
// snapshots in files, Redis or MongoDB, [render/nodelink] draws diagrams,
// and [observability] exposes hooks with a Prometheus adapter.
//
// # Data Flow
//
//	editor batch (baseRev)
//	       ↓
//	  [ot.Engine.Rebase] over batches committed since baseRev
//	       ↓
//	  [ot.Engine.Apply] → graph' or Report{MalformedDelta | ConflictDelta}
//	       ↓
//	  [feedback.Finder] → loops needing a delay
//
// # Quick Start
//
//	g := graph.New()
//	report, err := ot.Apply(ctx, g, delta.Seq(
//	    delta.NewNode("osc_1", graph.Props{"kind": "osc"}),
//	    delta.NewNode("osc_1.out", graph.Props{"kind": "outlet"}),
//	))
//
// [delta]: github.com/worldmaking/gotlib/pkg/delta
// [graph]: github.com/worldmaking/gotlib/pkg/graph
// [ot]: github.com/worldmaking/gotlib/pkg/ot
// [feedback]: github.com/worldmaking/gotlib/pkg/feedback
// [session]: github.com/worldmaking/gotlib/pkg/session
// [io]: github.com/worldmaking/gotlib/pkg/io
// [cache]: github.com/worldmaking/gotlib/pkg/cache
// [render/nodelink]: github.com/worldmaking/gotlib/pkg/render/nodelink
// [observability]: github.com/worldmaking/gotlib/pkg/observability
// [ot.Engine.Rebase]: github.com/worldmaking/gotlib/pkg/ot.Engine.Rebase
// [ot.Engine.Apply]: github.com/worldmaking/gotlib/pkg/ot.Engine.Apply
// [feedback.Finder]: github.com/worldmaking/gotlib/pkg/feedback.Finder
package pkg
