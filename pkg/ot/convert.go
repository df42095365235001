package ot

import (
	"context"

	"github.com/worldmaking/gotlib/pkg/delta"
	"github.com/worldmaking/gotlib/pkg/graph"
)

// GraphFromDeltas applies d to a new empty graph.
func (e *Engine) GraphFromDeltas(ctx context.Context, d delta.Delta) (*graph.Graph, *Report, error) {
	g := graph.New()
	report, err := e.Apply(ctx, g, d)
	if err != nil {
		return nil, nil, err
	}
	return g, report, nil
}

// GraphFromDeltas applies d to a new empty graph with the default engine.
func GraphFromDeltas(ctx context.Context, d delta.Delta) (*graph.Graph, *Report, error) {
	return defaultEngine.GraphFromDeltas(ctx, d)
}

// DeltasFromGraph serializes g into a creation batch that rebuilds it on an
// empty graph. Each node becomes a nested group holding its own NewNode
// followed by its children's groups, depth first in insertion order; a
// Connect for every arc follows the node groups.
func DeltasFromGraph(g *graph.Graph) delta.Delta {
	var groups func(h graph.Handle) []delta.Delta
	groups = func(h graph.Handle) []delta.Delta {
		var out []delta.Delta
		for _, c := range g.Children(h) {
			group := []delta.Delta{delta.NewNode(g.PathOf(c), g.Props(c))}
			group = append(group, groups(c)...)
			out = append(out, delta.Seq(group...))
		}
		return out
	}

	batch := groups(graph.Root)
	for _, a := range g.Arcs() {
		batch = append(batch, delta.Connect(a.Src, a.Dst))
	}
	return delta.Seq(batch...)
}
