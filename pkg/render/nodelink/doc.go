// Package nodelink renders patch graphs as node-link diagrams.
//
// # Overview
//
// Modules are drawn as Graphviz clusters holding their ports, and arcs as
// arrows between ports. Feedback loops found by [feedback.Finder] can be
// highlighted so the arcs that need a delay stand out.
//
// # Usage
//
//	paths := feedback.FindFeedbackPaths(g)
//	dot := nodelink.ToDOT(g, nodelink.Options{Feedback: paths})
//	svg, err := nodelink.RenderSVG(dot)
//
// # DOT Format
//
// The [ToDOT] output uses left-to-right layout (rankdir=LR) with rounded
// box nodes identified by their full dotted path. It can be rendered with
// [RenderSVG] or saved and processed with external Graphviz tools.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering.
//
// [feedback.Finder]: github.com/worldmaking/gotlib/pkg/feedback.Finder
package nodelink
