package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/worldmaking/gotlib/pkg/feedback"
	"github.com/worldmaking/gotlib/pkg/graph"
)

// Options configures diagram generation.
type Options struct {
	// Detailed adds every property to node labels. When false, only the
	// node name is shown.
	Detailed bool

	// Feedback highlights the arcs of these loops in red; the closing arc of
	// each loop is also dashed.
	Feedback []feedback.Path
}

// ToDOT converts g to Graphviz DOT. Every top-level module with children
// becomes a cluster holding its ports; outlets are filled blue. Arc
// endpoints that do not resolve are drawn as bare ellipses by Graphviz.
func ToDOT(g *graph.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.25;\n")
	buf.WriteString("\n")

	for i, m := range g.Children(graph.Root) {
		if !g.HasChildren(m) {
			fmt.Fprintf(&buf, "  %q [%s];\n", g.PathOf(m), nodeAttrs(g, m, opts.Detailed))
			continue
		}
		fmt.Fprintf(&buf, "  subgraph cluster_%d {\n", i)
		fmt.Fprintf(&buf, "    label=%q;\n", label(g, m, opts.Detailed))
		buf.WriteString("    style=\"rounded\";\n")
		writePorts(&buf, g, m, opts.Detailed)
		buf.WriteString("  }\n")
	}

	loop, closing := feedbackArcs(opts.Feedback)
	buf.WriteString("\n")
	for _, a := range g.Arcs() {
		var attrs []string
		if loop[a] {
			attrs = append(attrs, "color=red", "penwidth=2")
		}
		if closing[a] {
			attrs = append(attrs, "style=dashed")
		}
		if len(attrs) == 0 {
			fmt.Fprintf(&buf, "  %q -> %q;\n", a.Src, a.Dst)
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", a.Src, a.Dst, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func writePorts(buf *bytes.Buffer, g *graph.Graph, h graph.Handle, detailed bool) {
	for _, c := range g.Children(h) {
		fmt.Fprintf(buf, "    %q [%s];\n", g.PathOf(c), nodeAttrs(g, c, detailed))
		writePorts(buf, g, c, detailed)
	}
}

func nodeAttrs(g *graph.Graph, h graph.Handle, detailed bool) string {
	attrs := []string{fmt.Sprintf("label=%q", label(g, h, detailed))}
	if kind, _ := g.Prop(h, graph.KeyKind); kind == graph.KindOutlet {
		attrs = append(attrs, "fillcolor=lightblue")
	}
	return strings.Join(attrs, ", ")
}

func label(g *graph.Graph, h graph.Handle, detailed bool) string {
	name := g.Name(h)
	if !detailed {
		return name
	}
	props := g.Props(h)
	parts := make([]string, 0, len(props)+1)
	parts = append(parts, name)
	for _, k := range props.Keys() {
		parts = append(parts, k+": "+graph.FormatValue(props[k]))
	}
	return strings.Join(parts, "\n")
}

func feedbackArcs(paths []feedback.Path) (loop, closing map[graph.Arc]bool) {
	loop = make(map[graph.Arc]bool)
	for _, p := range paths {
		for _, a := range p.Arcs() {
			loop[a] = true
		}
	}
	closing = make(map[graph.Arc]bool)
	for _, a := range feedback.ClosingArcs(paths) {
		closing[a] = true
	}
	return loop, closing
}

// RenderSVG renders DOT source to SVG in-process with Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-based svg header with a
// zero-origin viewBox so the drawing scales in a browser.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	header := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(header))
}
