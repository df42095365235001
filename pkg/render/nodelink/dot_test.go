package nodelink

import (
	"bytes"
	"strings"
	"testing"

	"github.com/worldmaking/gotlib/pkg/feedback"
	"github.com/worldmaking/gotlib/pkg/graph"
)

func scene(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New()
	for _, p := range []string{"lfo_1", "lfo_1.sine", "lfo_1.fm_cv", "vca_1", "vca_1.signal", "vca_1.output", "speaker"} {
		if _, err := g.MakePath(p); err != nil {
			t.Fatal(err)
		}
	}
	for _, p := range []string{"lfo_1.sine", "vca_1.output"} {
		h, _ := g.Lookup(p)
		g.SetProp(h, graph.KeyKind, graph.KindOutlet)
	}
	h, _ := g.Lookup("lfo_1")
	g.SetProp(h, "rate", 2)
	g.AddArc(graph.Arc{Src: "lfo_1.sine", Dst: "vca_1.signal"})
	g.AddArc(graph.Arc{Src: "vca_1.output", Dst: "lfo_1.fm_cv"})
	g.AddArc(graph.Arc{Src: "vca_1.output", Dst: "speaker"})
	return g
}

func TestToDOT(t *testing.T) {
	g := scene(t)
	dot := ToDOT(g, Options{Feedback: feedback.FindFeedbackPaths(g)})

	want := `digraph G {
  rankdir=LR;
  bgcolor="transparent";
  node [shape=box, style="rounded,filled", fillcolor=white, fontsize=14];
  ranksep=0.6;
  nodesep=0.25;

  subgraph cluster_0 {
    label="lfo_1";
    style="rounded";
    "lfo_1.sine" [label="sine", fillcolor=lightblue];
    "lfo_1.fm_cv" [label="fm_cv"];
  }
  subgraph cluster_1 {
    label="vca_1";
    style="rounded";
    "vca_1.signal" [label="signal"];
    "vca_1.output" [label="output", fillcolor=lightblue];
  }
  "speaker" [label="speaker"];

  "lfo_1.sine" -> "vca_1.signal" [color=red, penwidth=2];
  "vca_1.output" -> "lfo_1.fm_cv" [color=red, penwidth=2, style=dashed];
  "vca_1.output" -> "speaker";
}
`
	if dot != want {
		t.Errorf("ToDOT() =\n%s\nwant\n%s", dot, want)
	}
}

func TestToDOTDetailed(t *testing.T) {
	dot := ToDOT(scene(t), Options{Detailed: true})
	if !strings.Contains(dot, `label="lfo_1\nrate: 2";`) {
		t.Errorf("module label should list props:\n%s", dot)
	}
	if !strings.Contains(dot, `"lfo_1.sine" [label="sine\nkind: \"outlet\"", fillcolor=lightblue];`) {
		t.Errorf("port label should list props:\n%s", dot)
	}
	if strings.Contains(dot, "color=red") {
		t.Error("no feedback paths were given")
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(ToDOT(scene(t), Options{}))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(svg, []byte(`viewBox="0 0 `)) {
		t.Errorf("viewBox not normalized:\n%.300s", svg)
	}
	if !bytes.Contains(svg, []byte("fm_cv")) {
		t.Error("rendered SVG should contain port labels")
	}
}

func TestRenderSVGInvalidDOT(t *testing.T) {
	if _, err := RenderSVG("digraph {"); err == nil {
		t.Error("expected parse error")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="200pt" height="100pt" viewBox="0.00 0.00 200.00 100.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 200.00 100.00" width="200" height="100"><g/></svg>`
	if got := string(normalizeViewBox(in)); got != want {
		t.Errorf("normalizeViewBox() = %s", got)
	}

	plain := []byte(`<svg><g/></svg>`)
	if got := normalizeViewBox(plain); !bytes.Equal(got, plain) {
		t.Error("svg without viewBox should pass through")
	}
}
