package io

import (
	"bytes"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/worldmaking/gotlib/pkg/delta"
	"github.com/worldmaking/gotlib/pkg/errors"
	"github.com/worldmaking/gotlib/pkg/graph"
)

func TestImportJSON(t *testing.T) {
	g, err := ImportJSON("testdata/patch.json")
	if err != nil {
		t.Fatal(err)
	}

	wantPaths := []string{"lfo_1", "lfo_1.sine", "lfo_1.fm_cv", "vca_1", "vca_1.signal", "vca_1.output"}
	if got := g.Paths(); !slices.Equal(got, wantPaths) {
		t.Errorf("Paths() = %v, want %v", got, wantPaths)
	}

	h, _ := g.Lookup("lfo_1")
	if pos, _ := g.Prop(h, "pos"); !graph.Equal(pos, []any{10, 10}) {
		t.Errorf("lfo_1 pos = %v", pos)
	}
	h, _ = g.Lookup("vca_1.signal")
	if n := len(g.Props(h)); n != 0 {
		t.Errorf("vca_1.signal has %d props, want 0", n)
	}

	wantArcs := []graph.Arc{
		{Src: "lfo_1.sine", Dst: "vca_1.signal"},
		{Src: "vca_1.output", Dst: "lfo_1.fm_cv"},
	}
	if got := g.Arcs(); !slices.Equal(got, wantArcs) {
		t.Errorf("Arcs() = %v, want %v", got, wantArcs)
	}
}

func TestRoundTrip(t *testing.T) {
	g, err := ImportJSON("testdata/patch.json")
	if err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(t.TempDir(), "out.json")
	if err := ExportJSON(g, out); err != nil {
		t.Fatal(err)
	}
	back, err := ImportJSON(out)
	if err != nil {
		t.Fatal(err)
	}
	if !g.Equal(back) {
		t.Errorf("round trip changed the graph:\n%s\nvs\n%s", g, back)
	}
	if !slices.Equal(g.Paths(), back.Paths()) {
		t.Errorf("round trip changed child order: %v vs %v", g.Paths(), back.Paths())
	}
}

func TestWriteJSON(t *testing.T) {
	g := graph.New()
	h, _ := g.MakePath("a")
	g.SetProp(h, "k", 1)
	g.MakePath("a.b")
	g.AddArc(graph.Arc{Src: "a", Dst: "a.b"})

	var buf bytes.Buffer
	if err := WriteJSON(g, &buf); err != nil {
		t.Fatal(err)
	}
	want := `{
  "nodes": {
    "a": {
      "_props": {
        "k": 1
      },
      "b": {}
    }
  },
  "arcs": [
    [
      "a",
      "a.b"
    ]
  ]
}
`
	if buf.String() != want {
		t.Errorf("WriteJSON() =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestWriteJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(graph.New(), &buf); err != nil {
		t.Fatal(err)
	}
	want := "{\n  \"nodes\": {},\n  \"arcs\": []\n}\n"
	if buf.String() != want {
		t.Errorf("WriteJSON() = %q, want %q", buf.String(), want)
	}
}

func TestReadJSONErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"not an object", `[]`, "decode"},
		{"truncated", `{"nodes": {"a": {`, "node a"},
		{"dotted name", `{"nodes": {"a.b": {}}}`, "cannot contain"},
		{"props not an object", `{"nodes": {"a": {"_props": 3}}}`, "props"},
		{"arc too short", `{"nodes": {}, "arcs": [["a"]]}`, "two distinct paths"},
		{"self arc", `{"nodes": {}, "arcs": [["a", "a"]]}`, "two distinct paths"},
		{"duplicate arc", `{"nodes": {}, "arcs": [["a", "b"], ["a", "b"]]}`, "duplicate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadJSON(strings.NewReader(tt.input))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("ReadJSON() err = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestReadJSONDottedNameIsInvalidPath(t *testing.T) {
	_, err := ReadJSON(strings.NewReader(`{"nodes": {"a.b": {}}}`))
	if !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("err = %v, want INVALID_PATH", err)
	}
}

func TestReadJSONIgnoresUnknownKeys(t *testing.T) {
	g, err := ReadJSON(strings.NewReader(`{"version": 2, "nodes": {"a": {}}, "meta": {"x": [1]}}`))
	if err != nil {
		t.Fatal(err)
	}
	if !g.Has("a") || g.NodeCount() != 1 {
		t.Errorf("unexpected graph:\n%s", g)
	}
}

func TestImportJSONMissingFile(t *testing.T) {
	if _, err := ImportJSON(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDeltasRoundTrip(t *testing.T) {
	d := delta.Seq(
		delta.NewNode("lfo_1", graph.Props{"kind": "lfo"}),
		delta.Seq(delta.Connect("lfo_1.sine", "vca_1.signal")),
		delta.PropChange("lfo_1", "rate", 1, 2.5),
	)
	path := filepath.Join(t.TempDir(), "d.json")
	if err := ExportDeltas(d, path); err != nil {
		t.Fatal(err)
	}
	back, err := ImportDeltas(path)
	if err != nil {
		t.Fatal(err)
	}
	if !back.Equal(d) {
		t.Errorf("round trip = %v, want %v", back, d)
	}
}

func TestReadDeltasRejectsGarbage(t *testing.T) {
	if _, err := ReadDeltas(strings.NewReader(`"newnode"`)); err == nil {
		t.Error("expected error")
	}
}

func TestSniff(t *testing.T) {
	fixture, err := os.ReadFile("testdata/patch.json")
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		data string
		want Format
	}{
		{"tree", string(fixture), FormatTree},
		{"batch", `  [{"op": "newnode", "path": "a"}]`, FormatDeltas},
		{"single delta", `{"op": "connect", "paths": ["a", "b"]}`, FormatDeltas},
		{"empty", "  ", FormatUnknown},
		{"other object", `{"x": 1}`, FormatUnknown},
		{"invalid", `{`, FormatUnknown},
		{"scalar", `42`, FormatUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sniff([]byte(tt.data)); got != tt.want {
				t.Errorf("Sniff() = %v, want %v", got, tt.want)
			}
		})
	}
}
