package feedback

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"slices"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/worldmaking/gotlib/pkg/delta"
	"github.com/worldmaking/gotlib/pkg/graph"
	"github.com/worldmaking/gotlib/pkg/observability"
	"github.com/worldmaking/gotlib/pkg/ot"
)

func quiet(max int) *Finder {
	return NewFinder(Options{Logger: log.New(io.Discard), MaxPaths: max})
}

// build creates top-level modules with the given ports; ports listed in
// outlets get kind "outlet". arcs are "src>dst" pairs.
func build(t *testing.T, modules map[string][]string, order []string, outlets []string, arcs [][2]string) *graph.Graph {
	t.Helper()
	var ds []delta.Delta
	for _, m := range order {
		ds = append(ds, delta.NewNode(m, nil))
		for _, p := range modules[m] {
			path := m + "." + p
			props := graph.Props{"kind": "inlet"}
			if slices.Contains(outlets, path) {
				props["kind"] = graph.KindOutlet
			}
			ds = append(ds, delta.NewNode(path, props))
		}
	}
	for _, a := range arcs {
		ds = append(ds, delta.Connect(a[0], a[1]))
	}
	g, report, err := ot.NewEngine(ot.Options{Logger: log.New(io.Discard)}).
		GraphFromDeltas(context.Background(), delta.Seq(ds...))
	if err != nil || report != nil {
		t.Fatalf("build: report=%v err=%v", report, err)
	}
	return g
}

func loadScene(t *testing.T) *graph.Graph {
	t.Helper()
	data, err := os.ReadFile("testdata/scene_feedback.json")
	if err != nil {
		t.Fatal(err)
	}
	var d delta.Delta
	if err := json.Unmarshal(data, &d); err != nil {
		t.Fatal(err)
	}
	g, report, err := ot.NewEngine(ot.Options{Logger: log.New(io.Discard)}).
		GraphFromDeltas(context.Background(), d)
	if err != nil || report != nil {
		t.Fatalf("scene: report=%v err=%v", report, err)
	}
	return g
}

func TestTwoModuleLoop(t *testing.T) {
	g := build(t,
		map[string][]string{
			"lfo_1": {"sine", "fm_cv"},
			"vca_1": {"signal", "output"},
		},
		[]string{"lfo_1", "vca_1"},
		[]string{"lfo_1.sine", "vca_1.output"},
		[][2]string{
			{"lfo_1.sine", "vca_1.signal"},
			{"vca_1.output", "lfo_1.fm_cv"},
		})

	if got, want := Outlets(g), []string{"lfo_1.sine", "vca_1.output"}; !slices.Equal(got, want) {
		t.Errorf("Outlets() = %v, want %v", got, want)
	}

	paths := quiet(0).Find(context.Background(), g)
	want := Path{"lfo_1.sine", "vca_1.signal", "vca_1.output", "lfo_1.fm_cv"}
	if len(paths) != 1 || !slices.Equal(paths[0], want) {
		t.Errorf("Find() = %v, want [%v]", paths, want)
	}
}

func TestLeadInArcsExcluded(t *testing.T) {
	g := build(t,
		map[string][]string{
			"a": {"in", "out"},
			"b": {"in", "out"},
			"c": {"in", "out"},
		},
		[]string{"a", "b", "c"},
		[]string{"a.out", "b.out", "c.out"},
		[][2]string{
			{"a.out", "b.in"},
			{"b.out", "c.in"},
			{"c.out", "b.in"},
		})

	paths := quiet(0).Find(context.Background(), g)
	want := Path{"b.out", "c.in", "c.out", "b.in"}
	if len(paths) != 1 || !slices.Equal(paths[0], want) {
		t.Errorf("Find() = %v, want [%v]", paths, want)
	}
}

func TestLoopReportedOnceRegardlessOfStart(t *testing.T) {
	modules := map[string][]string{
		"a": {"in", "out"},
		"b": {"in", "out"},
	}
	outlets := []string{"a.out", "b.out"}
	arcs := [][2]string{{"a.out", "b.in"}, {"b.out", "a.in"}}

	for _, order := range [][]string{{"a", "b"}, {"b", "a"}} {
		g := build(t, modules, order, outlets, arcs)
		if paths := FindFeedbackPaths(g); len(paths) != 1 {
			t.Errorf("order %v: got %d paths %v, want 1", order, len(paths), paths)
		}
	}
}

func TestSelfLoop(t *testing.T) {
	g := build(t,
		map[string][]string{"fx": {"in", "out"}},
		[]string{"fx"},
		[]string{"fx.out"},
		[][2]string{{"fx.out", "fx.in"}})

	paths := quiet(0).Find(context.Background(), g)
	if len(paths) != 1 || !slices.Equal(paths[0], Path{"fx.out", "fx.in"}) {
		t.Errorf("Find() = %v", paths)
	}
}

func TestSinksArePruned(t *testing.T) {
	g := build(t,
		map[string][]string{
			"osc":     {"out"},
			"speaker": {"in"},
		},
		[]string{"osc", "speaker"},
		[]string{"osc.out"},
		[][2]string{{"osc.out", "speaker.in"}})

	if paths := FindFeedbackPaths(g); len(paths) != 0 {
		t.Errorf("Find() = %v, want none", paths)
	}
}

func TestAcyclicChain(t *testing.T) {
	g := build(t,
		map[string][]string{
			"a": {"out"},
			"b": {"in", "out"},
			"c": {"in", "out"},
		},
		[]string{"a", "b", "c"},
		[]string{"a.out", "b.out", "c.out"},
		[][2]string{{"a.out", "b.in"}, {"b.out", "c.in"}, {"a.out", "c.in"}})

	if paths := FindFeedbackPaths(g); len(paths) != 0 {
		t.Errorf("Find() = %v, want none", paths)
	}
}

func TestSceneOutletsAndAdjacency(t *testing.T) {
	g := loadScene(t)

	wantOutlets := []string{
		"lfo_1.sine", "lfo_1.phasor", "lfo_1.pulse", "lfo_1.sine_index", "lfo_1.saw",
		"lfo_2.sine", "lfo_2.phasor", "lfo_2.pulse", "lfo_2.sine_index", "lfo_2.saw",
		"dualvco_1.vco_1", "dualvco_1.vco_2", "dualvco_1.master",
		"vca_1.output",
		"pulsars_1.output",
	}
	outlets := Outlets(g)
	if !slices.Equal(outlets, wantOutlets) {
		t.Fatalf("Outlets() = %v\nwant %v", outlets, wantOutlets)
	}

	wantAdj := map[string][]graph.Arc{
		"lfo_1": {{Src: "lfo_1.sine", Dst: "vca_1.cv"}},
		"lfo_2": {
			{Src: "lfo_2.phasor", Dst: "dualvco_1.index_cv"},
			{Src: "lfo_2.saw", Dst: "vca_1.signal"},
		},
		"dualvco_1": {{Src: "dualvco_1.master", Dst: "pulsars_1.signal"}},
		"vca_1": {
			{Src: "vca_1.output", Dst: "dualvco_1.rate_1_cv"},
			{Src: "vca_1.output", Dst: "pulsars_1.period_cv"},
		},
		"pulsars_1": {
			{Src: "pulsars_1.output", Dst: "lfo_1.fm_cv"},
			{Src: "pulsars_1.output", Dst: "speaker_1.input"},
			{Src: "pulsars_1.output", Dst: "pulsars_1.formant_cv"},
		},
	}
	adj := Adjacency(g, outlets)
	if len(adj) != len(wantAdj) {
		t.Errorf("Adjacency() has %d modules, want %d", len(adj), len(wantAdj))
	}
	for m, want := range wantAdj {
		if got := adj[m]; !slices.Equal(got, want) {
			t.Errorf("Adjacency()[%s] = %v, want %v", m, got, want)
		}
	}
}

func TestSceneFeedbackPaths(t *testing.T) {
	g := loadScene(t)
	want := []Path{
		{
			"lfo_1.sine", "vca_1.cv",
			"vca_1.output", "dualvco_1.rate_1_cv",
			"dualvco_1.master", "pulsars_1.signal",
			"pulsars_1.output", "lfo_1.fm_cv",
		},
		{"pulsars_1.output", "pulsars_1.formant_cv"},
		{
			"lfo_1.sine", "vca_1.cv",
			"vca_1.output", "pulsars_1.period_cv",
			"pulsars_1.output", "lfo_1.fm_cv",
		},
	}

	got := quiet(0).Find(context.Background(), g)
	if len(got) != len(want) {
		t.Fatalf("Find() returned %d paths:\n%v\nwant %d", len(got), got, len(want))
	}
	for i := range want {
		if !slices.Equal(got[i], want[i]) {
			t.Errorf("path %d = %v\nwant %v", i, got[i], want[i])
		}
	}

	closing := ClosingArcs(got)
	wantClosing := []graph.Arc{
		{Src: "pulsars_1.output", Dst: "lfo_1.fm_cv"},
		{Src: "pulsars_1.output", Dst: "pulsars_1.formant_cv"},
		{Src: "pulsars_1.output", Dst: "lfo_1.fm_cv"},
	}
	if !slices.Equal(closing, wantClosing) {
		t.Errorf("ClosingArcs() = %v, want %v", closing, wantClosing)
	}
}

func TestMaxPaths(t *testing.T) {
	g := loadScene(t)
	if got := quiet(2).Find(context.Background(), g); len(got) != 2 {
		t.Errorf("Find() with MaxPaths=2 returned %d paths", len(got))
	}
}

func TestFindDoesNotShareState(t *testing.T) {
	g := loadScene(t)
	f := quiet(0)
	first := f.Find(context.Background(), g)
	second := f.Find(context.Background(), g)
	if len(first) != len(second) {
		t.Errorf("repeated searches differ: %d vs %d", len(first), len(second))
	}
}

func TestPathString(t *testing.T) {
	p := Path{"a.out", "b.in", "b.out", "a.in"}
	if got := p.String(); got != "a.out -> b.in, b.out -> a.in" {
		t.Errorf("String() = %q", got)
	}
}

type searchHooks struct {
	observability.NoopFeedbackHooks
	outlets, paths int
}

func (h *searchHooks) OnSearch(_ context.Context, outlets, paths int, _ time.Duration) {
	h.outlets, h.paths = outlets, paths
}

func TestFeedbackHooks(t *testing.T) {
	g := loadScene(t)
	h := &searchHooks{}
	observability.SetFeedbackHooks(h)
	defer observability.Reset()

	quiet(0).Find(context.Background(), g)
	if h.outlets != 15 || h.paths != 3 {
		t.Errorf("hook saw outlets=%d paths=%d, want 15 and 3", h.outlets, h.paths)
	}
}
