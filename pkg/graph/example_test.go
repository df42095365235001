package graph_test

import (
	"fmt"

	"github.com/worldmaking/gotlib/pkg/graph"
)

func ExampleGraph_MakePath() {
	g := graph.New()
	_, _ = g.MakePath("lfo_1")
	h, _ := g.MakePath("lfo_1.sine")
	g.SetProp(h, graph.KeyKind, graph.KindOutlet)

	// Ancestors are never created implicitly.
	_, err := g.MakePath("vca_1.output")
	fmt.Println(err)

	g.AddArc(graph.Arc{Src: "lfo_1.sine", Dst: "vca_1.cv"})
	fmt.Print(g)
	// Output:
	// PATH_MISSING_ANCESTOR: cannot create vca_1.output: ancestor vca_1 does not exist
	// lfo_1
	//   sine [kind="outlet"]
	// lfo_1.sine -> vca_1.cv
}

func ExampleGraph_Move() {
	g := graph.New()
	_, _ = g.MakePath("dualvco_1")
	_, _ = g.MakePath("dualvco_1.vco_1")
	_, _ = g.MakePath("mixer_1")
	g.AddArc(graph.Arc{Src: "dualvco_1.vco_1", Dst: "mixer_1"})

	if err := g.Move("dualvco_1.vco_1", "mixer_1.vco_1"); err != nil {
		fmt.Println(err)
		return
	}
	g.RewriteArcs("dualvco_1.vco_1", "mixer_1.vco_1")
	fmt.Println(g.Paths())
	fmt.Println(g.Arcs())
	// Output:
	// [dualvco_1 mixer_1 mixer_1.vco_1]
	// [{mixer_1.vco_1 mixer_1}]
}

func ExampleApproxEqual() {
	fmt.Println(graph.ApproxEqual(440.0, 440.2))
	fmt.Println(graph.ApproxEqual(440.0, 445.0))
	fmt.Println(graph.ApproxEqual([]any{10.0, 20.0}, []any{10.005, 20.0}))
	// Output:
	// true
	// false
	// true
}
