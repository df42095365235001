// Package feedback finds signal loops between the modules of a patch graph.
//
// Vertices of the search are outlets: direct children of a top-level
// module whose "kind" property is "outlet". Arcs leaving an outlet are
// followed forward; a loop is reported when the walk arrives back at a
// module it is already inside. Loops are judged at module granularity, so
// a loop through two ports of the same module counts once, and the same
// loop discovered from different starting modules or in a different
// rotation is reported only the first time.
//
// Each loop is returned as a flat [Path] alternating source and destination
// ports, one pair per arc. Hosts typically break a loop by inserting a
// one-sample delay on its closing arc; see [ClosingArcs].
package feedback

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/worldmaking/gotlib/pkg/graph"
	"github.com/worldmaking/gotlib/pkg/observability"
)

// Path is one feedback loop as alternating source and destination ports:
// [src0, dst0, src1, dst1, ...]. dst_i and src_{i+1} belong to the same
// module, and the last destination is in the module of src0.
type Path []string

// Arcs returns the loop's arcs in order.
func (p Path) Arcs() []graph.Arc {
	arcs := make([]graph.Arc, 0, len(p)/2)
	for i := 0; i+1 < len(p); i += 2 {
		arcs = append(arcs, graph.Arc{Src: p[i], Dst: p[i+1]})
	}
	return arcs
}

// String renders the loop as "a -> b, c -> d".
func (p Path) String() string {
	parts := make([]string, 0, len(p)/2)
	for _, a := range p.Arcs() {
		parts = append(parts, a.Src+" -> "+a.Dst)
	}
	return strings.Join(parts, ", ")
}

// key is the canonical form used for de-duplication: the loop's endpoints
// sorted, so rotations and re-orderings compare equal.
func (p Path) key() string {
	sorted := slices.Clone([]string(p))
	slices.Sort(sorted)
	return strings.Join(sorted, "\x00")
}

// Options configures a Finder.
type Options struct {
	// Logger receives per-search debug lines. Defaults to log.Default().
	Logger *log.Logger

	// MaxPaths stops the search after this many distinct loops.
	// Zero means no limit.
	MaxPaths int
}

// Finder searches graphs for feedback loops. It holds no per-search state.
type Finder struct {
	logger   *log.Logger
	maxPaths int
}

// NewFinder creates a Finder.
func NewFinder(opts Options) *Finder {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Finder{logger: logger, maxPaths: opts.MaxPaths}
}

// FindFeedbackPaths returns every distinct feedback loop in g.
func FindFeedbackPaths(g *graph.Graph) []Path {
	return NewFinder(Options{}).Find(context.Background(), g)
}

// Outlets lists "module.port" paths of every outlet in g, in module
// insertion order and then port insertion order.
func Outlets(g *graph.Graph) []string {
	var out []string
	for _, m := range g.Children(graph.Root) {
		for _, p := range g.Children(m) {
			if kind, _ := g.Prop(p, graph.KeyKind); kind == graph.KindOutlet {
				out = append(out, g.PathOf(p))
			}
		}
	}
	return out
}

// Adjacency groups the arcs leaving each outlet by the outlet's module.
// Arcs keep their order in g.
func Adjacency(g *graph.Graph, outlets []string) map[string][]graph.Arc {
	adj := make(map[string][]graph.Arc)
	isOutlet := make(map[string]bool, len(outlets))
	for _, o := range outlets {
		isOutlet[o] = true
		adj[graph.ModuleOf(o)] = nil
	}
	for _, a := range g.Arcs() {
		if isOutlet[a.Src] {
			m := graph.ModuleOf(a.Src)
			adj[m] = append(adj[m], a)
		}
	}
	return adj
}

// search is the state of one Find call.
type search struct {
	adj      map[string][]graph.Arc
	maxPaths int

	stack  []graph.Arc    // arcs walked from the origin
	onPath map[string]int // module -> index in stack of the first arc leaving it
	seen   map[string]bool
	paths  []Path
}

// Find returns every distinct feedback loop in g, in discovery order.
//
// The search starts from each module that owns an outlet and walks arcs
// depth first. Arcs into modules without outlets are sinks and are pruned.
// Arriving at a module already on the current walk closes a loop; the
// loop runs from the arc that first left that module to the arc that
// re-entered it. Modules are released on backtrack so every simple walk is
// explored.
//
// A reported loop starts at the module that was revisited, not at the
// search origin: arcs that only lead into the loop are left out.
func (f *Finder) Find(ctx context.Context, g *graph.Graph) []Path {
	start := time.Now()
	outlets := Outlets(g)

	var modules []string
	for _, o := range outlets {
		if m := graph.ModuleOf(o); !slices.Contains(modules, m) {
			modules = append(modules, m)
		}
	}

	s := &search{
		adj:      Adjacency(g, outlets),
		maxPaths: f.maxPaths,
		onPath:   make(map[string]int),
		seen:     make(map[string]bool),
	}
	for _, m := range modules {
		if s.full() {
			break
		}
		s.walk(m)
	}

	f.logger.Debug("feedback search", "outlets", len(outlets), "modules", len(modules),
		"paths", len(s.paths), "elapsed", time.Since(start))
	observability.Feedback().OnSearch(ctx, len(outlets), len(s.paths), time.Since(start))
	return s.paths
}

func (s *search) full() bool {
	return s.maxPaths > 0 && len(s.paths) >= s.maxPaths
}

func (s *search) walk(module string) {
	s.onPath[module] = len(s.stack)
	defer delete(s.onPath, module)

	for _, a := range s.adj[module] {
		if s.full() {
			return
		}
		next := graph.ModuleOf(a.Dst)
		if _, ok := s.adj[next]; !ok {
			continue
		}
		s.stack = append(s.stack, a)
		if i, ok := s.onPath[next]; ok {
			s.emit(s.stack[i:])
		} else {
			s.walk(next)
		}
		s.stack = s.stack[:len(s.stack)-1]
	}
}

func (s *search) emit(arcs []graph.Arc) {
	p := make(Path, 0, 2*len(arcs))
	for _, a := range arcs {
		p = append(p, a.Src, a.Dst)
	}
	k := p.key()
	if s.seen[k] {
		return
	}
	s.seen[k] = true
	s.paths = append(s.paths, p)
}

// ClosingArcs returns the last arc of each loop, the one that returns the
// signal to the loop's starting module.
func ClosingArcs(paths []Path) []graph.Arc {
	out := make([]graph.Arc, 0, len(paths))
	for _, p := range paths {
		if n := len(p); n >= 2 {
			out = append(out, graph.Arc{Src: p[n-2], Dst: p[n-1]})
		}
	}
	return out
}
