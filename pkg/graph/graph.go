package graph

import (
	"slices"
	"strings"

	"github.com/worldmaking/gotlib/pkg/errors"
)

// Handle addresses a node slot in a Graph's arena. Handles are stable while
// the node lives, including across moves; a deleted node's handle may be
// reused by a later insertion.
type Handle int

// Root is the handle of the unnamed root container every graph owns.
const Root Handle = 0

// Arc is a directed connection between two dotted paths. Arcs reference
// paths by string and are not required to resolve to live nodes.
type Arc struct {
	Src string
	Dst string
}

type slot struct {
	name     string
	path     string
	parent   Handle
	props    Props
	children []Handle // insertion order
	live     bool
}

// Graph is a tree of named nodes plus an ordered list of arcs.
//
// Nodes live in an arena addressed by [Handle]; a path index maps every
// dotted path to its handle and is kept current on insert, delete and move.
// Each node belongs to exactly one parent slot.
//
// The zero value is not usable - use New to create a valid Graph instance.
// Graph is not safe for concurrent use without external synchronization.
type Graph struct {
	slots []slot
	free  []Handle
	index map[string]Handle
	arcs  []Arc
}

// New creates an empty graph holding only the root container.
func New() *Graph {
	return &Graph{
		slots: []slot{{parent: -1, props: Props{}, live: true}},
		index: make(map[string]Handle),
	}
}

// splitPath returns the parent path and the last segment of a dotted path.
func splitPath(path string) (parent, last string) {
	i := strings.LastIndexByte(path, '.')
	if i < 0 {
		return "", path
	}
	return path[:i], path[i+1:]
}

// ModuleOf returns the first segment of a dotted path.
func ModuleOf(path string) string {
	if i := strings.IndexByte(path, '.'); i >= 0 {
		return path[:i]
	}
	return path
}

// Lookup returns the handle at path and whether it exists.
func (g *Graph) Lookup(path string) (Handle, bool) {
	h, ok := g.index[path]
	return h, ok
}

// Has reports whether a node exists at path.
func (g *Graph) Has(path string) bool {
	_, ok := g.index[path]
	return ok
}

// FindPath resolves a dotted path to its node. It fails with
// PATH_NOT_FOUND if any step of the path is absent.
func (g *Graph) FindPath(path string) (Handle, error) {
	if h, ok := g.index[path]; ok {
		return h, nil
	}
	return 0, errors.NotFound(path)
}

// FindPathContainer resolves all but the last segment of path and returns
// the container's handle together with the terminal key. The terminal slot
// itself may be empty, so callers can insert into it. It fails with
// PATH_NOT_FOUND, carrying path, if the container does not exist.
func (g *Graph) FindPathContainer(path string) (Handle, string, error) {
	if err := errors.ValidatePath(path); err != nil {
		return 0, "", err
	}
	parent, last := splitPath(path)
	if parent == "" {
		return Root, last, nil
	}
	h, ok := g.index[parent]
	if !ok {
		return 0, "", errors.NotFound(path)
	}
	return h, last, nil
}

// MakePath creates a new empty node at path. Every ancestor must already
// exist (PATH_MISSING_ANCESTOR otherwise) and the terminal slot must be
// free (PATH_ALREADY_EXISTS otherwise). Colliding paths are never renamed.
func (g *Graph) MakePath(path string) (Handle, error) {
	if err := errors.ValidatePath(path); err != nil {
		return 0, err
	}
	parentPath, name := splitPath(path)
	parent := Root
	if parentPath != "" {
		h, ok := g.index[parentPath]
		if !ok {
			return 0, errors.AtPath(errors.ErrCodePathMissingAncestor, path,
				"cannot create %s: ancestor %s does not exist", path, parentPath)
		}
		parent = h
	}
	if _, exists := g.index[path]; exists {
		return 0, errors.AtPath(errors.ErrCodePathAlreadyExists, path,
			"cannot create %s: path already exists", path)
	}
	return g.insert(parent, name, path), nil
}

func (g *Graph) insert(parent Handle, name, path string) Handle {
	s := slot{name: name, path: path, parent: parent, props: Props{}, live: true}
	var h Handle
	if n := len(g.free); n > 0 {
		h = g.free[n-1]
		g.free = g.free[:n-1]
		g.slots[h] = s
	} else {
		h = Handle(len(g.slots))
		g.slots = append(g.slots, s)
	}
	g.slots[parent].children = append(g.slots[parent].children, h)
	g.index[path] = h
	return h
}

// Remove deletes the childless node at path and returns its properties.
// It fails with PATH_NOT_FOUND if the node is absent and NODE_HAS_CHILDREN
// if it still contains nodes.
func (g *Graph) Remove(path string) (Props, error) {
	h, err := g.FindPath(path)
	if err != nil {
		return nil, err
	}
	s := &g.slots[h]
	if len(s.children) > 0 {
		return nil, errors.AtPath(errors.ErrCodeNodeHasChildren, path,
			"cannot delete %s: node has children", path)
	}
	props := s.props
	g.detach(h)
	delete(g.index, path)
	g.slots[h] = slot{}
	g.free = append(g.free, h)
	return props, nil
}

func (g *Graph) detach(h Handle) {
	p := &g.slots[g.slots[h].parent]
	p.children = slices.DeleteFunc(p.children, func(c Handle) bool { return c == h })
}

// Move relocates the node at oldPath, together with its subtree, to
// newPath. The destination container must exist and the destination slot
// must be free. Arcs are not touched; see [Graph.RewriteArcs].
func (g *Graph) Move(oldPath, newPath string) error {
	h, err := g.FindPath(oldPath)
	if err != nil {
		return err
	}
	if oldPath == newPath {
		return nil
	}
	if strings.HasPrefix(newPath, oldPath+".") {
		return errors.AtPath(errors.ErrCodeInvalidPath, newPath,
			"cannot move %s into its own subtree", oldPath)
	}
	parent, name, err := g.FindPathContainer(newPath)
	if err != nil {
		return err
	}
	if _, exists := g.index[newPath]; exists {
		return errors.AtPath(errors.ErrCodePathAlreadyExists, newPath,
			"cannot move %s: %s already exists", oldPath, newPath)
	}

	g.detach(h)
	s := &g.slots[h]
	s.name = name
	s.parent = parent
	g.slots[parent].children = append(g.slots[parent].children, h)
	g.reindex(h, newPath)
	return nil
}

func (g *Graph) reindex(h Handle, path string) {
	s := &g.slots[h]
	delete(g.index, s.path)
	s.path = path
	g.index[path] = h
	for _, c := range s.children {
		g.reindex(c, path+"."+g.slots[c].name)
	}
}

// Name returns the last path segment of h.
func (g *Graph) Name(h Handle) string { return g.slots[h].name }

// PathOf returns the dotted path of h. The root's path is empty.
func (g *Graph) PathOf(h Handle) string { return g.slots[h].path }

// Children returns the handles of h's children in insertion order.
func (g *Graph) Children(h Handle) []Handle { return slices.Clone(g.slots[h].children) }

// HasChildren reports whether h contains any nodes.
func (g *Graph) HasChildren(h Handle) bool { return len(g.slots[h].children) > 0 }

// Prop returns the named property of h.
func (g *Graph) Prop(h Handle, name string) (any, bool) {
	v, ok := g.slots[h].props[name]
	return v, ok
}

// SetProp stores a deep copy of v under name on h.
func (g *Graph) SetProp(h Handle, name string, v any) {
	g.slots[h].props[name] = Clone(v)
}

// Props returns a copy of h's properties.
func (g *Graph) Props(h Handle) Props { return g.slots[h].props.Clone() }

// MergeProps copies every non-reserved entry of p onto h's properties.
func (g *Graph) MergeProps(h Handle, p Props) {
	CopyProperties(p, g.slots[h].props)
}

// NodeCount returns the number of nodes, excluding the root container.
func (g *Graph) NodeCount() int { return len(g.index) }

// Walk visits every node depth-first in insertion order, parents before
// children. Returning false from fn skips the node's subtree.
func (g *Graph) Walk(fn func(h Handle, depth int) bool) {
	var visit func(h Handle, depth int)
	visit = func(h Handle, depth int) {
		for _, c := range g.slots[h].children {
			if fn(c, depth) {
				visit(c, depth+1)
			}
		}
	}
	visit(Root, 0)
}

// Paths returns every node path in depth-first insertion order.
func (g *Graph) Paths() []string {
	paths := make([]string, 0, len(g.index))
	g.Walk(func(h Handle, _ int) bool {
		paths = append(paths, g.slots[h].path)
		return true
	})
	return paths
}

// Arcs returns a copy of the arc list in insertion order.
func (g *Graph) Arcs() []Arc { return slices.Clone(g.arcs) }

// ArcCount returns the number of arcs.
func (g *Graph) ArcCount() int { return len(g.arcs) }

// FindArcs returns the indices of every arc from src to dst.
func (g *Graph) FindArcs(src, dst string) []int {
	var idx []int
	for i, a := range g.arcs {
		if a.Src == src && a.Dst == dst {
			idx = append(idx, i)
		}
	}
	return idx
}

// HasArc reports whether an arc from src to dst exists.
func (g *Graph) HasArc(src, dst string) bool {
	return slices.Contains(g.arcs, Arc{Src: src, Dst: dst})
}

// AddArc appends an arc without checking for duplicates.
func (g *Graph) AddArc(a Arc) { g.arcs = append(g.arcs, a) }

// RemoveArc deletes the arc at index i.
func (g *Graph) RemoveArc(i int) { g.arcs = slices.Delete(g.arcs, i, i+1) }

// RewriteArcs replaces every arc endpoint equal to oldPath, or lying under
// it, with the corresponding path under newPath. It returns the number of
// endpoints rewritten.
func (g *Graph) RewriteArcs(oldPath, newPath string) int {
	n := 0
	for i := range g.arcs {
		if p, ok := Reroot(g.arcs[i].Src, oldPath, newPath); ok {
			g.arcs[i].Src = p
			n++
		}
		if p, ok := Reroot(g.arcs[i].Dst, oldPath, newPath); ok {
			g.arcs[i].Dst = p
			n++
		}
	}
	return n
}

// Reroot rewrites path when it equals oldPath or is a descendant of it.
func Reroot(path, oldPath, newPath string) (string, bool) {
	if path == oldPath {
		return newPath, true
	}
	if strings.HasPrefix(path, oldPath+".") {
		return newPath + path[len(oldPath):], true
	}
	return path, false
}

// Clone returns a deep copy of g. Handles are preserved.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		slots: make([]slot, len(g.slots)),
		free:  slices.Clone(g.free),
		index: make(map[string]Handle, len(g.index)),
		arcs:  slices.Clone(g.arcs),
	}
	for i, s := range g.slots {
		s.children = slices.Clone(s.children)
		if s.live {
			s.props = s.props.Clone()
		}
		c.slots[i] = s
	}
	for p, h := range g.index {
		c.index[p] = h
	}
	return c
}

// Equal reports whether a and b hold the same nodes with the same
// properties and the same set of arcs. Child order and arc order are
// ignored.
func (a *Graph) Equal(b *Graph) bool {
	if len(a.index) != len(b.index) || len(a.arcs) != len(b.arcs) {
		return false
	}
	for p, ha := range a.index {
		hb, ok := b.index[p]
		if !ok || !a.slots[ha].props.Equal(b.slots[hb].props) {
			return false
		}
	}
	count := make(map[Arc]int, len(a.arcs))
	for _, arc := range a.arcs {
		count[arc]++
	}
	for _, arc := range b.arcs {
		if count[arc] == 0 {
			return false
		}
		count[arc]--
	}
	return true
}
