package delta

import (
	"slices"

	"github.com/worldmaking/gotlib/pkg/errors"
	"github.com/worldmaking/gotlib/pkg/graph"
)

// Op discriminates leaf deltas.
type Op string

// Leaf operations.
const (
	OpNewNode    Op = "newnode"
	OpDelNode    Op = "delnode"
	OpConnect    Op = "connect"
	OpDisconnect Op = "disconnect"
	OpRepath     Op = "repath"
	OpPropChange Op = "propchange"
)

// Valid reports whether op names a known leaf operation.
func (op Op) Valid() bool {
	switch op {
	case OpNewNode, OpDelNode, OpConnect, OpDisconnect, OpRepath, OpPropChange:
		return true
	}
	return false
}

// Delta is one graph edit or an ordered batch of them.
//
// A batch has an empty Op and a non-nil Batch. Which leaf fields are used
// depends on Op:
//
//	newnode, delnode   Path, Props
//	connect/disconnect Paths = [src, dst]
//	repath             Paths = [oldPath, newPath]
//	propchange         Path, Name, From, To
type Delta struct {
	Op    Op
	Path  string
	Paths []string
	Name  string
	From  any
	To    any
	Props graph.Props
	Batch []Delta
}

// NewNode creates a node at path carrying props.
func NewNode(path string, props graph.Props) Delta {
	return Delta{Op: OpNewNode, Path: path, Props: graph.CopyProperties(props, nil)}
}

// DelNode removes the node at path. props records what the node held so
// the delta can be inverted faithfully; it may be nil.
func DelNode(path string, props graph.Props) Delta {
	return Delta{Op: OpDelNode, Path: path, Props: graph.CopyProperties(props, nil)}
}

// Connect adds the arc src -> dst.
func Connect(src, dst string) Delta {
	return Delta{Op: OpConnect, Paths: []string{src, dst}}
}

// Disconnect removes the arc src -> dst.
func Disconnect(src, dst string) Delta {
	return Delta{Op: OpDisconnect, Paths: []string{src, dst}}
}

// Repath moves the node at oldPath to newPath. Arc endpoints at or under
// oldPath follow the node. Arcs that already dangle at newPath cannot be
// told apart afterwards, so applying the inverse moves them to oldPath too.
func Repath(oldPath, newPath string) Delta {
	return Delta{Op: OpRepath, Paths: []string{oldPath, newPath}}
}

// PropChange sets property name on path from one value to another.
func PropChange(path, name string, from, to any) Delta {
	return Delta{Op: OpPropChange, Path: path, Name: name, From: graph.Clone(from), To: graph.Clone(to)}
}

// Seq groups deltas into an ordered batch. Seq() is the empty batch.
func Seq(ds ...Delta) Delta {
	if ds == nil {
		ds = []Delta{}
	}
	return Delta{Batch: ds}
}

// IsBatch reports whether d is a batch rather than a leaf.
func (d Delta) IsBatch() bool {
	return d.Op == "" && d.Batch != nil
}

// IsEmpty reports whether d is a batch with no leaves at any depth.
func (d Delta) IsEmpty() bool {
	if !d.IsBatch() {
		return false
	}
	for _, e := range d.Batch {
		if !e.IsEmpty() {
			return false
		}
	}
	return true
}

// Leaves returns the leaf deltas of d in application order.
func (d Delta) Leaves() []Delta {
	if !d.IsBatch() {
		return []Delta{d}
	}
	var out []Delta
	for _, e := range d.Batch {
		out = append(out, e.Leaves()...)
	}
	return out
}

// Len returns the number of leaf deltas in d.
func (d Delta) Len() int {
	if !d.IsBatch() {
		return 1
	}
	n := 0
	for _, e := range d.Batch {
		n += e.Len()
	}
	return n
}

// Src returns Paths[0], or "" when absent.
func (d Delta) Src() string {
	if len(d.Paths) > 0 {
		return d.Paths[0]
	}
	return ""
}

// Dst returns Paths[1], or "" when absent.
func (d Delta) Dst() string {
	if len(d.Paths) > 1 {
		return d.Paths[1]
	}
	return ""
}

// Refers reports whether the leaf d names path directly, either as Path or
// as one of its Paths.
func (d Delta) Refers(path string) bool {
	return d.Path == path || slices.Contains(d.Paths, path)
}

// Validate checks that a leaf carries the fields its operation requires.
// It returns a MALFORMED_DELTA error describing the first problem found.
// Batches are always valid; their elements are validated as they are
// applied.
func (d Delta) Validate() error {
	if d.IsBatch() {
		return nil
	}
	switch d.Op {
	case OpNewNode, OpDelNode:
		if d.Path == "" {
			return errors.Malformed("%s delta contains no path", d.Op)
		}
	case OpConnect, OpDisconnect:
		if len(d.Paths) != 2 || d.Paths[0] == "" || d.Paths[1] == "" {
			return errors.Malformed("%s delta is missing one or more paths", d.Op)
		}
		if d.Paths[0] == d.Paths[1] {
			return errors.Malformed("%s delta contains identical paths %s", d.Op, d.Paths[0])
		}
	case OpRepath:
		if len(d.Paths) != 2 || d.Paths[0] == "" || d.Paths[1] == "" {
			return errors.Malformed("repath delta is missing one or more paths")
		}
	case OpPropChange:
		switch {
		case d.Path == "":
			return errors.Malformed("propchange delta contains no path")
		case d.Name == "":
			return errors.Malformed("propchange delta on %s contains no property name", d.Path)
		case d.From == nil:
			return errors.Malformed("propchange delta on %s contains no \"from\" value", d.Path)
		case d.To == nil:
			return errors.Malformed("propchange delta on %s contains no \"to\" value", d.Path)
		}
	case "":
		return errors.Malformed("delta has no op")
	default:
		return errors.Malformed("unknown delta op %q", d.Op)
	}
	for _, p := range append([]string{d.Path}, d.Paths...) {
		if p == "" {
			continue
		}
		if err := errors.ValidatePath(p); err != nil {
			return errors.Wrap(errors.ErrCodeMalformedDelta, err, "%s delta has an invalid path", d.Op)
		}
	}
	return nil
}

// Clone returns a deep copy of d.
func (d Delta) Clone() Delta {
	c := d
	c.Paths = slices.Clone(d.Paths)
	c.From = graph.Clone(d.From)
	c.To = graph.Clone(d.To)
	if d.Props != nil {
		c.Props = d.Props.Clone()
	}
	if d.Batch != nil {
		c.Batch = make([]Delta, len(d.Batch))
		for i, e := range d.Batch {
			c.Batch[i] = e.Clone()
		}
	}
	return c
}

// Equal reports whether d and e are structurally identical, including batch
// nesting. Property values compare exactly.
func (d Delta) Equal(e Delta) bool {
	if d.IsBatch() != e.IsBatch() {
		return false
	}
	if d.IsBatch() {
		return slices.EqualFunc(d.Batch, e.Batch, Delta.Equal)
	}
	return d.Op == e.Op &&
		d.Path == e.Path &&
		slices.Equal(d.Paths, e.Paths) &&
		d.Name == e.Name &&
		graph.Equal(d.From, e.From) &&
		graph.Equal(d.To, e.To) &&
		d.Props.Equal(e.Props)
}

// Flatten returns d as a single-level batch of its leaves.
func Flatten(d Delta) Delta {
	return Seq(d.Leaves()...)
}
