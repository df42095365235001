package ot

import (
	"context"
	"strings"

	"github.com/worldmaking/gotlib/pkg/delta"
	"github.com/worldmaking/gotlib/pkg/errors"
	"github.com/worldmaking/gotlib/pkg/graph"
	"github.com/worldmaking/gotlib/pkg/observability"
)

// Rebase transforms b so that applying a and then the result preserves
// what b intended, given that a has already happened. It is a pure
// function of the two deltas.
//
// When a is a batch, b is folded through each of its elements in order.
// Leaves of b that duplicate a leaf of a are dropped; a single dropped leaf
// rebases to the empty batch. Repaths in a carry b onto the renamed nodes
// and property changes in a re-baseline matching property changes in b.
//
// Rebase fails with PATH_COLLISION when a and b create different nodes at
// the same path, and with PATH_IN_USE when b touches a node a deleted.
// Neither is resolved automatically.
func Rebase(b, a delta.Delta) (delta.Delta, error) {
	if a.IsBatch() {
		cur := b
		for _, ai := range a.Batch {
			var err error
			if cur, err = Rebase(cur, ai); err != nil {
				return delta.Delta{}, err
			}
		}
		return cur, nil
	}
	out, keep, err := rebaseOver(b, a)
	if err != nil {
		return delta.Delta{}, err
	}
	if !keep {
		return delta.Seq(), nil
	}
	return out, nil
}

// rebaseOver rebases b over the single leaf a. keep is false when b is a
// leaf made redundant by a.
func rebaseOver(b, a delta.Delta) (delta.Delta, bool, error) {
	if b.IsBatch() {
		out := make([]delta.Delta, 0, len(b.Batch))
		for _, bi := range b.Batch {
			r, keep, err := rebaseOver(bi, a)
			if err != nil {
				return delta.Delta{}, false, err
			}
			if keep {
				out = append(out, r)
			}
		}
		return delta.Seq(out...), true, nil
	}
	return rebaseLeaf(b, a)
}

func rebaseLeaf(b, a delta.Delta) (delta.Delta, bool, error) {
	switch a.Op {
	case delta.OpConnect, delta.OpDisconnect:
		if b.Equal(a) {
			return b, false, nil
		}

	case delta.OpNewNode:
		if b.Equal(a) {
			return b, false, nil
		}
		if b.Op == delta.OpNewNode && b.Path == a.Path {
			return b, false, errors.AtPath(errors.ErrCodePathCollision, a.Path,
				"both edits create %s with different content", a.Path)
		}

	case delta.OpDelNode:
		if b.Op == delta.OpDelNode && b.Path == a.Path {
			return b, false, nil
		}
		if touches(b, a.Path) {
			return b, false, errors.AtPath(errors.ErrCodePathInUse, a.Path,
				"%s edit references %s, which was deleted", b.Op, a.Path)
		}

	case delta.OpRepath:
		if b.Equal(a) {
			return b, false, nil
		}
		return reroot(b, a.Src(), a.Dst()), true, nil

	case delta.OpPropChange:
		if b.Op == delta.OpPropChange && b.Path == a.Path && b.Name == a.Name &&
			!graph.ApproxEqual(b.From, a.To) {
			b = b.Clone()
			b.From = graph.Clone(a.To)
			return b, true, nil
		}
	}
	return b, true, nil
}

// touches reports whether leaf b names path or a node beneath it.
func touches(b delta.Delta, path string) bool {
	under := func(p string) bool {
		return p == path || strings.HasPrefix(p, path+".")
	}
	if b.Path != "" && under(b.Path) {
		return true
	}
	for _, p := range b.Paths {
		if under(p) {
			return true
		}
	}
	return false
}

// reroot returns a copy of leaf b with every path at or under oldPath moved
// under newPath.
func reroot(b delta.Delta, oldPath, newPath string) delta.Delta {
	b = b.Clone()
	b.Path, _ = graph.Reroot(b.Path, oldPath, newPath)
	for i, p := range b.Paths {
		b.Paths[i], _ = graph.Reroot(p, oldPath, newPath)
	}
	return b
}

// Rebase rebases b over a like the package-level [Rebase], logging the
// outcome and reporting it to the engine hooks.
func (e *Engine) Rebase(ctx context.Context, b, a delta.Delta) (delta.Delta, error) {
	out, err := Rebase(b, a)
	dropped := 0
	if err == nil {
		dropped = b.Len() - out.Len()
	}
	observability.Engine().OnRebase(ctx, dropped, err)
	if err != nil {
		e.logger.Warn("rebase conflict", "code", errors.GetCode(err), "path", errors.GetPath(err))
		return delta.Delta{}, err
	}
	e.logger.Debug("rebased", "leaves", out.Len(), "dropped", dropped)
	return out, nil
}

// Merge composes two concurrent edits: a followed by b rebased over a.
func Merge(b, a delta.Delta) (delta.Delta, error) {
	rb, err := Rebase(b, a)
	if err != nil {
		return delta.Delta{}, err
	}
	return delta.Seq(a, rb), nil
}

// MergeInto applies a and then b rebased over a to g. Nothing is applied
// if the rebase fails.
func (e *Engine) MergeInto(ctx context.Context, g *graph.Graph, a, b delta.Delta) (*Report, error) {
	rb, err := e.Rebase(ctx, b, a)
	if err != nil {
		return nil, err
	}
	return e.Apply(ctx, g, delta.Seq(a, rb))
}
