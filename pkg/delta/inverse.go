package delta

import "slices"

// Inverse returns the delta that undoes d. It does not consult any graph.
//
// For a batch the result is the reversed sequence of inverted elements,
// with nesting preserved. Leaves with an unknown op invert to themselves.
func Inverse(d Delta) Delta {
	if d.IsBatch() {
		out := make([]Delta, len(d.Batch))
		for i, e := range d.Batch {
			out[len(d.Batch)-1-i] = Inverse(e)
		}
		return Delta{Batch: out}
	}

	inv := d.Clone()
	switch d.Op {
	case OpNewNode:
		inv.Op = OpDelNode
	case OpDelNode:
		inv.Op = OpNewNode
	case OpConnect:
		inv.Op = OpDisconnect
	case OpDisconnect:
		inv.Op = OpConnect
	case OpRepath:
		slices.Reverse(inv.Paths)
	case OpPropChange:
		inv.From, inv.To = inv.To, inv.From
	}
	return inv
}
