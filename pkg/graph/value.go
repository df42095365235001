package graph

import (
	"maps"
	"math"
	"slices"
)

// Props stores the keyed property values of a node: positions, kinds,
// parameter values and anything else a delta carries. Values are kept in
// their JSON shapes (float64, string, bool, nil, []any, map[string]any);
// [Normalize] converts Go-native values into those shapes on the way in.
type Props map[string]any

// Reserved delta keys that never become node properties.
const (
	KeyOp    = "op"
	KeyPath  = "path"
	KeyPaths = "paths"
)

// KeyKind is the property that marks a node's role; see [KindOutlet].
const KeyKind = "kind"

// KindOutlet marks a leaf node as a signal-producing port.
const KindOutlet = "outlet"

// Comparison selects how property values are compared when a delta states
// the value it expects to find.
type Comparison int

const (
	// CompareExact compares scalars by equality and structures deeply.
	CompareExact Comparison = iota
	// CompareApprox treats numbers within 0.1% of each other, or both near
	// zero, as unchanged. Arrays and maps compare element-wise.
	CompareApprox
)

// String returns the configuration name of the comparison mode.
func (c Comparison) String() string {
	if c == CompareApprox {
		return "approx"
	}
	return "exact"
}

// ParseComparison maps "exact" or "approx" to a Comparison.
func ParseComparison(s string) (Comparison, bool) {
	switch s {
	case "", "exact":
		return CompareExact, true
	case "approx":
		return CompareApprox, true
	}
	return CompareExact, false
}

// nearZero and relTolerance are the thresholds of approximate equality.
const (
	nearZero     = 0.001
	relTolerance = 0.001
)

// Normalize converts a Go value into the JSON-shaped form stored in Props.
// Integers and float32 become float64, typed slices become []any, and
// typed maps become map[string]any. Unknown types are returned unchanged.
func Normalize(v any) any {
	switch x := v.(type) {
	case float64, string, bool, nil:
		return x
	case int:
		return float64(x)
	case int8:
		return float64(x)
	case int16:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case uint:
		return float64(x)
	case uint8:
		return float64(x)
	case uint16:
		return float64(x)
	case uint32:
		return float64(x)
	case uint64:
		return float64(x)
	case float32:
		return float64(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = Normalize(e)
		}
		return out
	case []float64:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = e
		}
		return out
	case []int:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = float64(e)
		}
		return out
	case []string:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = e
		}
		return out
	case Props:
		return normalizeMap(x)
	case map[string]any:
		return normalizeMap(x)
	}
	return v
}

func normalizeMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, e := range m {
		out[k] = Normalize(e)
	}
	return out
}

// Clone returns a deep copy of a property value.
func Clone(v any) any {
	return Normalize(v)
}

// Equal reports whether two property values are structurally identical.
func Equal(a, b any) bool {
	return compare(Normalize(a), Normalize(b), false)
}

// ApproxEqual reports whether two property values are equal under the
// approximate comparison mode.
func ApproxEqual(a, b any) bool {
	return compare(Normalize(a), Normalize(b), true)
}

// Compare compares two property values using the given mode.
func Compare(mode Comparison, a, b any) bool {
	if mode == CompareApprox {
		return ApproxEqual(a, b)
	}
	return Equal(a, b)
}

func compare(a, b any, approx bool) bool {
	switch x := a.(type) {
	case float64:
		y, ok := b.(float64)
		if !ok {
			return false
		}
		if approx {
			return approxNumber(x, y)
		}
		return x == y
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !compare(x[i], y[i], approx) {
				return false
			}
		}
		return true
	case map[string]any:
		y, ok := b.(map[string]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for k, xv := range x {
			yv, ok := y[k]
			if !ok || !compare(xv, yv, approx) {
				return false
			}
		}
		return true
	case string, bool, nil:
		return a == b
	}
	return false
}

func approxNumber(x, y float64) bool {
	ax, ay := math.Abs(x), math.Abs(y)
	if ax < nearZero && ay < nearZero {
		return true
	}
	return math.Abs(x-y)/math.Max(ax, ay) < relTolerance
}

// Clone returns a deep copy of p. A nil Props clones to an empty map.
func (p Props) Clone() Props {
	out := make(Props, len(p))
	for k, v := range p {
		out[k] = Clone(v)
	}
	return out
}

// Equal reports whether p and q hold identical keys and values.
func (p Props) Equal(q Props) bool {
	if len(p) != len(q) {
		return false
	}
	for k, v := range p {
		w, ok := q[k]
		if !ok || !Equal(v, w) {
			return false
		}
	}
	return true
}

// Keys returns the property names in sorted order.
func (p Props) Keys() []string {
	return slices.Sorted(maps.Keys(p))
}

// CopyProperties deep-copies every entry of src except the reserved delta
// keys (op, path, paths) into dst and returns dst. A nil dst is allocated.
func CopyProperties(src, dst Props) Props {
	if dst == nil {
		dst = make(Props, len(src))
	}
	for k, v := range src {
		if k == KeyOp || k == KeyPath || k == KeyPaths {
			continue
		}
		dst[k] = Clone(v)
	}
	return dst
}
