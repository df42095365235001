package graph

import (
	"strconv"
	"strings"
)

// FormatValue renders a property value compactly: numbers in shortest
// form, strings quoted, arrays as [a,b], maps as {k=v}.
func FormatValue(v any) string {
	switch x := Normalize(v).(type) {
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case string:
		return strconv.Quote(x)
	case bool:
		return strconv.FormatBool(x)
	case nil:
		return "null"
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = FormatValue(e)
		}
		return "[" + strings.Join(parts, ",") + "]"
	case map[string]any:
		p := Props(x)
		parts := make([]string, 0, len(p))
		for _, k := range p.Keys() {
			parts = append(parts, k+"="+FormatValue(p[k]))
		}
		return "{" + strings.Join(parts, ",") + "}"
	default:
		return "?"
	}
}

// String renders props as "k=v, ..." with keys sorted.
func (p Props) String() string {
	parts := make([]string, 0, len(p))
	for _, k := range p.Keys() {
		parts = append(parts, k+"="+FormatValue(p[k]))
	}
	return strings.Join(parts, ", ")
}

// String renders the node tree, one indented line per node, followed by
// one "src -> dst" line per arc.
func (g *Graph) String() string {
	var b strings.Builder
	g.Walk(func(h Handle, depth int) bool {
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString(g.slots[h].name)
		if len(g.slots[h].props) > 0 {
			b.WriteString(" [")
			b.WriteString(g.slots[h].props.String())
			b.WriteString("]")
		}
		b.WriteByte('\n')
		return true
	})
	for _, a := range g.arcs {
		b.WriteString(a.Src)
		b.WriteString(" -> ")
		b.WriteString(a.Dst)
		b.WriteByte('\n')
	}
	return b.String()
}
