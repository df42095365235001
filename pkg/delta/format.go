package delta

import (
	"strings"

	"github.com/worldmaking/gotlib/pkg/graph"
)

// String renders d one leaf per line as "op (path) k=v, ...". Leaves of
// nested batches are indented two spaces per extra level of nesting.
func (d Delta) String() string {
	var b strings.Builder
	d.format(&b, 0)
	return strings.TrimSuffix(b.String(), "\n")
}

func (d Delta) format(b *strings.Builder, depth int) {
	if d.IsBatch() {
		for _, e := range d.Batch {
			e.format(b, depth+1)
		}
		return
	}
	if depth > 1 {
		b.WriteString(strings.Repeat("  ", depth-1))
	}
	b.WriteString(d.leafString())
	b.WriteByte('\n')
}

func (d Delta) leafString() string {
	path := d.Path
	if path == "" && d.Paths != nil {
		path = strings.Join(d.Paths, ", ")
	}

	var args []string
	if d.Op == OpPropChange {
		args = append(args,
			"name="+graph.FormatValue(d.Name),
			"from="+graph.FormatValue(d.From),
			"to="+graph.FormatValue(d.To))
	}
	for _, k := range d.Props.Keys() {
		if reservedKey(d.Op, k) {
			continue
		}
		args = append(args, k+"="+graph.FormatValue(d.Props[k]))
	}

	s := string(d.Op) + " (" + path + ")"
	if len(args) > 0 {
		s += " " + strings.Join(args, ", ")
	}
	return s
}
