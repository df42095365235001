package io

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/worldmaking/gotlib/pkg/graph"
)

// WriteJSON encodes g as an indented tree snapshot and writes it to w.
// Children are written in insertion order, so the output can be re-imported
// with [ReadJSON] into an equal graph.
func WriteJSON(g *graph.Graph, w io.Writer) error {
	var buf bytes.Buffer
	buf.WriteString(`{"nodes":`)
	if err := writeNode(&buf, g, graph.Root); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	buf.WriteString(`,"arcs":[`)
	for i, a := range g.Arcs() {
		if i > 0 {
			buf.WriteByte(',')
		}
		pair, err := json.Marshal([2]string{a.Src, a.Dst})
		if err != nil {
			return fmt.Errorf("encode arc %s->%s: %w", a.Src, a.Dst, err)
		}
		buf.Write(pair)
	}
	buf.WriteString("]}")

	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", "  "); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	out.WriteByte('\n')
	_, err := out.WriteTo(w)
	return err
}

// ExportJSON writes g as a tree snapshot file at path.
func ExportJSON(g *graph.Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(g, f)
}

func writeNode(buf *bytes.Buffer, g *graph.Graph, h graph.Handle) error {
	buf.WriteByte('{')
	first := true
	if h != graph.Root {
		if props := g.Props(h); len(props) > 0 {
			data, err := json.Marshal(props)
			if err != nil {
				return fmt.Errorf("%s: %w", g.PathOf(h), err)
			}
			buf.WriteString(`"` + propsKey + `":`)
			buf.Write(data)
			first = false
		}
	}
	for _, c := range g.Children(h) {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		name, err := json.Marshal(g.Name(c))
		if err != nil {
			return err
		}
		buf.Write(name)
		buf.WriteByte(':')
		if err := writeNode(buf, g, c); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}
