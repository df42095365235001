package io

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/worldmaking/gotlib/pkg/errors"
	"github.com/worldmaking/gotlib/pkg/graph"
)

const propsKey = "_props"

// ReadJSON decodes a tree snapshot from r into a new graph.
//
// The input must be a JSON object with a "nodes" object and an optional
// "arcs" array of [src, dst] pairs. Unknown top-level keys are ignored.
//
// ReadJSON returns an error if:
//   - The JSON is malformed or has the wrong shape
//   - A node name is empty or contains a dot
//   - An arc is not a pair of distinct paths, or appears twice
//
// Errors are wrapped with the path or arc that caused them. ReadJSON does
// not close r.
func ReadJSON(r io.Reader) (*graph.Graph, error) {
	dec := json.NewDecoder(r)
	if err := expectDelim(dec, '{'); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	g := graph.New()
	for dec.More() {
		key, err := readKey(dec)
		if err != nil {
			return nil, fmt.Errorf("decode: %w", err)
		}
		switch key {
		case "nodes":
			if err := readChildren(dec, g, ""); err != nil {
				return nil, err
			}
		case "arcs":
			if err := readArcs(dec, g); err != nil {
				return nil, err
			}
		default:
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, fmt.Errorf("decode %s: %w", key, err)
			}
		}
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return g, nil
}

// ImportJSON reads a tree snapshot file at path.
func ImportJSON(path string) (*graph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}

// readChildren reads one node object whose path is parent (the root when
// empty). Its "_props" entry lands on parent; every other key is a child.
func readChildren(dec *json.Decoder, g *graph.Graph, parent string) error {
	if err := expectDelim(dec, '{'); err != nil {
		return fmt.Errorf("node %s: %w", display(parent), err)
	}
	for dec.More() {
		key, err := readKey(dec)
		if err != nil {
			return fmt.Errorf("node %s: %w", display(parent), err)
		}
		if key == propsKey && parent != "" {
			var props graph.Props
			if err := dec.Decode(&props); err != nil {
				return fmt.Errorf("node %s: props: %w", parent, err)
			}
			h, _ := g.Lookup(parent)
			g.MergeProps(h, props)
			continue
		}
		if err := errors.ValidateName(key); err != nil {
			return fmt.Errorf("node %s: %w", display(parent), err)
		}
		path := key
		if parent != "" {
			path = parent + "." + key
		}
		if _, err := g.MakePath(path); err != nil {
			return fmt.Errorf("node %s: %w", path, err)
		}
		if err := readChildren(dec, g, path); err != nil {
			return err
		}
	}
	if err := expectDelim(dec, '}'); err != nil {
		return fmt.Errorf("node %s: %w", display(parent), err)
	}
	return nil
}

func readArcs(dec *json.Decoder, g *graph.Graph) error {
	var pairs [][]string
	if err := dec.Decode(&pairs); err != nil {
		return fmt.Errorf("decode arcs: %w", err)
	}
	for i, p := range pairs {
		if len(p) != 2 || p[0] == "" || p[1] == "" || p[0] == p[1] {
			return fmt.Errorf("arc %d: want two distinct paths, got %q", i, p)
		}
		if g.HasArc(p[0], p[1]) {
			return fmt.Errorf("arc %s->%s: duplicate", p[0], p[1])
		}
		g.AddArc(graph.Arc{Src: p[0], Dst: p[1]})
	}
	return nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

func readKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected object key, got %v", tok)
	}
	return key, nil
}

func display(path string) string {
	if path == "" {
		return "<root>"
	}
	return path
}

// Format identifies the shape of a JSON document.
type Format int

const (
	FormatUnknown Format = iota
	FormatTree           // {"nodes": ..., "arcs": ...}
	FormatDeltas         // a delta batch or a single delta
)

// Sniff reports whether data holds a tree snapshot or deltas. An array is
// always a delta batch; an object is a single delta when it carries "op".
func Sniff(data []byte) Format {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return FormatUnknown
	}
	switch data[0] {
	case '[':
		return FormatDeltas
	case '{':
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(data, &probe); err != nil {
			return FormatUnknown
		}
		if _, ok := probe["op"]; ok {
			return FormatDeltas
		}
		if _, ok := probe["nodes"]; ok {
			return FormatTree
		}
	}
	return FormatUnknown
}
