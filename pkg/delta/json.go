package delta

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/worldmaking/gotlib/pkg/graph"
)

// Record keys specific to property changes.
const (
	keyName = "name"
	keyFrom = "from"
	keyTo   = "to"
)

// MarshalJSON encodes a leaf as a flat record and a batch as an array.
// Keys are written in a stable order: op, path, paths, name, from, to, then
// properties sorted by name.
func (d Delta) MarshalJSON() ([]byte, error) {
	if d.IsBatch() {
		return json.Marshal(d.Batch)
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	field := func(k string, v any) error {
		data, err := json.Marshal(graph.Normalize(v))
		if err != nil {
			return fmt.Errorf("encode %s: %w", k, err)
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		key, _ := json.Marshal(k)
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(data)
		return nil
	}

	if err := field(graph.KeyOp, string(d.Op)); err != nil {
		return nil, err
	}
	if d.Path != "" {
		if err := field(graph.KeyPath, d.Path); err != nil {
			return nil, err
		}
	}
	if d.Paths != nil {
		if err := field(graph.KeyPaths, d.Paths); err != nil {
			return nil, err
		}
	}
	if d.Op == OpPropChange {
		if err := field(keyName, d.Name); err != nil {
			return nil, err
		}
		if d.From != nil {
			if err := field(keyFrom, d.From); err != nil {
				return nil, err
			}
		}
		if d.To != nil {
			if err := field(keyTo, d.To); err != nil {
				return nil, err
			}
		}
	}
	for _, k := range d.Props.Keys() {
		if reservedKey(d.Op, k) {
			continue
		}
		if err := field(k, d.Props[k]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes either a record or an array of records.
func (d *Delta) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var batch []Delta
		if err := json.Unmarshal(data, &batch); err != nil {
			return err
		}
		*d = Seq(batch...)
		return nil
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := Delta{}
	if v, ok := raw[graph.KeyOp]; ok {
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("decode delta: op must be a string, got %T", v)
		}
		out.Op = Op(s)
	}
	if v, ok := raw[graph.KeyPath]; ok && v != nil {
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("decode delta: path must be a string, got %T", v)
		}
		out.Path = s
	}
	if v, ok := raw[graph.KeyPaths]; ok && v != nil {
		arr, ok := v.([]any)
		if !ok {
			return fmt.Errorf("decode delta: paths must be an array, got %T", v)
		}
		out.Paths = make([]string, len(arr))
		for i, p := range arr {
			s, ok := p.(string)
			if !ok {
				return fmt.Errorf("decode delta: paths[%d] must be a string, got %T", i, p)
			}
			out.Paths[i] = s
		}
	}
	if out.Op == OpPropChange {
		if v, ok := raw[keyName].(string); ok {
			out.Name = v
		}
		out.From = raw[keyFrom]
		out.To = raw[keyTo]
	}
	for k, v := range raw {
		if reservedKey(out.Op, k) {
			continue
		}
		if out.Props == nil {
			out.Props = graph.Props{}
		}
		out.Props[k] = v
	}
	*d = out
	return nil
}

func reservedKey(op Op, k string) bool {
	switch k {
	case graph.KeyOp, graph.KeyPath, graph.KeyPaths:
		return true
	case keyName, keyFrom, keyTo:
		return op == OpPropChange
	}
	return false
}
