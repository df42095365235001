package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/worldmaking/gotlib/pkg/delta"
)

// ReadDeltas decodes a delta or delta batch from r.
func ReadDeltas(r io.Reader) (delta.Delta, error) {
	var d delta.Delta
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return delta.Delta{}, fmt.Errorf("decode: %w", err)
	}
	return d, nil
}

// ImportDeltas reads a delta file at path.
func ImportDeltas(path string) (delta.Delta, error) {
	f, err := os.Open(path)
	if err != nil {
		return delta.Delta{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadDeltas(f)
}

// WriteDeltas encodes d as indented JSON and writes it to w.
func WriteDeltas(d delta.Delta, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportDeltas writes d to a JSON file at path.
func ExportDeltas(d delta.Delta, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteDeltas(d, f)
}
