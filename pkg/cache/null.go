package cache

import (
	"context"
	"time"
)

// NullCache discards everything written to it. [Open] returns one for
// backend = "none", and the CLI uses one for --no-cache runs or when no
// cache directory can be resolved.
//
// Feedback and render results are recomputed on every call, and a snapshot
// saved through a NullCache cannot be loaded back.
type NullCache struct{}

// NewNullCache returns a cache that never hits.
func NewNullCache() Cache { return &NullCache{} }

// Get reports a miss for every key.
func (*NullCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

// Set drops data.
func (*NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }

// Delete succeeds whether or not key was ever set.
func (*NullCache) Delete(context.Context, string) error { return nil }

// Close releases nothing.
func (*NullCache) Close() error { return nil }

var _ Cache = (*NullCache)(nil)
