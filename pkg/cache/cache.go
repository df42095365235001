// Package cache stores graph snapshots and derived artifacts as opaque
// bytes under string keys.
//
// Backends:
//
//   - [FileCache]: one JSON envelope per key under a local directory (CLI default)
//   - [RedisCache]: a Redis server, TTL handled by Redis
//   - [MongoCache]: a MongoDB collection with a TTL index
//   - [NullCache]: stores nothing
//
// Keys are built by a [Keyer] so every backend shares one key scheme:
//
//	snapshot:<name>            named session snapshots
//	graph:<sha256>             snapshots by content hash
//	feedback:<sha256(opts)>    feedback search results for a graph hash
//	render:<sha256(opts)>      rendered artifacts for a graph hash
package cache

import (
	"context"
	"strings"
	"time"
)

// Cache is a byte store with optional expiry. A miss is reported as
// (nil, false, nil); errors are reserved for backend failures.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	Close() error
}

// Keyer builds cache keys.
type Keyer interface {
	SnapshotKey(name string) string
	GraphKey(graphHash string) string
	FeedbackKey(graphHash string, opts FeedbackKeyOpts) string
	RenderKey(graphHash string, opts RenderKeyOpts) string
}

// FeedbackKeyOpts are the search options that change a feedback result.
type FeedbackKeyOpts struct {
	MaxPaths int `json:"max_paths"`
}

// RenderKeyOpts are the render options that change an artifact.
type RenderKeyOpts struct {
	Format   string `json:"format"`
	Detailed bool   `json:"detailed"`
}

// DefaultKeyer implements the key scheme documented on the package.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// SnapshotKey returns the key of a named snapshot.
func (DefaultKeyer) SnapshotKey(name string) string {
	return "snapshot:" + name
}

// GraphKey returns the key of a snapshot addressed by content hash.
func (DefaultKeyer) GraphKey(graphHash string) string {
	return "graph:" + graphHash
}

// FeedbackKey returns the key of a feedback search result.
func (DefaultKeyer) FeedbackKey(graphHash string, opts FeedbackKeyOpts) string {
	return hashKey("feedback", graphHash, opts)
}

// RenderKey returns the key of a rendered artifact.
func (DefaultKeyer) RenderKey(graphHash string, opts RenderKeyOpts) string {
	return hashKey("render", graphHash, opts)
}

// KeyType returns the key's scheme prefix ("snapshot", "graph", ...), used
// as a metrics label.
func KeyType(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return "other"
}
