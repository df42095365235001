// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about delta application, rebasing, feedback search and
// snapshot cache operations.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// The Prometheus implementation lives in the prom subpackage, so only
// binaries that register it link the client library.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetEngineHooks(prom.NewEngineHooks(reg))
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Engine().OnApply(ctx, leaves, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Engine Hooks
// =============================================================================

// EngineHooks receives events from the apply and rebase engines.
type EngineHooks interface {
	// OnApply records one Apply call over a delta or batch. leaves counts the
	// leaf deltas that were attempted; err is a fatal structural failure.
	OnApply(ctx context.Context, leaves int, duration time.Duration, err error)

	// OnReject records a rejection report of the given kind
	// ("MalformedDelta" or "ConflictDelta").
	OnReject(ctx context.Context, kind string)

	// OnRepair records a duplicate connect or missing disconnect that was
	// resolved by re-applying the delta after its inverse.
	OnRepair(ctx context.Context, op string)

	// OnRebase records one rebase of a batch over another. dropped counts
	// leaves of B suppressed as duplicates of A.
	OnRebase(ctx context.Context, dropped int, err error)
}

// =============================================================================
// Feedback Hooks
// =============================================================================

// FeedbackHooks receives events from the cycle finder.
type FeedbackHooks interface {
	// OnSearch records one feedback search.
	OnSearch(ctx context.Context, outlets, paths int, duration time.Duration)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopEngineHooks is a no-op implementation of EngineHooks.
type NoopEngineHooks struct{}

func (NoopEngineHooks) OnApply(context.Context, int, time.Duration, error) {}
func (NoopEngineHooks) OnReject(context.Context, string)                   {}
func (NoopEngineHooks) OnRepair(context.Context, string)                   {}
func (NoopEngineHooks) OnRebase(context.Context, int, error)               {}

// NoopFeedbackHooks is a no-op implementation of FeedbackHooks.
type NoopFeedbackHooks struct{}

func (NoopFeedbackHooks) OnSearch(context.Context, int, int, time.Duration) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	engineHooks   EngineHooks   = NoopEngineHooks{}
	feedbackHooks FeedbackHooks = NoopFeedbackHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	hooksMu       sync.RWMutex
)

// SetEngineHooks registers custom engine hooks.
// This should be called once at application startup before any deltas are applied.
func SetEngineHooks(h EngineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		engineHooks = h
	}
}

// SetFeedbackHooks registers custom feedback hooks.
func SetFeedbackHooks(h FeedbackHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		feedbackHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Engine returns the registered engine hooks.
func Engine() EngineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return engineHooks
}

// Feedback returns the registered feedback hooks.
func Feedback() FeedbackHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return feedbackHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	engineHooks = NoopEngineHooks{}
	feedbackHooks = NoopFeedbackHooks{}
	cacheHooks = NoopCacheHooks{}
}
