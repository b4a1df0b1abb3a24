// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard
// dependencies on specific observability backends. Consumers can register
// hooks at startup to receive events about resolution sessions, cache
// operations, and HTTP calls against the Nexus site and API.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach:
//   - Avoids import cycles (hooks are registered by main, not by libraries)
//   - Keeps the core library dependency-free from observability frameworks
//   - Allows different backends to be plugged in later
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetResolveHooks(&myResolveHooks{})
//	    observability.SetHTTPHooks(&myHTTPHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Resolve().OnNodeExpanded(ctx, key, depth)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Resolve Hooks
// =============================================================================

// ResolveHooks receives events from resolution sessions.
type ResolveHooks interface {
	// OnSessionStart records the beginning of a resolution session for a root mod.
	OnSessionStart(ctx context.Context, game string, rootMod int64)

	// OnNodeExpanded records that a node's requirements were fetched and parsed.
	OnNodeExpanded(ctx context.Context, key string, depth int)

	// OnNodeDegraded records a node that failed to expand and was kept with
	// an attached diagnostic instead of aborting the session.
	OnNodeDegraded(ctx context.Context, key string, err error)

	// OnSessionComplete records the end of a session with the final node count.
	OnSessionComplete(ctx context.Context, game string, rootMod int64, nodeCount int, duration time.Duration, err error)
}

// =============================================================================
// Queue Hooks
// =============================================================================

// QueueHooks receives events from the download queue.
type QueueHooks interface {
	// OnItemDispatched records a download request issued to the host.
	OnItemDispatched(ctx context.Context, key string)

	// OnItemSettled records a queue item reaching a terminal per-item state.
	OnItemSettled(ctx context.Context, key string, err error)

	// OnQueueDrained records the queue reaching its terminal state.
	OnQueueDrained(ctx context.Context, completed, failed int, duration time.Duration)
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
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from HTTP client operations.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, timeout).
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopResolveHooks is a no-op implementation of ResolveHooks.
type NoopResolveHooks struct{}

func (NoopResolveHooks) OnSessionStart(context.Context, string, int64) {}
func (NoopResolveHooks) OnNodeExpanded(context.Context, string, int)   {}
func (NoopResolveHooks) OnNodeDegraded(context.Context, string, error) {}
func (NoopResolveHooks) OnSessionComplete(context.Context, string, int64, int, time.Duration, error) {
}

// NoopQueueHooks is a no-op implementation of QueueHooks.
type NoopQueueHooks struct{}

func (NoopQueueHooks) OnItemDispatched(context.Context, string)                {}
func (NoopQueueHooks) OnItemSettled(context.Context, string, error)            {}
func (NoopQueueHooks) OnQueueDrained(context.Context, int, int, time.Duration) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	resolveHooks ResolveHooks = NoopResolveHooks{}
	queueHooks   QueueHooks   = NoopQueueHooks{}
	cacheHooks   CacheHooks   = NoopCacheHooks{}
	httpHooks    HTTPHooks    = NoopHTTPHooks{}
	hooksMu      sync.RWMutex
)

// SetResolveHooks registers custom resolve hooks.
// This should be called once at application startup before any resolution.
func SetResolveHooks(h ResolveHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		resolveHooks = h
	}
}

// SetQueueHooks registers custom queue hooks.
// This should be called once at application startup before any downloads.
func SetQueueHooks(h QueueHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		queueHooks = h
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

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup before any HTTP operations.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Resolve returns the registered resolve hooks.
func Resolve() ResolveHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return resolveHooks
}

// Queue returns the registered queue hooks.
func Queue() QueueHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return queueHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	resolveHooks = NoopResolveHooks{}
	queueHooks = NoopQueueHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
