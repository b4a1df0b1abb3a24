// Package httputil provides HTTP utilities for the Nexus client.
//
// # Overview
//
// This package provides infrastructure used by the page and API clients:
//
//   - [Cache]: File-based HTTP response caching
//   - [Retry]: Automatic retry with exponential backoff
//
// # Caching
//
// [Cache] stores HTTP responses in the filesystem (~/.cache/prereq/)
// with configurable TTL. Mod pages and file lists change rarely, so
// caching dramatically speeds up repeated resolution sessions and keeps
// the tool inside the Nexus API request budget.
//
// Usage:
//
//	cache, err := httputil.NewCache("", 24*time.Hour)
//	var page string
//	if ok, _ := cache.Get("page:skyrimspecialedition:3863", &page); !ok {
//	    page = fetchModPage()
//	    cache.Set("page:skyrimspecialedition:3863", page)
//	}
//
// Cache keys should be namespaced (page:, mod:, files:) to avoid
// collisions. Use [Cache.Namespace] to apply a prefix transparently.
//
// # Retry
//
// [Retry] wraps operations with automatic retry for transient failures:
// network errors and 5xx server responses. Only errors wrapped in
// [RetryableError] are retried; 404s and malformed pages fail fast.
//
// # Configuration
//
// Default settings are suitable for most use cases:
//
//   - Cache directory: ~/.cache/prereq/
//   - Default TTL: 24 hours
//   - Max retries: 3
//   - Base backoff: 1 second
//
// The cache can be cleared via `prereq cache clear` or by deleting the
// cache directory.
package httputil
