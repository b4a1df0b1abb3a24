// Package exclusion tracks the downloads this tool has requested itself.
//
// The host fires the same archive-downloaded event for every finished
// download, including the ones the download queue started. Without a guard
// each of those would spawn a fresh resolution session, which would queue
// more downloads, recursively. The [Tracker] is that guard: the queue
// registers an item before dispatching it, and the resolver refuses to
// expand anything the tracker holds.
//
// A Tracker is an explicitly owned, session-scoped object — constructed
// once and passed by reference to the resolver and the queue manager, never
// an implicit global — so tests can build isolated instances. Resolution
// sessions and queue drains overlap in time, so all access is safe under
// concurrent read and insert.
package exclusion

import (
	"slices"
	"sync"

	"github.com/sacredwitness/prereq/pkg/graph"
)

// Tracker is a concurrency-safe set of dedup classes the tool has
// requested for download.
type Tracker struct {
	mu   sync.RWMutex
	keys map[graph.ClassID]struct{}
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{keys: make(map[graph.ClassID]struct{})}
}

// Add registers a class as self-originated. Must be called before the
// download request is issued, so the host's resulting events are already
// recognized when they arrive.
func (t *Tracker) Add(c graph.ClassID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.keys[c] = struct{}{}
}

// Contains reports whether the class was registered by this tool.
func (t *Tracker) Contains(c graph.ClassID) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.keys[c]
	return ok
}

// Discard removes a class. Entries normally stay valid for the lifetime of
// the session so late host events still resolve correctly; Discard exists
// for tests and for explicit user retries.
func (t *Tracker) Discard(c graph.ClassID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.keys, c)
}

// Len returns the number of tracked classes.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.keys)
}

// Keys returns the tracked classes, sorted. Primarily a test aid.
func (t *Tracker) Keys() []graph.ClassID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]graph.ClassID, 0, len(t.keys))
	for k := range t.keys {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
