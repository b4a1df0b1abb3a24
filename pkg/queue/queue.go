// Package queue drives approved downloads to completion.
//
// A batch is created from the selected items of a resolution session. Every
// item's file class — and the class of the mod it belongs to — is registered
// with the exclusion tracker before the first transfer starts, so a watcher
// seeing the finished archives land does not re-analyze work the queue
// created itself, and an overlapping resolution session skips the mod
// instead of re-offering its files. Items settle independently; the batch
// reaches a terminal state only after the last item has settled, and it is
// failed if any item failed.
package queue

import (
	"context"

	"github.com/google/uuid"

	"github.com/sacredwitness/prereq/pkg/errors"
	"github.com/sacredwitness/prereq/pkg/exclusion"
	"github.com/sacredwitness/prereq/pkg/graph"
)

// State is the lifecycle of a batch.
type State int

const (
	// StateIdle means the batch exists but no transfer has started.
	StateIdle State = iota
	// StateRunning means at least one item is still in flight.
	StateRunning
	// StateCompleted means every item settled successfully.
	StateCompleted
	// StateFailed means all items settled and at least one failed.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Terminal reports whether the state is final.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Item is one approved download.
type Item struct {
	ModID  int
	FileID int
	Class  graph.ClassID
	Name   string
	SizeKB int64
}

// Progress is a point-in-time snapshot of a batch.
type Progress struct {
	State     State
	Total     int
	Completed int
	Failed    int
}

// Settled reports how many items have reached a per-item terminal state.
func (p Progress) Settled() int { return p.Completed + p.Failed }

// Event is delivered to batch observers each time an item settles.
type Event struct {
	Item     Item
	Err      error // nil when the item completed
	Progress Progress
}

// Dispatcher performs the transfer for one queue item.
type Dispatcher interface {
	Dispatch(ctx context.Context, item Item) error
}

// Manager creates batches of downloads against a Dispatcher.
type Manager struct {
	dispatcher Dispatcher
	tracker    *exclusion.Tracker
}

// NewManager creates a Manager. The tracker may be nil when no watcher is
// running and self-exclusion is moot.
func NewManager(d Dispatcher, tracker *exclusion.Tracker) *Manager {
	return &Manager{dispatcher: d, tracker: tracker}
}

// Enqueue starts a batch for the given items and returns its handle.
//
// All item classes are registered with the exclusion tracker before any
// transfer is dispatched, the mod class of every item alongside its file
// class. A file class is discarded when its item settles; a mod class when
// the last item of that mod settles. Enqueue itself does not block on the
// transfers.
func (m *Manager) Enqueue(ctx context.Context, items []Item) (*Batch, error) {
	if len(items) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "nothing selected for download")
	}
	for _, it := range items {
		if err := errors.ValidateModID(it.ModID); err != nil {
			return nil, err
		}
	}

	b := newBatch(uuid.New(), items)

	if m.tracker != nil {
		for _, it := range items {
			m.tracker.Add(it.Class)
			m.tracker.Add(graph.ModClass(int64(it.ModID)))
		}
	}

	b.start(ctx, m.dispatcher, m.tracker)
	return b, nil
}
