package queue

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sacredwitness/prereq/pkg/exclusion"
	"github.com/sacredwitness/prereq/pkg/graph"
	"github.com/sacredwitness/prereq/pkg/observability"
)

type settled struct {
	item Item
	err  error
}

// Batch is the handle for one round of dispatched downloads.
//
// All methods are safe for concurrent use.
type Batch struct {
	id    uuid.UUID
	items []Item

	mu        sync.Mutex
	state     State
	completed int
	failed    int
	observers map[int]chan Event
	nextObs   int

	results chan settled
	done    chan struct{}

	// modRefs counts unsettled items per mod class, so the mod class stays
	// registered with the tracker until the mod's last file settles. Only
	// the aggregator touches it after construction.
	modRefs map[graph.ClassID]int
}

func newBatch(id uuid.UUID, items []Item) *Batch {
	b := &Batch{
		id:        id,
		items:     items,
		state:     StateIdle,
		observers: make(map[int]chan Event),
		results:   make(chan settled, len(items)),
		done:      make(chan struct{}),
		modRefs:   make(map[graph.ClassID]int),
	}
	for _, it := range items {
		b.modRefs[graph.ModClass(int64(it.ModID))]++
	}
	return b
}

// ID returns the batch identifier.
func (b *Batch) ID() uuid.UUID { return b.id }

// Items returns the items the batch was created with.
func (b *Batch) Items() []Item {
	out := make([]Item, len(b.items))
	copy(out, b.items)
	return out
}

// start dispatches every item and runs the aggregator. Item goroutines only
// transfer and report; all state transitions happen on the aggregator.
func (b *Batch) start(ctx context.Context, d Dispatcher, tracker *exclusion.Tracker) {
	b.mu.Lock()
	b.state = StateRunning
	b.mu.Unlock()

	start := time.Now()
	for _, it := range b.items {
		go func(it Item) {
			observability.Queue().OnItemDispatched(ctx, string(it.Class))
			b.results <- settled{item: it, err: d.Dispatch(ctx, it)}
		}(it)
	}

	go b.aggregate(ctx, tracker, start)
}

func (b *Batch) aggregate(ctx context.Context, tracker *exclusion.Tracker, start time.Time) {
	for range b.items {
		s := <-b.results

		if tracker != nil {
			tracker.Discard(s.item.Class)
			mc := graph.ModClass(int64(s.item.ModID))
			if b.modRefs[mc]--; b.modRefs[mc] == 0 {
				tracker.Discard(mc)
			}
		}
		observability.Queue().OnItemSettled(ctx, string(s.item.Class), s.err)

		b.mu.Lock()
		if s.err != nil {
			b.failed++
		} else {
			b.completed++
		}
		ev := Event{Item: s.item, Err: s.err, Progress: b.progressLocked()}
		b.notifyLocked(ev)
		b.mu.Unlock()
	}

	b.mu.Lock()
	if b.failed > 0 {
		b.state = StateFailed
	} else {
		b.state = StateCompleted
	}
	completed, failed := b.completed, b.failed
	for _, ch := range b.observers {
		close(ch)
	}
	b.observers = make(map[int]chan Event)
	b.mu.Unlock()

	observability.Queue().OnQueueDrained(ctx, completed, failed, time.Since(start))
	close(b.done)
}

func (b *Batch) progressLocked() Progress {
	return Progress{
		State:     b.state,
		Total:     len(b.items),
		Completed: b.completed,
		Failed:    b.failed,
	}
}

func (b *Batch) notifyLocked(ev Event) {
	for _, ch := range b.observers {
		// Observer channels are sized for the whole batch, so this
		// never blocks the aggregator.
		select {
		case ch <- ev:
		default:
		}
	}
}

// State returns the batch's current lifecycle state.
func (b *Batch) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Progress returns a snapshot of the batch.
func (b *Batch) Progress() Progress {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.progressLocked()
}

// Subscribe registers an observer for settle events. The returned channel
// is closed when the batch reaches a terminal state. The cancel function
// detaches the observer early; it is safe to call more than once.
func (b *Batch) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, len(b.items))
	if b.state.Terminal() {
		close(ch)
		return ch, func() {}
	}

	id := b.nextObs
	b.nextObs++
	b.observers[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if obs, ok := b.observers[id]; ok {
			delete(b.observers, id)
			close(obs)
		}
	}
	return ch, cancel
}

// Wait blocks until the batch reaches a terminal state or the context is
// cancelled. In-flight transfers are not aborted by a cancelled Wait; they
// keep settling in the background.
func (b *Batch) Wait(ctx context.Context) (Progress, error) {
	select {
	case <-b.done:
		return b.Progress(), nil
	case <-ctx.Done():
		return b.Progress(), ctx.Err()
	}
}
