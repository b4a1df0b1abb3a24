package host

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/sacredwitness/prereq/pkg/exclusion"
	"github.com/sacredwitness/prereq/pkg/graph"
	"github.com/sacredwitness/prereq/pkg/queue"
)

func startWatcher(t *testing.T, w *Watcher) (<-chan Arrival, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	arrivals := make(chan Arrival, 8)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx, func(a Arrival) { arrivals <- a })
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	// Give the watcher a moment to register before the test writes files.
	time.Sleep(100 * time.Millisecond)
	return arrivals, cancel
}

func TestWatcherReportsArrival(t *testing.T) {
	dir := t.TempDir()
	downloads, err := NewDownloads(dir)
	if err != nil {
		t.Fatalf("NewDownloads: %v", err)
	}

	w := NewWatcher(downloads, nil, t.Logf)
	arrivals, _ := startWatcher(t, w)

	archive := filepath.Join(dir, "SkyUI_5_2_SE-12604-5-2SE.7z")
	touch(t, archive)
	if err := WriteMeta(archive, Meta{Game: "skyrimspecialedition", ModID: 12604, FileID: 35407}); err != nil {
		t.Fatalf("WriteMeta: %v", err)
	}

	select {
	case a := <-arrivals:
		if a.Meta.ModID != 12604 || a.Meta.FileID != 35407 {
			t.Errorf("arrival meta = %+v", a.Meta)
		}
		if a.Class() != graph.ClassID("nexus:12604/35407") {
			t.Errorf("Class() = %s", a.Class())
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no arrival reported")
	}

	if !downloads.Downloaded(12604, 35407) {
		t.Error("arrival should update the ownership index")
	}
}

func TestWatcherSuppressesSelfQueued(t *testing.T) {
	dir := t.TempDir()
	downloads, err := NewDownloads(dir)
	if err != nil {
		t.Fatalf("NewDownloads: %v", err)
	}

	tracker := exclusion.NewTracker()
	tracker.Add(graph.ClassID("nexus:12604/35407"))

	w := NewWatcher(downloads, tracker, t.Logf)
	arrivals, _ := startWatcher(t, w)

	// The self-queued file lands first and must not surface.
	self := filepath.Join(dir, "SkyUI_5_2_SE-12604-5-2SE.7z")
	touch(t, self)
	if err := WriteMeta(self, Meta{Game: "skyrimspecialedition", ModID: 12604, FileID: 35407}); err != nil {
		t.Fatalf("WriteMeta: %v", err)
	}

	// A user-initiated download follows and must surface.
	user := filepath.Join(dir, "New Mod-266-1-0.7z")
	touch(t, user)
	if err := WriteMeta(user, Meta{Game: "skyrimspecialedition", ModID: 266, FileID: 1}); err != nil {
		t.Fatalf("WriteMeta: %v", err)
	}

	select {
	case a := <-arrivals:
		if a.Meta.ModID != 266 {
			t.Errorf("arrival should be the user download, got mod %d", a.Meta.ModID)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("user download was never reported")
	}

	select {
	case a := <-arrivals:
		t.Errorf("self-queued download surfaced: %+v", a)
	case <-time.After(200 * time.Millisecond):
	}

	// Suppressed or not, the archive counts as owned.
	if !downloads.Downloaded(12604, 35407) {
		t.Error("suppressed arrival should still update the ownership index")
	}
}

// landingDispatcher mimics the real dispatcher's observable effects: the
// archive and its companion land in the directory and the ownership index
// is updated before the item settles.
type landingDispatcher struct {
	t         *testing.T
	downloads *Downloads
	game      string
}

func (d *landingDispatcher) Dispatch(_ context.Context, item queue.Item) error {
	archive := filepath.Join(d.downloads.Dir(), fmt.Sprintf("Queued-%d-%d-1.7z", item.ModID, item.FileID))
	touch(d.t, archive)
	if err := WriteMeta(archive, Meta{Game: d.game, ModID: item.ModID, FileID: item.FileID}); err != nil {
		return err
	}
	d.downloads.Record(item.ModID, item.FileID)
	return nil
}

func TestWatcherIgnoresQueueLandings(t *testing.T) {
	dir := t.TempDir()
	downloads, err := NewDownloads(dir)
	if err != nil {
		t.Fatalf("NewDownloads: %v", err)
	}

	tracker := exclusion.NewTracker()
	w := NewWatcher(downloads, tracker, t.Logf)
	arrivals, _ := startWatcher(t, w)

	// The queue lands a file through the same tracker the watcher uses.
	// Whether the watcher processes the landing while the item is still in
	// flight or only after the batch drained, it must stay silent.
	m := queue.NewManager(&landingDispatcher{t: t, downloads: downloads, game: "skyrimspecialedition"}, tracker)
	b, err := m.Enqueue(context.Background(), []queue.Item{
		{ModID: 500, FileID: 5, Class: graph.FileClass(500, 5), Name: "queued"},
	})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if _, err := b.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if tracker.Len() != 0 {
		t.Errorf("tracker has %d entries after drain, want 0", tracker.Len())
	}

	// A hand download after the batch drained still surfaces.
	user := filepath.Join(dir, "Hand Mod-266-1-0.7z")
	touch(t, user)
	if err := WriteMeta(user, Meta{Game: "skyrimspecialedition", ModID: 266, FileID: 1}); err != nil {
		t.Fatalf("WriteMeta: %v", err)
	}

	select {
	case a := <-arrivals:
		if a.Meta.ModID != 266 {
			t.Errorf("arrival should be the hand download, got mod %d", a.Meta.ModID)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("hand download was never reported")
	}

	select {
	case a := <-arrivals:
		t.Errorf("queue landing surfaced: %+v", a)
	case <-time.After(200 * time.Millisecond):
	}

	if !downloads.Downloaded(500, 5) {
		t.Error("queue landing should count as owned")
	}
}
