package host

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/sacredwitness/prereq/pkg/exclusion"
	"github.com/sacredwitness/prereq/pkg/graph"
)

// Arrival is a completed download observed in the downloads directory.
type Arrival struct {
	Archive string // absolute archive path
	Meta    Meta   // origin from the .meta companion
}

// Class returns the dedup class of the arrived file.
func (a Arrival) Class() graph.ClassID {
	return graph.ClassID(fmt.Sprintf("nexus:%d/%d", a.Meta.ModID, a.Meta.FileID))
}

// Watcher observes the downloads directory and reports finished downloads.
//
// A download counts as finished when its .meta companion appears: the mod
// manager writes the companion after the archive itself, and so does the
// dispatcher. Arrivals whose class is registered with the exclusion tracker,
// or whose file the ownership index already knows, are suppressed, so the
// queue's own work never triggers a new resolution session. The dispatcher
// records a file before its item settles, so a self-queued arrival stays
// suppressed even when the event is processed after the batch discarded the
// class.
type Watcher struct {
	downloads *Downloads
	tracker   *exclusion.Tracker
	logger    func(string, ...any)
}

// NewWatcher creates a Watcher. The tracker may be nil, in which case no
// arrival is suppressed. The logger is optional.
func NewWatcher(downloads *Downloads, tracker *exclusion.Tracker, logger func(string, ...any)) *Watcher {
	if logger == nil {
		logger = func(string, ...any) {}
	}
	return &Watcher{downloads: downloads, tracker: tracker, logger: logger}
}

// Run watches until the context is cancelled, invoking onArrival for every
// new non-suppressed download. Callbacks run on the watch goroutine; slow
// handlers should hand off.
func (w *Watcher) Run(ctx context.Context, onArrival func(Arrival)) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.Add(w.downloads.Dir()); err != nil {
		return err
	}

	// The companion is created empty and then filled, so the same archive
	// surfaces through several events. First successful read wins.
	seen := make(map[string]bool)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if filepath.Ext(ev.Name) != ".meta" {
				continue
			}

			archive := strings.TrimSuffix(ev.Name, ".meta")
			if seen[archive] {
				continue
			}
			meta, err := ReadMeta(archive)
			if err != nil || meta == nil {
				continue
			}
			seen[archive] = true

			a := Arrival{Archive: archive, Meta: *meta}
			known := w.downloads.Downloaded(meta.ModID, meta.FileID)
			w.downloads.Record(meta.ModID, meta.FileID)

			if known || (w.tracker != nil && w.tracker.Contains(a.Class())) {
				w.logger("suppressed self-queued arrival: %s", filepath.Base(archive))
				continue
			}
			w.logger("new download: %s (mod %d file %d)", filepath.Base(archive), meta.ModID, meta.FileID)
			onArrival(a)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger("watch error: %v", err)
		}
	}
}
