package host

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"golang.org/x/sync/semaphore"

	"github.com/sacredwitness/prereq/pkg/errors"
	"github.com/sacredwitness/prereq/pkg/nexus"
	"github.com/sacredwitness/prereq/pkg/queue"
)

// DefaultSlots is the default number of concurrent transfers.
const DefaultSlots = 3

// LinkSource mints short-lived download links for a file.
// [nexus.Client] implements it.
type LinkSource interface {
	DownloadLinks(ctx context.Context, modID, fileID int) ([]nexus.DownloadLink, error)
}

// Dispatcher lands queue items in the downloads directory. It requests a
// fresh link per item, streams the archive to a temp file, renames it into
// place, and writes the .meta companion so the archive is recognized by
// the mod manager and by later ownership scans.
//
// A weighted semaphore caps concurrent transfers regardless of how many
// items a batch dispatches at once.
type Dispatcher struct {
	game      string
	links     LinkSource
	downloads *Downloads
	http      *http.Client
	slots     *semaphore.Weighted
}

// NewDispatcher creates a Dispatcher writing into downloads. slots limits
// concurrent transfers; values below one fall back to DefaultSlots.
func NewDispatcher(game string, links LinkSource, downloads *Downloads, slots int64) (*Dispatcher, error) {
	if err := errors.ValidateGameSlug(game); err != nil {
		return nil, err
	}
	if slots < 1 {
		slots = DefaultSlots
	}
	return &Dispatcher{
		game:      game,
		links:     links,
		downloads: downloads,
		http:      &http.Client{},
		slots:     semaphore.NewWeighted(slots),
	}, nil
}

// Dispatch downloads one item. Mirrors are tried in order; the first that
// delivers wins. A file that already exists on disk settles successfully
// without a transfer.
func (d *Dispatcher) Dispatch(ctx context.Context, item queue.Item) error {
	if err := d.slots.Acquire(ctx, 1); err != nil {
		return errors.Wrap(errors.ErrCodeDownload, err, "acquire transfer slot for %s", item.Name)
	}
	defer d.slots.Release(1)

	links, err := d.links.DownloadLinks(ctx, item.ModID, item.FileID)
	if err != nil {
		return err
	}

	var lastErr error
	for _, link := range links {
		if err := d.fetch(ctx, link.URI, item); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return errors.Wrap(errors.ErrCodeDownload, lastErr, "all mirrors failed for %s", item.Name)
}

func (d *Dispatcher) fetch(ctx context.Context, uri string, item queue.Item) error {
	name, err := archiveName(uri)
	if err != nil {
		return err
	}
	dest := filepath.Join(d.downloads.Dir(), name)

	if _, err := os.Stat(dest); err == nil {
		d.downloads.Record(item.ModID, item.FileID)
		return nil
	}

	if err := os.MkdirAll(d.downloads.Dir(), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeDownload, err, "create downloads directory")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodeDownload, err, "request %s", item.Name)
	}
	resp, err := d.http.Do(req)
	if err != nil {
		return errors.Wrap(errors.ErrCodeDownload, err, "download %s", item.Name)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.New(errors.ErrCodeDownload, "download %s: status %d", item.Name, resp.StatusCode)
	}

	// Write to a temp file first, then rename, so a torn transfer never
	// looks like a finished archive to the ownership scan.
	tmp := dest + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return errors.Wrap(errors.ErrCodeDownload, err, "create %s", tmp)
	}
	_, err = io.Copy(out, resp.Body)
	out.Close()
	if err != nil {
		os.Remove(tmp)
		return errors.Wrap(errors.ErrCodeDownload, err, "write %s", item.Name)
	}
	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return errors.Wrap(errors.ErrCodeDownload, err, "finalize %s", item.Name)
	}

	if err := WriteMeta(dest, Meta{Game: d.game, ModID: item.ModID, FileID: item.FileID}); err != nil {
		return err
	}
	d.downloads.Record(item.ModID, item.FileID)
	return nil
}

// archiveName derives the on-disk filename from a signed link URI.
func archiveName(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeDownload, err, "parse link")
	}
	name := path.Base(u.Path)
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	if name == "." || name == "/" {
		return "", errors.New(errors.ErrCodeDownload, "link %q has no filename", uri)
	}
	if err := errors.ValidateArchiveName(name); err != nil {
		return "", fmt.Errorf("link %q: %w", uri, err)
	}
	return name, nil
}
