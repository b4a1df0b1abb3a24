package resolve

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sacredwitness/prereq/pkg/errors"
	"github.com/sacredwitness/prereq/pkg/graph"
	"github.com/sacredwitness/prereq/pkg/nexus"
	"github.com/sacredwitness/prereq/pkg/observability"
	"github.com/sacredwitness/prereq/pkg/scrape"
)

// Engine resolves the transitive requirement closure of a root mod.
type Engine struct {
	game       string
	src        Source
	parser     RowParser
	installed  InstalledModQuery
	downloaded DownloadedArchiveQuery
}

// NewEngine creates an Engine. The installed and downloaded queries may be
// nil, in which case nothing is treated as already owned.
func NewEngine(game string, src Source, parser RowParser, installed InstalledModQuery, downloaded DownloadedArchiveQuery) (*Engine, error) {
	if err := errors.ValidateGameSlug(game); err != nil {
		return nil, err
	}
	return &Engine{
		game:       game,
		src:        src,
		parser:     parser,
		installed:  installed,
		downloaded: downloaded,
	}, nil
}

func (e *Engine) isInstalled(modID int) bool {
	return e.installed != nil && e.installed.Installed(modID)
}

func (e *Engine) isDownloaded(modID, fileID int) bool {
	return e.downloaded != nil && e.downloaded.Downloaded(modID, fileID)
}

// Resolve crawls requirements starting from rootMod, respecting Options
// limits. The returned Result always carries a graph; only a root that
// cannot be fetched or a cancelled context fails the session.
func (e *Engine) Resolve(ctx context.Context, rootMod int, opts Options) (*Result, error) {
	if err := errors.ValidateModID(rootMod); err != nil {
		return nil, err
	}
	opts = opts.WithDefaults()

	start := time.Now()
	observability.Resolve().OnSessionStart(ctx, e.game, int64(rootMod))

	c := &crawler{
		ctx:     ctx,
		opts:    opts,
		e:       e,
		g:       graph.New(graph.ModKey(int64(rootMod))),
		visited: make(map[int]bool),
		jobs:    make(chan job, opts.Workers*2),
		results: make(chan result, opts.Workers*2),
		done:    make(chan struct{}),
	}
	err := c.run(rootMod)

	res := &Result{
		Graph:    c.g,
		Expanded: int(c.expanded),
		Degraded: int(c.degraded),
		Skipped:  int(c.skipped),
		Duration: time.Since(start),
	}
	observability.Resolve().OnSessionComplete(ctx, e.game, int64(rootMod), c.g.Len(), res.Duration, err)
	if err != nil {
		return nil, err
	}
	res.Selection = graph.NewSelection(c.g)
	return res, nil
}

type crawler struct {
	ctx  context.Context
	opts Options
	e    *Engine
	g    *graph.Graph

	jobs    chan job
	results chan result
	done    chan struct{} // closed when collect returns; unblocks channel sends
	wg      sync.WaitGroup
	sendWG  sync.WaitGroup

	mu       sync.Mutex
	visited  map[int]bool
	pending  int64
	expanded int32
	degraded int32
	skipped  int32
}

type job struct {
	modID int
	depth int
}

type result struct {
	job
	name  string
	rows  []scrape.Row
	files []nexus.FileInfo
	err   error
}

func (c *crawler) run(root int) error {
	for range c.opts.Workers {
		c.wg.Add(1)
		go c.worker()
	}

	c.enqueue(job{modID: root})
	err := c.collect(root)

	// A cancelled collect can leave enqueue goroutines mid-send. Release
	// them through done before closing jobs, or the close would panic a
	// pending send.
	close(c.done)
	c.sendWG.Wait()
	close(c.jobs)
	c.wg.Wait()
	return err
}

func (c *crawler) worker() {
	defer c.wg.Done()
	for j := range c.jobs {
		if c.ctx.Err() != nil {
			atomic.AddInt64(&c.pending, -1)
			continue
		}
		select {
		case c.results <- c.expand(j):
		case <-c.done:
		}
	}
}

// expand does the remote work for one mod: page, rows, file list, name.
// Everything but the page fetch is best-effort.
func (c *crawler) expand(j job) result {
	r := result{job: j}

	page, err := c.e.src.FetchModPage(c.ctx, j.modID, c.opts.Refresh)
	if err != nil {
		r.err = err
		return r
	}
	rows, err := c.e.parser.Parse(strings.NewReader(page))
	if err != nil {
		r.err = err
		return r
	}
	r.rows = rows
	r.name = c.e.src.FriendlyName(c.ctx, j.modID)

	files, err := c.e.src.FetchFiles(c.ctx, j.modID, c.opts.Refresh)
	if err != nil {
		// A missing file list costs the leaves of this one mod, not the tree.
		c.opts.Logger("file list failed: mod %d: %v", j.modID, err)
	} else {
		r.files = nexus.MainFiles(files)
	}
	return r
}

func (c *crawler) enqueue(j job) bool {
	c.mu.Lock()
	if c.visited[j.modID] {
		c.mu.Unlock()
		return false
	}
	c.visited[j.modID] = true
	c.mu.Unlock()

	atomic.AddInt64(&c.pending, 1)

	c.sendWG.Add(1)
	go func() {
		defer c.sendWG.Done()
		select {
		case c.jobs <- j:
		case <-c.done:
		}
	}()
	return true
}

func (c *crawler) collect(root int) error {
	for {
		select {
		case r := <-c.results:
			if err := c.handle(r, root); err != nil {
				return err
			}
			if atomic.AddInt64(&c.pending, -1) == 0 {
				return nil
			}
		case <-c.ctx.Done():
			return c.ctx.Err()
		}
	}
}

func (c *crawler) handle(r result, root int) error {
	id := graph.ModKey(int64(r.modID))

	if r.err != nil {
		if r.modID == root {
			return errors.Wrap(errors.ErrCodeFetch, r.err, "resolve root mod %d", root)
		}
		atomic.AddInt32(&c.degraded, 1)
		_ = c.g.SetDiag(id, r.err.Error())
		observability.Resolve().OnNodeDegraded(c.ctx, string(id), r.err)
		c.opts.Logger("expand failed: mod %d: %v", r.modID, r.err)
		return nil
	}

	// The root has no discovering parent; every other mod already exists
	// from the edge merge that discovered it.
	_, _ = c.g.Upsert(graph.Node{ID: id, Kind: graph.KindNexus, ModID: int64(r.modID)}, "")
	if r.name != "" {
		_ = c.g.SetDisplayName(id, r.name)
	}

	atomic.AddInt32(&c.expanded, 1)
	observability.Resolve().OnNodeExpanded(c.ctx, string(id), r.depth)

	c.addFileLeaves(r)
	c.addRequirements(r)
	return nil
}

// addFileLeaves attaches the mod's downloadable files as leaf nodes.
// A file whose class is still registered with the exclusion tracker was
// queued by an overlapping session; it materializes flagged so the default
// selection leaves it alone.
func (c *crawler) addFileLeaves(r result) {
	parent := graph.ModKey(int64(r.modID))
	for _, f := range r.files {
		n := graph.Node{
			ID:          graph.FileKey(int64(r.modID), int64(f.FileID)),
			Kind:        graph.KindNexus,
			ModID:       int64(r.modID),
			FileID:      int64(f.FileID),
			DisplayName: f.Name,
			SizeKB:      int64(f.SizeKB),
		}
		switch {
		case c.e.isDownloaded(r.modID, f.FileID):
			n.Status = graph.StatusDownloaded
		case c.e.isInstalled(r.modID):
			n.Status = graph.StatusInstalled
		case c.opts.Exclusions != nil && c.opts.Exclusions.Contains(n.Class()):
			n.Diag = "download already in progress"
			atomic.AddInt32(&c.skipped, 1)
		}
		_, _ = c.g.Upsert(n, parent)
	}
}

// addRequirements merges the parsed requirement rows into the graph and
// queues unexpanded first-party mods for crawling.
func (c *crawler) addRequirements(r result) {
	if r.depth >= c.opts.MaxDepth || len(r.rows) == 0 {
		return
	}

	parent := graph.ModKey(int64(r.modID))
	next := r.depth + 1

	for _, row := range r.rows {
		if row.Kind == graph.KindOffsite {
			_, _ = c.g.Upsert(graph.Node{
				ID:          graph.URLKey(row.URL),
				Kind:        graph.KindOffsite,
				URL:         row.URL,
				DisplayName: row.Label,
			}, parent)
			continue
		}

		child := graph.Node{
			ID:          graph.ModKey(int64(row.ModID)),
			Kind:        graph.KindNexus,
			ModID:       int64(row.ModID),
			DisplayName: row.Label,
		}
		_, _ = c.g.Upsert(child, parent)

		switch {
		case c.opts.Exclusions != nil && c.opts.Exclusions.Contains(child.Class()):
			// Queued by an earlier session and still in flight.
			atomic.AddInt32(&c.skipped, 1)
			_ = c.g.SetDiag(child.ID, "download already in progress")
		case c.e.isInstalled(row.ModID):
			_ = c.g.SetStatus(child.ID, graph.StatusInstalled)
		case c.g.Len() < c.opts.MaxNodes:
			c.enqueue(job{modID: row.ModID, depth: next})
		}
	}
}
