package resolve

import (
	"context"
	"io"
	"time"

	"github.com/sacredwitness/prereq/pkg/exclusion"
	"github.com/sacredwitness/prereq/pkg/graph"
	"github.com/sacredwitness/prereq/pkg/nexus"
	"github.com/sacredwitness/prereq/pkg/scrape"
)

const (
	DefaultMaxDepth = 10  // Default maximum requirement depth
	DefaultMaxNodes = 500 // Default maximum mods to expand
	DefaultWorkers  = 8   // Default concurrent page fetches
)

// Options configures a resolution session.
type Options struct {
	MaxDepth   int                  // Maximum depth to traverse (default: 10)
	MaxNodes   int                  // Maximum mods to expand (default: 500)
	Workers    int                  // Concurrent fetches (default: 8)
	Refresh    bool                 // Bypass cache for fresh data
	Exclusions *exclusion.Tracker   // Classes queued by an earlier session (optional)
	Logger     func(string, ...any) // Progress/error callback (optional)
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	opts := o
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if opts.MaxNodes <= 0 {
		opts.MaxNodes = DefaultMaxNodes
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.Logger == nil {
		opts.Logger = func(string, ...any) {}
	}
	return opts
}

// Source provides the remote data a session needs: page markup, file lists,
// and display names. [nexus.Client] implements it.
type Source interface {
	// FetchModPage retrieves a mod's HTML page markup.
	FetchModPage(ctx context.Context, modID int, refresh bool) (string, error)
	// FetchFiles retrieves a mod's downloadable file list.
	FetchFiles(ctx context.Context, modID int, refresh bool) ([]nexus.FileInfo, error)
	// FriendlyName returns a mod's display name, falling back to a
	// synthetic one on failure. It never errors.
	FriendlyName(ctx context.Context, modID int) string
}

// RowParser extracts requirement rows from page markup.
// [scrape.Parser] implements it.
type RowParser interface {
	Parse(r io.Reader) ([]scrape.Row, error)
}

// InstalledModQuery reports whether a mod is already present in the local
// mod list. Installed mods are satisfied and never expanded.
type InstalledModQuery interface {
	Installed(modID int) bool
}

// DownloadedArchiveQuery reports whether a file's archive already sits in
// the downloads location.
type DownloadedArchiveQuery interface {
	Downloaded(modID, fileID int) bool
}

// Result is the outcome of a resolution session.
type Result struct {
	Graph     *graph.Graph
	Selection *graph.Selection

	Expanded int           // mods whose requirements were fetched and parsed
	Degraded int           // mods kept with a diagnostic after a failed expansion
	Skipped  int           // mods left unexpanded because their class was excluded
	Duration time.Duration // wall-clock session time
}
