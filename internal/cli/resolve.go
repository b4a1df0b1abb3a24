package cli

import (
	"context"
	"fmt"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sacredwitness/prereq/pkg/config"
	"github.com/sacredwitness/prereq/pkg/errors"
	"github.com/sacredwitness/prereq/pkg/exclusion"
	"github.com/sacredwitness/prereq/pkg/graph"
	"github.com/sacredwitness/prereq/pkg/host"
	"github.com/sacredwitness/prereq/pkg/nexus"
	"github.com/sacredwitness/prereq/pkg/queue"
	"github.com/sacredwitness/prereq/pkg/resolve"
	"github.com/sacredwitness/prereq/pkg/scrape"
)

// resolveOpts holds the command-line flags for the resolve command.
type resolveOpts struct {
	game        string // game slug override
	refresh     bool   // bypass the page/API cache
	depth       int    // maximum requirement depth
	maxNodes    int    // maximum mods to expand
	workers     int    // concurrent page fetches
	concurrency int    // simultaneous transfers (overrides config)
	yes         bool   // skip the checkbox tree and queue the defaults
	output      string // write the resolved graph as JSON
}

// newResolveCmd creates the resolve command: one shot from mod id to drained
// download queue.
//
// Default settings:
//   - depth: 10, max-nodes: 500, workers: 8
//   - interactive checkbox tree before queueing; --yes skips it
func newResolveCmd() *cobra.Command {
	var opts resolveOpts

	cmd := &cobra.Command{
		Use:   "resolve <mod-id>",
		Short: "Resolve the requirement closure of a mod",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			modID, err := strconv.Atoi(args[0])
			if err != nil {
				return errors.New(errors.ErrCodeInvalidMod, "invalid mod id: %s", args[0])
			}
			return runResolve(cmd.Context(), modID, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.game, "game", "", "game slug (overrides config)")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass cached pages and API responses")
	cmd.Flags().IntVar(&opts.depth, "depth", resolve.DefaultMaxDepth, "maximum requirement depth")
	cmd.Flags().IntVar(&opts.maxNodes, "max-nodes", resolve.DefaultMaxNodes, "maximum mods to expand")
	cmd.Flags().IntVar(&opts.workers, "workers", resolve.DefaultWorkers, "concurrent page fetches")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 0, "simultaneous transfers (overrides config)")
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "skip the checkbox tree and queue the default selection")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the resolved graph as JSON")

	return cmd
}

// session bundles the plumbing shared by resolve and export.
type session struct {
	game      string
	client    *nexus.Client
	downloads *host.Downloads
	engine    *resolve.Engine
}

// newSession wires up the client, local ownership scanners, and engine for
// the configured game. The mods directory is optional; without it installed
// detection is disabled.
func newSession(ctx context.Context, cfg *config.Config, gameFlag string) (*session, error) {
	logger := loggerFromContext(ctx)

	game, err := requireGame(cfg, gameFlag)
	if err != nil {
		return nil, err
	}

	cache, err := newHTTPCache()
	if err != nil {
		return nil, err
	}
	client, err := nexus.NewClient(game, cfg.APIKey, cache)
	if err != nil {
		return nil, err
	}
	parser, err := scrape.NewParser(game, scrape.WithDiagnostics(func(msg string) {
		logger.Debugf("drop requirement row: %s", msg)
	}))
	if err != nil {
		return nil, err
	}
	downloads, err := host.NewDownloads(cfg.DownloadsDir)
	if err != nil {
		return nil, err
	}

	var installed resolve.InstalledModQuery
	if cfg.ModsDir != "" {
		mods, err := host.NewMods(cfg.ModsDir)
		if err != nil {
			return nil, err
		}
		installed = mods
	}

	engine, err := resolve.NewEngine(game, client, parser, installed, downloads)
	if err != nil {
		return nil, err
	}
	return &session{game: game, client: client, downloads: downloads, engine: engine}, nil
}

func runResolve(ctx context.Context, modID int, opts *resolveOpts) error {
	logger := loggerFromContext(ctx)
	cfg := configFromContext(ctx)

	sess, err := newSession(ctx, cfg, opts.game)
	if err != nil {
		return err
	}

	tracker := exclusion.NewTracker()
	prog := newProgress(logger)
	spin := newSpinner(ctx, fmt.Sprintf("Resolving requirements of mod %d", modID))
	spin.Start()

	result, err := sess.engine.Resolve(ctx, modID, resolve.Options{
		MaxDepth:   opts.depth,
		MaxNodes:   opts.maxNodes,
		Workers:    opts.workers,
		Refresh:    opts.refresh,
		Exclusions: tracker,
		Logger:     logger.Debugf,
	})
	spin.Stop()
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Resolved %d requirements", result.Graph.Len()-1))
	printStats(result.Graph.Len(), result.Expanded, result.Degraded, result.Skipped)
	fmt.Println()

	if opts.output != "" {
		if err := graph.WriteFile(result.Graph, opts.output); err != nil {
			return err
		}
		printFile(opts.output)
	}

	if !hasRequirements(result.Graph) {
		printInfo("Mod %d declares no requirements", modID)
		return nil
	}

	if opts.yes {
		printTree(result.Graph, result.Selection)
		fmt.Println()
	} else {
		accepted, err := runSelectionTUI(result.Graph, result.Selection)
		if err != nil {
			return err
		}
		if !accepted {
			printInfo("Selection cancelled, nothing queued")
			return nil
		}
	}

	items := selectedItems(result.Graph, result.Selection)
	printOffsiteLinks(result.Graph, result.Selection)

	if len(items) == 0 {
		printInfo("Nothing to download, every requirement is already owned")
		return nil
	}

	slots := int64(opts.concurrency)
	if slots <= 0 {
		slots = int64(cfg.Concurrency)
	}
	return runDownloads(ctx, sess, tracker, items, slots)
}

// hasRequirements reports whether the root declares anything beyond its own
// downloadable files. A bare root short-circuits before any selection UI.
func hasRequirements(g *graph.Graph) bool {
	root, ok := g.Node(g.Root())
	if !ok {
		return false
	}
	for _, child := range g.Requires(g.Root()) {
		n, ok := g.Node(child)
		if !ok {
			continue
		}
		if n.Kind == graph.KindOffsite || n.ModID != root.ModID {
			return true
		}
	}
	return false
}

// runDownloads starts a batch for the selected items and reports each settle
// until the batch drains.
func runDownloads(ctx context.Context, sess *session, tracker *exclusion.Tracker, items []queue.Item, slots int64) error {
	logger := loggerFromContext(ctx)

	dispatcher, err := host.NewDispatcher(sess.game, sess.client, sess.downloads, slots)
	if err != nil {
		return err
	}

	manager := queue.NewManager(dispatcher, tracker)
	batch, err := manager.Enqueue(ctx, items)
	if err != nil {
		return err
	}
	logger.Debugf("Started batch %s with %d item(s)", batch.ID(), len(items))

	events, detach := batch.Subscribe()
	defer detach()
	for ev := range events {
		name := ev.Item.Name
		if name == "" {
			name = string(ev.Item.Class)
		}
		if ev.Err != nil {
			printError("%s: %s", name, errors.UserMessage(ev.Err))
		} else {
			printSuccess("%s (%d/%d)", name, ev.Progress.Settled(), ev.Progress.Total)
		}
	}

	final, err := batch.Wait(ctx)
	if err != nil {
		return err
	}
	fmt.Println()
	if final.State == queue.StateFailed {
		return errors.New(errors.ErrCodeDownload, "%d of %d download(s) failed", final.Failed, final.Total)
	}
	printSuccess("Downloaded %d file(s) to %s", final.Completed, sess.downloads.Dir())
	return nil
}

// selectedItems collects one queue item per selected downloadable class.
func selectedItems(g *graph.Graph, sel *graph.Selection) []queue.Item {
	var items []queue.Item
	seen := make(map[graph.ClassID]bool)
	for _, n := range g.Nodes() {
		c := n.Class()
		if seen[c] || !n.Downloadable() || !sel.IsSelected(c) {
			continue
		}
		seen[c] = true
		items = append(items, queue.Item{
			ModID:  int(n.ModID),
			FileID: int(n.FileID),
			Class:  c,
			Name:   n.DisplayName,
			SizeKB: n.SizeKB,
		})
	}
	return items
}

// printOffsiteLinks lists selected off-site requirements. They are never
// dispatched; the user follows them by hand.
func printOffsiteLinks(g *graph.Graph, sel *graph.Selection) {
	var links []graph.Node
	for _, n := range g.Nodes() {
		if n.Kind == graph.KindOffsite && sel.IsSelected(n.Class()) {
			links = append(links, n)
		}
	}
	if len(links) == 0 {
		return
	}
	printInfo("%d off-site requirement(s) to fetch manually:", len(links))
	for _, n := range links {
		fmt.Println("  " + StyleDim.Render(iconArrow) + " " + n.DisplayName + " " + StyleLink.Render(n.URL))
	}
	fmt.Println()
}

// runSelectionTUI opens the checkbox tree and reports whether the user
// accepted the selection.
func runSelectionTUI(g *graph.Graph, sel *graph.Selection) (bool, error) {
	model := NewSelectModel(g, sel)
	final, err := tea.NewProgram(model).Run()
	if err != nil {
		return false, err
	}
	m, ok := final.(SelectModel)
	return ok && m.Accepted, nil
}
