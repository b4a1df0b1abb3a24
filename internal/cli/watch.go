package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sacredwitness/prereq/pkg/exclusion"
	"github.com/sacredwitness/prereq/pkg/host"
	"github.com/sacredwitness/prereq/pkg/resolve"
)

// newWatchCmd creates the watch command. It keeps the downloads index fresh,
// resolves the requirement closure of every archive the user fetched by
// hand, and queues the missing requirements through the same exclusion
// tracker the watcher suppresses with, so the queue's own archives never
// trigger another round. enabled=false in the config turns automatic
// resolution off entirely.
func newWatchCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the downloads directory for arriving archives",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), dir)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "downloads directory (overrides config)")

	return cmd
}

func runWatch(ctx context.Context, dirFlag string) error {
	logger := loggerFromContext(ctx)
	cfg := configFromContext(ctx)

	dir := dirFlag
	if dir == "" {
		dir = cfg.DownloadsDir
	}

	// Resolution on arrival needs a configured game; without one the
	// watcher still reports arrivals and maintains the ownership index.
	var sess *session
	if cfg.WatchEnabled() && cfg.Game != "" {
		s, err := newSession(ctx, cfg, "")
		if err != nil {
			return err
		}
		sess = s
	}

	// The watcher and the dispatcher must agree on the ownership index:
	// the dispatcher records a landed file before its item settles, and
	// that record is the watcher's second suppression signal.
	var downloads *host.Downloads
	if sess != nil && dir == cfg.DownloadsDir {
		downloads = sess.downloads
	} else {
		var err error
		downloads, err = host.NewDownloads(dir)
		if err != nil {
			return err
		}
	}

	tracker := exclusion.NewTracker()

	printInfo("Watching %s (ctrl+c to stop)", dir)
	watcher := host.NewWatcher(downloads, tracker, logger.Debugf)
	err := watcher.Run(ctx, func(a host.Arrival) {
		printSuccess("New archive: %s (mod %d, file %d)", a.Archive, a.Meta.ModID, a.Meta.FileID)
		if sess == nil || a.Meta.Game != sess.game {
			printNextStep("Resolve its requirements", fmt.Sprintf("prereq resolve %d", a.Meta.ModID))
			return
		}
		resolveArrival(ctx, sess, tracker, a.Meta.ModID, int64(cfg.Concurrency))
	})
	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// resolveArrival resolves the closure of a freshly arrived archive and
// queues its missing requirements. The tracker is the watcher's own, so the
// queued archives land silently; a failed resolution or batch is reported
// and the watch continues.
func resolveArrival(ctx context.Context, sess *session, tracker *exclusion.Tracker, modID int, slots int64) {
	logger := loggerFromContext(ctx)

	result, err := sess.engine.Resolve(ctx, modID, resolve.Options{
		Exclusions: tracker,
		Logger:     logger.Debugf,
	})
	if err != nil {
		printError("resolve mod %d: %v", modID, err)
		return
	}
	if !hasRequirements(result.Graph) {
		printDetail("No requirements declared")
		return
	}
	printTree(result.Graph, result.Selection)
	printOffsiteLinks(result.Graph, result.Selection)

	items := selectedItems(result.Graph, result.Selection)
	if len(items) == 0 {
		printDetail("Every requirement is already owned")
		return
	}
	if err := runDownloads(ctx, sess, tracker, items, slots); err != nil && ctx.Err() == nil {
		printError("queue for mod %d: %s", modID, err)
	}
	fmt.Println()
}
