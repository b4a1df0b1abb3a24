package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/sacredwitness/prereq/pkg/config"
	"github.com/sacredwitness/prereq/pkg/errors"
	"github.com/sacredwitness/prereq/pkg/httputil"
)

const (
	// appName is the application name used for directories and display.
	appName = "prereq"

	// defaultCacheTTL bounds how long fetched pages and API responses are
	// reused. Requirement tables change rarely; a day is a safe window.
	defaultCacheTTL = 24 * time.Hour
)

var (
	version string // semantic version (e.g., "v1.2.3")
	commit  string // git commit SHA
	date    string // build timestamp
)

// SetVersion sets the version information displayed by --version.
// This is typically called by the main package with values injected via
// ldflags at build time.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the prereq CLI and returns an error if any command fails.
//
// The function sets up the root command with all subcommands (resolve,
// export, watch, cache, completion), configures logging based on the
// --verbose flag, and executes the command tree. The logger is attached to
// the context and accessible to all commands via loggerFromContext.
func Execute(ctx context.Context) error {
	var (
		verbose    bool
		configPath string
	)

	root := &cobra.Command{
		Use:          appName,
		Short:        "Prereq resolves the requirement closure of a Nexus mod",
		Long:         `Prereq scrapes the requirements tables of a mod page, recursively resolves every transitive requirement into a deduplicated graph, and drives the downloads the closure still needs.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			level := charmlog.InfoLevel
			if verbose || cfg.Trace {
				level = charmlog.DebugLevel
			}
			w, err := logWriter(cfg.Trace)
			if err != nil {
				return err
			}
			ctx := withLogger(cmd.Context(), newLogger(w, level))
			cmd.SetContext(withConfig(ctx, cfg))
			return nil
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("prereq %s\ncommit: %s\nbuilt: %s\n", version, commit, date))
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/prereq/config.toml)")

	root.AddCommand(newResolveCmd())
	root.AddCommand(newExportCmd())
	root.AddCommand(newWatchCmd())
	root.AddCommand(newCacheCmd())
	root.AddCommand(newCompletionCmd())

	return root.ExecuteContext(ctx)
}

const configKey ctxKey = 1

func withConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// configFromContext retrieves the loaded config from ctx. A fresh zero
// config is returned if setup never ran, so commands can still validate.
func configFromContext(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok {
		return cfg
	}
	return &config.Config{}
}

// requireGame returns the effective game slug, preferring the flag over the
// config file.
func requireGame(cfg *config.Config, flag string) (string, error) {
	game := flag
	if game == "" {
		game = cfg.Game
	}
	if game == "" {
		return "", errors.New(errors.ErrCodeInvalidGame, "no game configured; pass --game or set it in the config file")
	}
	if err := errors.ValidateGameSlug(game); err != nil {
		return "", err
	}
	return game, nil
}

// logWriter returns the writer the session logger uses. With trace enabled
// the log is additionally appended to a file under the state directory; no
// file is touched otherwise.
func logWriter(trace bool) (io.Writer, error) {
	if !trace {
		return os.Stderr, nil
	}
	path, err := tracePath()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return io.MultiWriter(os.Stderr, f), nil
}

// tracePath returns the trace log location using XDG standard
// (~/.local/state/prereq/trace.log).
func tracePath() (string, error) {
	if stateHome := os.Getenv("XDG_STATE_HOME"); stateHome != "" {
		return filepath.Join(stateHome, appName, "trace.log"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "state", appName, "trace.log"), nil
}

// cacheDir returns the cache directory using XDG standard (~/.cache/prereq/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

func newHTTPCache() (*httputil.Cache, error) {
	dir, err := cacheDir()
	if err != nil {
		return nil, err
	}
	return httputil.NewCache(dir, defaultCacheTTL)
}
