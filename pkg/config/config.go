// Package config loads the tool's TOML configuration file.
//
// The file lives at ~/.config/prereq/config.toml by default. Every field
// has a workable default except the game slug, which resolve and download
// commands require. The API key may also come from the NEXUS_API_KEY
// environment variable, which takes precedence over the file.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/sacredwitness/prereq/pkg/errors"
)

// Config holds the user-facing settings.
type Config struct {
	// Enabled gates automatic resolution triggering in watch mode.
	// Absent means enabled.
	Enabled *bool `toml:"enabled"`

	// Game is the game slug mod pages are scoped to, e.g.
	// "skyrimspecialedition".
	Game string `toml:"game"`

	// APIKey authenticates JSON API calls. Falls back to NEXUS_API_KEY.
	APIKey string `toml:"api_key"`

	// DownloadsDir is where archives land. Defaults to
	// ~/.local/share/prereq/downloads.
	DownloadsDir string `toml:"downloads_dir"`

	// ModsDir is the installed-mod root used for ownership checks.
	// Empty disables installed detection.
	ModsDir string `toml:"mods_dir"`

	// Concurrency caps simultaneous transfers. Zero means the default.
	Concurrency int `toml:"concurrency"`

	// Trace enables verbose per-node logging of resolution sessions.
	Trace bool `toml:"trace"`
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "prereq", "config.toml"), nil
}

// Load reads the config file at path. An empty path means the default
// location; a missing file yields defaults instead of an error, so the
// tool runs with flags alone.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err) && !explicit:
		// No config file is fine, flags and env carry the rest.
	case err != nil:
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read config %s", path)
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config %s", path)
		}
	}

	if key := os.Getenv("NEXUS_API_KEY"); key != "" {
		cfg.APIKey = key
	}
	cfg.applyDefaults()

	if cfg.Game != "" {
		if err := errors.ValidateGameSlug(cfg.Game); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// WatchEnabled reports whether arriving archives may trigger resolution.
func (c *Config) WatchEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

func (c *Config) applyDefaults() {
	if c.DownloadsDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			c.DownloadsDir = filepath.Join(home, ".local", "share", "prereq", "downloads")
		}
	}
}
