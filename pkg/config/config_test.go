package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
game = "skyrimspecialedition"
api_key = "file-key"
downloads_dir = "/tmp/dl"
mods_dir = "/tmp/mods"
concurrency = 5
trace = true
`)
	t.Setenv("NEXUS_API_KEY", "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Game != "skyrimspecialedition" {
		t.Errorf("Game = %q", cfg.Game)
	}
	if cfg.APIKey != "file-key" {
		t.Errorf("APIKey = %q", cfg.APIKey)
	}
	if cfg.DownloadsDir != "/tmp/dl" || cfg.ModsDir != "/tmp/mods" {
		t.Errorf("dirs = %q / %q", cfg.DownloadsDir, cfg.ModsDir)
	}
	if cfg.Concurrency != 5 || !cfg.Trace {
		t.Errorf("Concurrency = %d, Trace = %v", cfg.Concurrency, cfg.Trace)
	}
}

func TestLoadEnvOverridesAPIKey(t *testing.T) {
	path := writeConfig(t, `api_key = "file-key"`)
	t.Setenv("NEXUS_API_KEY", "env-key")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIKey != "env-key" {
		t.Errorf("APIKey = %q, want env-key", cfg.APIKey)
	}
}

func TestLoadMissingExplicitPath(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("an explicitly named missing config should error")
	}
}

func TestLoadInvalidGame(t *testing.T) {
	path := writeConfig(t, `game = "Not A Slug"`)
	if _, err := Load(path); err == nil {
		t.Error("invalid game slug should error")
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, ``)
	t.Setenv("NEXUS_API_KEY", "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DownloadsDir == "" {
		t.Error("DownloadsDir should default to a usable location")
	}
}

func TestWatchEnabled(t *testing.T) {
	tests := []struct {
		name string
		body string
		want bool
	}{
		{name: "absent means enabled", body: ``, want: true},
		{name: "explicit true", body: `enabled = true`, want: true},
		{name: "explicit false", body: `enabled = false`, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, tt.body))
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if got := cfg.WatchEnabled(); got != tt.want {
				t.Errorf("WatchEnabled() = %v, want %v", got, tt.want)
			}
		})
	}
}
