package cli

import (
	"path/filepath"
	"testing"

	"github.com/sacredwitness/prereq/pkg/config"
)

func TestSetVersion(t *testing.T) {
	SetVersion("1.0.0", "abc123", "2026-01-01")

	if version != "1.0.0" {
		t.Errorf("version = %q, want %q", version, "1.0.0")
	}
	if commit != "abc123" {
		t.Errorf("commit = %q, want %q", commit, "abc123")
	}
	if date != "2026-01-01" {
		t.Errorf("date = %q, want %q", date, "2026-01-01")
	}
}

func TestRequireGame(t *testing.T) {
	tests := []struct {
		name    string
		cfg     string
		flag    string
		want    string
		wantErr bool
	}{
		{name: "flag wins", cfg: "skyrim", flag: "fallout4", want: "fallout4"},
		{name: "config fallback", cfg: "skyrim", flag: "", want: "skyrim"},
		{name: "neither set", cfg: "", flag: "", wantErr: true},
		{name: "invalid slug", cfg: "", flag: "not a slug!", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := requireGame(&config.Config{Game: tt.cfg}, tt.flag)
			if (err != nil) != tt.wantErr {
				t.Fatalf("requireGame() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("requireGame() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCacheDirRespectsXDG(t *testing.T) {
	base := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", base)

	dir, err := cacheDir()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(base, "prereq"); dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}
}
