package host

import (
	"os"
	"path/filepath"
	"testing"
)

func writeModDir(t *testing.T, root, name, metaINI string) {
	t.Helper()
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if metaINI != "" {
		if err := os.WriteFile(filepath.Join(dir, "meta.ini"), []byte(metaINI), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestModsScan(t *testing.T) {
	root := t.TempDir()
	writeModDir(t, root, "SkyUI", "[General]\nmodid=12604\nversion=5.2\n")
	writeModDir(t, root, "Manually Added Mod", "") // no meta.ini
	writeModDir(t, root, "Broken Meta", "[General]\nmodid=not-a-number\n")

	m, err := NewMods(root)
	if err != nil {
		t.Fatalf("NewMods: %v", err)
	}

	if !m.Installed(12604) {
		t.Error("mod with meta.ini modid should count as installed")
	}
	if m.Installed(999) {
		t.Error("unknown mod should not count as installed")
	}
}

func TestModsMissingDir(t *testing.T) {
	m, err := NewMods(filepath.Join(t.TempDir(), "does-not-exist"))
	if err != nil {
		t.Fatalf("NewMods: %v", err)
	}
	if m.Installed(1) {
		t.Error("missing directory should scan empty")
	}
}

func TestModsRescan(t *testing.T) {
	root := t.TempDir()
	m, err := NewMods(root)
	if err != nil {
		t.Fatalf("NewMods: %v", err)
	}

	writeModDir(t, root, "New Mod", "[General]\nmodid=266\n")
	if m.Installed(266) {
		t.Error("index should be stale before Rescan")
	}
	if err := m.Rescan(); err != nil {
		t.Fatalf("Rescan: %v", err)
	}
	if !m.Installed(266) {
		t.Error("Rescan should pick up the new mod")
	}
}
