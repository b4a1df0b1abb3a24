package host

import (
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("archive bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDownloadsScan(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "SkyUI_5_2_SE-12604-5-2SE.7z"))
	touch(t, filepath.Join(dir, "Address Library-32444-11-4-0.zip"))
	touch(t, filepath.Join(dir, "notes.txt"))

	d, err := NewDownloads(dir)
	if err != nil {
		t.Fatalf("NewDownloads: %v", err)
	}

	if !d.Downloaded(12604, 5) {
		t.Error("stamped 7z archive should count as downloaded")
	}
	if !d.Downloaded(32444, 11) {
		t.Error("stamped zip archive should count as downloaded")
	}
	if d.Downloaded(99999, 1) {
		t.Error("unknown file should not count as downloaded")
	}
}

func TestDownloadsMetaFallback(t *testing.T) {
	dir := t.TempDir()
	// A renamed archive carries no stamp, but its companion does.
	archive := filepath.Join(dir, "skyui.7z")
	touch(t, archive)
	if err := WriteMeta(archive, Meta{Game: "skyrimspecialedition", ModID: 12604, FileID: 35407}); err != nil {
		t.Fatalf("WriteMeta: %v", err)
	}

	d, err := NewDownloads(dir)
	if err != nil {
		t.Fatalf("NewDownloads: %v", err)
	}
	if !d.Downloaded(12604, 35407) {
		t.Error("archive with .meta origin should count as downloaded")
	}
}

func TestDownloadsMissingDir(t *testing.T) {
	d, err := NewDownloads(filepath.Join(t.TempDir(), "does-not-exist"))
	if err != nil {
		t.Fatalf("NewDownloads: %v", err)
	}
	if d.Downloaded(1, 1) {
		t.Error("missing directory should scan empty")
	}
}

func TestDownloadsRescanAndRecord(t *testing.T) {
	dir := t.TempDir()
	d, err := NewDownloads(dir)
	if err != nil {
		t.Fatalf("NewDownloads: %v", err)
	}

	touch(t, filepath.Join(dir, "New Mod-266-1-0.rar"))
	if d.Downloaded(266, 1) {
		t.Error("index should be stale before Rescan")
	}
	if err := d.Rescan(); err != nil {
		t.Fatalf("Rescan: %v", err)
	}
	if !d.Downloaded(266, 1) {
		t.Error("Rescan should pick up the new archive")
	}

	d.Record(3863, 15037)
	if !d.Downloaded(3863, 15037) {
		t.Error("Record should update the index immediately")
	}
}
