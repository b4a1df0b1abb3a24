package host

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMetaRoundTrip(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "SkyUI_5_2_SE-12604-5-2SE.7z")

	want := Meta{Game: "skyrimspecialedition", ModID: 12604, FileID: 35407}
	if err := WriteMeta(archive, want); err != nil {
		t.Fatalf("WriteMeta: %v", err)
	}

	got, err := ReadMeta(archive)
	if err != nil {
		t.Fatalf("ReadMeta: %v", err)
	}
	if got == nil {
		t.Fatal("ReadMeta returned nil for existing companion")
	}
	if *got != want {
		t.Errorf("ReadMeta = %+v, want %+v", *got, want)
	}
}

func TestReadMetaMissing(t *testing.T) {
	got, err := ReadMeta(filepath.Join(t.TempDir(), "no-such.7z"))
	if err != nil {
		t.Fatalf("ReadMeta: %v", err)
	}
	if got != nil {
		t.Errorf("ReadMeta = %+v, want nil for missing companion", got)
	}
}

func TestReadMetaUnusable(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "manual.7z")
	if err := os.WriteFile(MetaPath(archive), []byte("[General]\ninstalled=true\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := ReadMeta(archive); err == nil {
		t.Error("ReadMeta should error for a companion without an origin")
	}
}

func TestWriteMetaValidates(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "x.7z")
	if err := WriteMeta(archive, Meta{Game: "Bad Game", ModID: 1}); err == nil {
		t.Error("WriteMeta should reject an invalid game slug")
	}
	if err := WriteMeta(archive, Meta{Game: "skyrimspecialedition", ModID: 0}); err == nil {
		t.Error("WriteMeta should reject mod id 0")
	}
}
