package assets

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDetermineAssetType(t *testing.T) {
	tests := []struct {
		path string
		want AssetType
	}{
		{"shaders/ui.vert.spv", AssetTypeShader},
		{"shaders/ui.frag.msl", AssetTypeShader},
		{"shaders/ui.frag.dxil", AssetTypeShader},
		{"fonts/Roboto.ttf", AssetTypeFont},
		{"fonts/Roboto.otf", AssetTypeFont},
		{"fonts/mono.fnt", AssetTypeBitmapFont},
		{"fonts/mono_0.png", AssetTypeImage},
		{"shaders/ui.vert", AssetTypeNone},
		{"README", AssetTypeNone},
	}
	for _, tt := range tests {
		if got := determineAssetType(tt.path); got != tt.want {
			t.Errorf("determineAssetType(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestInitializeIndexesExistingFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "ui.vert.spv"), "a")
	writeFile(t, filepath.Join(dir, "notes.txt"), "b")
	writeFile(t, filepath.Join(dir, "fonts", "mono.fnt"), "c")

	am, err := NewAssetManager()
	if err != nil {
		t.Fatal(err)
	}
	defer am.Close()
	if err := am.Initialize(dir); err != nil {
		t.Fatal(err)
	}

	if info, ok := am.Lookup(filepath.Join(dir, "ui.vert.spv")); !ok || info.Type != AssetTypeShader {
		t.Fatalf("shader not indexed: %+v %v", info, ok)
	}
	if _, ok := am.Lookup(filepath.Join(dir, "notes.txt")); ok {
		t.Fatal("unknown file type was indexed")
	}
	if got := len(am.Assets(AssetTypeBitmapFont)); got != 1 {
		t.Fatalf("bitmap fonts = %d, want 1", got)
	}
}

func TestChangesReportsWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ui.frag.spv")
	writeFile(t, path, "old")

	am, err := NewAssetManager()
	if err != nil {
		t.Fatal(err)
	}
	defer am.Close()
	if err := am.Initialize(dir); err != nil {
		t.Fatal(err)
	}

	writeFile(t, path, "new")

	timeout := time.After(5 * time.Second)
	for {
		select {
		case info := <-am.Changes():
			if info.Path == path && info.Type == AssetTypeShader {
				return
			}
		case <-timeout:
			t.Fatal("no change reported for rewritten shader")
		}
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	am, err := NewAssetManager()
	if err != nil {
		t.Fatal(err)
	}
	if err := am.Initialize(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	if err := am.Close(); err != nil {
		t.Fatal(err)
	}
	if err := am.Close(); err != nil {
		t.Fatal(err)
	}
	if _, ok := <-am.Changes(); ok {
		t.Fatal("changes channel still open after Close")
	}
	if err := am.Initialize(t.TempDir()); err == nil {
		t.Fatal("Initialize after Close succeeded")
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
