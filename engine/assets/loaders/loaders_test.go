package loaders

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spaghettifunk/cumulus/engine/gpu"
	"github.com/spaghettifunk/cumulus/engine/ui"
)

func TestShaderLoaderPath(t *testing.T) {
	sl := NewShaderLoader("shaders")
	tests := []struct {
		stage  gpu.ShaderStage
		format gpu.ShaderFormat
		want   string
	}{
		{gpu.ShaderStageVertex, gpu.ShaderFormatSPIRV, filepath.Join("shaders", "ui.vert.spv")},
		{gpu.ShaderStageFragment, gpu.ShaderFormatSPIRV, filepath.Join("shaders", "ui.frag.spv")},
		{gpu.ShaderStageVertex, gpu.ShaderFormatMSL, filepath.Join("shaders", "ui.vert.msl")},
		{gpu.ShaderStageFragment, gpu.ShaderFormatDXIL, filepath.Join("shaders", "ui.frag.dxil")},
	}
	for _, tt := range tests {
		got, err := sl.Path(tt.stage, tt.format)
		if err != nil {
			t.Fatalf("Path(%v, %v): %v", tt.stage, tt.format, err)
		}
		if got != tt.want {
			t.Errorf("Path(%v, %v) = %q, want %q", tt.stage, tt.format, got, tt.want)
		}
	}

	if _, err := sl.Path(gpu.ShaderStageVertex, gpu.ShaderFormatInvalid); !errors.Is(err, gpu.ErrUnsupportedFormat) {
		t.Fatalf("invalid format error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestShaderLoaderReadsFreshBlob(t *testing.T) {
	dir := t.TempDir()
	sl := NewShaderLoader(dir)
	path := filepath.Join(dir, "ui.vert.spv")

	if _, err := sl.Shader(gpu.ShaderStageVertex, gpu.ShaderFormatSPIRV); err == nil {
		t.Fatal("missing blob did not fail")
	}

	if err := os.WriteFile(path, []byte{1, 2, 3, 4}, 0o644); err != nil {
		t.Fatal(err)
	}
	data, err := sl.Shader(gpu.ShaderStageVertex, gpu.ShaderFormatSPIRV)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 4 {
		t.Fatalf("len = %d, want 4", len(data))
	}

	if err := os.WriteFile(path, []byte{5, 6, 7, 8, 9, 10, 11, 12}, 0o644); err != nil {
		t.Fatal(err)
	}
	data, err = sl.Shader(gpu.ShaderStageVertex, gpu.ShaderFormatSPIRV)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 8 {
		t.Fatalf("reloaded len = %d, want 8", len(data))
	}

	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := sl.Shader(gpu.ShaderStageVertex, gpu.ShaderFormatSPIRV); err == nil {
		t.Fatal("empty blob did not fail")
	}
}

func TestFontLoaderFallsBackToDefault(t *testing.T) {
	atlas := ui.NewFontAtlas()
	atlas.Begin()
	fl := &FontLoader{FontFile: filepath.Join(t.TempDir(), "missing.ttf"), FontSize: 16}

	f := fl.Load(atlas)
	if f == nil {
		t.Fatal("no default font")
	}
	if atlas.DefaultFont() != f {
		t.Fatal("returned font is not the atlas default")
	}
	if got := len(atlas.Fonts()); got != 1 {
		t.Fatalf("fonts = %d, want only the built-in face", got)
	}
}
