package ui

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/font/gofont/goregular"
)

func TestAtlasBakeDefaultFont(t *testing.T) {
	atlas := NewFontAtlas()
	atlas.Begin()
	font := atlas.AddDefault()
	if font == nil {
		t.Fatal("default font not added")
	}
	if atlas.DefaultFont() != font {
		t.Fatal("first font should be the default")
	}

	img, err := atlas.Bake()
	if err != nil {
		t.Fatal(err)
	}
	b := img.Bounds()
	if b.Dx() != atlasMinWidth {
		t.Fatalf("atlas width = %d", b.Dx())
	}
	if h := b.Dy(); h&(h-1) != 0 {
		t.Fatalf("atlas height %d is not a power of two", h)
	}
	if c := img.RGBAAt(1, 1); c != (color.RGBA{255, 255, 255, 255}) {
		t.Fatalf("white block pixel = %v", c)
	}

	null, err := atlas.End(42)
	if err != nil {
		t.Fatal(err)
	}
	if null.Texture != 42 || font.Texture != 42 {
		t.Fatalf("texture not propagated: null %d font %d", null.Texture, font.Texture)
	}
	if null.UV.X != 1.5/float32(b.Dx()) || null.UV.Y != 1.5/float32(b.Dy()) {
		t.Fatalf("null uv = %v", null.UV)
	}

	g, ok := font.Glyph('A')
	if !ok {
		t.Fatal("glyph A missing")
	}
	if g.U0 < 0 || g.U1 > 1 || g.V0 < 0 || g.V1 > 1 || g.U1 <= g.U0 || g.V1 <= g.V0 {
		t.Fatalf("glyph uv out of range: %+v", g)
	}
	if w := font.TextWidth("abc"); w != 21 {
		t.Fatalf("TextWidth(abc) = %v, want 21", w)
	}
	if _, ok := font.Glyph('世'); !ok {
		t.Fatal("missing glyphs should fall back")
	}
}

func TestAtlasGlyphPixelsAreStraightAlpha(t *testing.T) {
	atlas := NewFontAtlas()
	font := atlas.AddDefault()
	img, err := atlas.Bake()
	if err != nil {
		t.Fatal(err)
	}
	g, _ := font.Glyph('W')
	w, h := float32(img.Bounds().Dx()), float32(img.Bounds().Dy())
	covered := 0
	for y := int(g.V0 * h); y < int(g.V1*h); y++ {
		for x := int(g.U0 * w); x < int(g.U1*w); x++ {
			c := img.RGBAAt(x, y)
			if c.A == 0 {
				continue
			}
			covered++
			if c.R != 255 || c.G != 255 || c.B != 255 {
				t.Fatalf("glyph pixel %v should be white with coverage in alpha", c)
			}
		}
	}
	if covered == 0 {
		t.Fatal("glyph W has no coverage")
	}
}

func TestAtlasEndBeforeBake(t *testing.T) {
	atlas := NewFontAtlas()
	atlas.AddDefault()
	if _, err := atlas.End(1); !errors.Is(err, ErrAtlasNotBaked) {
		t.Fatalf("expected ErrAtlasNotBaked, got %v", err)
	}
}

func TestAtlasBakeEmpty(t *testing.T) {
	if _, err := NewFontAtlas().Bake(); err == nil {
		t.Fatal("baking an empty atlas should fail")
	}
}

func TestAtlasAddTTF(t *testing.T) {
	atlas := NewFontAtlas()
	font, err := atlas.AddTTF("goregular", goregular.TTF, 16)
	if err != nil {
		t.Fatal(err)
	}
	if font.Height <= 0 || font.GlyphCount() < 95 {
		t.Fatalf("font height %v with %d glyphs", font.Height, font.GlyphCount())
	}
	if _, err := atlas.Bake(); err != nil {
		t.Fatal(err)
	}
	if _, err := atlas.End(3); err != nil {
		t.Fatal(err)
	}
	if _, err := atlas.AddTTF("late", goregular.TTF, 16); err == nil {
		t.Fatal("adding to a finished atlas should fail")
	}
}

func TestAtlasAddTTFRejectsGarbage(t *testing.T) {
	if _, err := NewFontAtlas().AddTTF("junk", []byte("not a font"), 12); err == nil {
		t.Fatal("garbage font data should fail to parse")
	}
}

const testFNT = `info face="Test" size=8 bold=0 italic=0 charset="" unicode=1 stretchH=100 smooth=1 aa=1 padding=0,0,0,0 spacing=1,1 outline=0
common lineHeight=10 base=8 scaleW=16 scaleH=16 pages=1 packed=0 alphaChnl=0 redChnl=4 greenChnl=4 blueChnl=4
page id=0 file="test_0.png"
chars count=2
char id=65   x=0     y=0     width=4     height=6     xoffset=0     yoffset=2     xadvance=5     page=0  chnl=15
char id=66   x=5     y=0     width=4     height=6     xoffset=0     yoffset=2     xadvance=6     page=0  chnl=15
kernings count=1
kerning first=65  second=66  amount=-1
`

func TestAtlasAddBitmapFont(t *testing.T) {
	dir := t.TempDir()
	page := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 6; y++ {
		for x := 0; x < 4; x++ {
			page.SetNRGBA(x, y, color.NRGBA{255, 255, 255, 200})
		}
	}
	f, err := os.Create(filepath.Join(dir, "test_0.png"))
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, page); err != nil {
		t.Fatal(err)
	}
	f.Close()
	path := filepath.Join(dir, "test.fnt")
	if err := os.WriteFile(path, []byte(testFNT), 0o644); err != nil {
		t.Fatal(err)
	}

	atlas := NewFontAtlas()
	font, err := atlas.AddBitmapFont(path)
	if err != nil {
		t.Fatal(err)
	}
	if font.Name != "Test" || font.Height != 10 {
		t.Fatalf("font %q height %v", font.Name, font.Height)
	}
	if font.GlyphCount() != 2 {
		t.Fatalf("glyphs = %d", font.GlyphCount())
	}
	if k := font.Kerning('A', 'B'); k != -1 {
		t.Fatalf("kerning = %v", k)
	}
	if w := font.TextWidth("AB"); w != 10 {
		t.Fatalf("TextWidth(AB) = %v, want 10", w)
	}

	img, err := atlas.Bake()
	if err != nil {
		t.Fatal(err)
	}
	g, _ := font.Glyph('A')
	x := int(g.U0 * float32(img.Bounds().Dx()))
	y := int(g.V0 * float32(img.Bounds().Dy()))
	if c := img.RGBAAt(x, y); c.A != 200 || c.R != 255 {
		t.Fatalf("bitmap glyph pixel = %v, want straight alpha 200", c)
	}
}
