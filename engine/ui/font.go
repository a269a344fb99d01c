package ui

// Glyph places one character relative to the pen. X0/Y0/X1/Y1 are offsets
// from the pen position at the top of the line; U/V locate the bitmap in the
// atlas once it has been baked.
type Glyph struct {
	Codepoint      rune
	X0, Y0, X1, Y1 float32
	U0, V0, U1, V1 float32
	XAdvance       float32
}

type kernPair struct {
	first, second rune
}

// Font is a set of glyphs living in a FontAtlas.
type Font struct {
	Name string
	// Height is the distance between two baselines.
	Height float32
	Ascent float32
	// Texture is the atlas the glyphs live in. Set by FontAtlas.End.
	Texture Handle

	glyphs   map[rune]Glyph
	fallback rune
	kerning  map[kernPair]float32
}

func newFont(name string, height, ascent float32) *Font {
	return &Font{
		Name:     name,
		Height:   height,
		Ascent:   ascent,
		glyphs:   make(map[rune]Glyph),
		fallback: '?',
		kerning:  make(map[kernPair]float32),
	}
}

// Glyph returns the glyph for r, or the fallback glyph.
func (f *Font) Glyph(r rune) (Glyph, bool) {
	if g, ok := f.glyphs[r]; ok {
		return g, true
	}
	g, ok := f.glyphs[f.fallback]
	return g, ok
}

func (f *Font) Kerning(first, second rune) float32 {
	return f.kerning[kernPair{first, second}]
}

// TextWidth measures s in logical units.
func (f *Font) TextWidth(s string) float32 {
	if f == nil {
		return 0
	}
	var w float32
	prev := rune(-1)
	for _, r := range s {
		g, ok := f.Glyph(r)
		if !ok {
			continue
		}
		if prev >= 0 {
			w += f.Kerning(prev, r)
		}
		w += g.XAdvance
		prev = r
	}
	return w
}

func (f *Font) GlyphCount() int {
	return len(f.glyphs)
}
