package ui

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sort"

	"github.com/fzipp/bmfont"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/spaghettifunk/cumulus/engine/math"
)

// GlyphRange is an inclusive range of code points to rasterize.
type GlyphRange struct {
	First, Last rune
}

var (
	RangeASCII  = []GlyphRange{{0x20, 0x7E}}
	RangeLatin1 = []GlyphRange{{0x20, 0x7E}, {0xA0, 0xFF}}
)

const (
	atlasMinWidth = 512
	atlasPadding  = 1
	// Side of the opaque white block the null texture samples from.
	whiteBlockSize = 3
)

type pendingGlyph struct {
	font   *Font
	glyph  Glyph
	img    *image.NRGBA
	placed image.Rectangle
}

// FontAtlas rasterizes fonts into a single RGBA image. Fonts are added
// between Begin and Bake; the renderer uploads the baked image and hands the
// resulting texture to End.
type FontAtlas struct {
	fonts       []*Font
	pending     []*pendingGlyph
	defaultFont *Font
	image       *image.RGBA
	white       image.Rectangle
	baked       bool
}

func NewFontAtlas() *FontAtlas {
	return &FontAtlas{}
}

// Begin clears the atlas.
func (a *FontAtlas) Begin() {
	a.fonts = nil
	a.pending = nil
	a.defaultFont = nil
	a.image = nil
	a.white = image.Rectangle{}
	a.baked = false
}

func (a *FontAtlas) Fonts() []*Font {
	return a.fonts
}

// DefaultFont is the first font added unless SetDefaultFont was called.
func (a *FontAtlas) DefaultFont() *Font {
	if a.defaultFont != nil {
		return a.defaultFont
	}
	if len(a.fonts) > 0 {
		return a.fonts[0]
	}
	return nil
}

func (a *FontAtlas) SetDefaultFont(f *Font) {
	a.defaultFont = f
}

// Image is the baked atlas, nil before Bake.
func (a *FontAtlas) Image() *image.RGBA {
	return a.image
}

// AddDefault adds the built-in 7x13 bitmap face.
func (a *FontAtlas) AddDefault() *Font {
	f, _ := a.AddFace("default", basicfont.Face7x13, RangeASCII)
	return f
}

// AddTTF parses a TrueType/OpenType font and rasterizes it at size pixels.
func (a *FontAtlas) AddTTF(name string, data []byte, size float32) (*Font, error) {
	parsed, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font %q: %w", name, err)
	}
	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create face for %q: %w", name, err)
	}
	defer face.Close()
	return a.AddFace(name, face, RangeLatin1)
}

// AddFace rasterizes every code point of ranges the face provides.
func (a *FontAtlas) AddFace(name string, face font.Face, ranges []GlyphRange) (*Font, error) {
	if a.baked {
		return nil, fmt.Errorf("cannot add font %q to a baked atlas", name)
	}
	metrics := face.Metrics()
	ascent := metrics.Ascent.Ceil()
	f := newFont(name, float32(metrics.Height.Ceil()), float32(ascent))

	dot := fixed.Point26_6{X: 0, Y: fixed.I(ascent)}
	for _, rng := range ranges {
		for r := rng.First; r <= rng.Last; r++ {
			dr, mask, maskp, advance, ok := face.Glyph(dot, r)
			if !ok {
				continue
			}
			// the mask may be reused by the face on the next call
			img := image.NewNRGBA(image.Rect(0, 0, dr.Dx(), dr.Dy()))
			draw.DrawMask(img, img.Bounds(), image.White, image.Point{}, mask, maskp, draw.Src)

			g := Glyph{
				Codepoint: r,
				X0:        float32(dr.Min.X),
				Y0:        float32(dr.Min.Y),
				X1:        float32(dr.Max.X),
				Y1:        float32(dr.Max.Y),
				XAdvance:  float32(advance) / 64,
			}
			a.pending = append(a.pending, &pendingGlyph{font: f, glyph: g, img: img})
			f.glyphs[r] = g
		}
	}
	if len(f.glyphs) == 0 {
		return nil, fmt.Errorf("font %q has no glyphs in the requested ranges", name)
	}
	a.fonts = append(a.fonts, f)
	return f, nil
}

// AddBitmapFont loads an AngelCode .fnt file and its page images.
func (a *FontAtlas) AddBitmapFont(path string) (*Font, error) {
	if a.baked {
		return nil, fmt.Errorf("cannot add font %q to a baked atlas", path)
	}
	bf, err := bmfont.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load bitmap font %q: %w", path, err)
	}
	desc := bf.Descriptor

	pages := make(map[int]image.Image, len(desc.Pages))
	for _, p := range desc.Pages {
		img, err := loadPNG(filepath.Join(filepath.Dir(path), p.File))
		if err != nil {
			return nil, fmt.Errorf("failed to load page %d of %q: %w", p.ID, path, err)
		}
		pages[int(p.ID)] = img
	}

	name := desc.Info.Face
	if name == "" {
		name = filepath.Base(path)
	}
	f := newFont(name, float32(desc.Common.LineHeight), float32(desc.Common.Base))

	for _, ch := range desc.Chars {
		page, ok := pages[int(ch.Page)]
		if !ok {
			continue
		}
		x, y, w, h := int(ch.X), int(ch.Y), int(ch.Width), int(ch.Height)
		img := image.NewNRGBA(image.Rect(0, 0, w, h))
		draw.Draw(img, img.Bounds(), page, image.Pt(x, y), draw.Src)

		g := Glyph{
			Codepoint: rune(ch.ID),
			X0:        float32(ch.XOffset),
			Y0:        float32(ch.YOffset),
			X1:        float32(int(ch.XOffset) + w),
			Y1:        float32(int(ch.YOffset) + h),
			XAdvance:  float32(ch.XAdvance),
		}
		a.pending = append(a.pending, &pendingGlyph{font: f, glyph: g, img: img})
		f.glyphs[g.Codepoint] = g
	}
	for pair, k := range desc.Kerning {
		f.kerning[kernPair{rune(pair.First), rune(pair.Second)}] = float32(k.Amount)
	}
	if len(f.glyphs) == 0 {
		return nil, fmt.Errorf("bitmap font %q has no glyphs", path)
	}
	a.fonts = append(a.fonts, f)
	return f, nil
}

func loadPNG(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return png.Decode(file)
}

// Bake packs every pending glyph and a white block into one straight-alpha
// RGBA image.
func (a *FontAtlas) Bake() (*image.RGBA, error) {
	if len(a.fonts) == 0 {
		return nil, fmt.Errorf("font atlas is empty")
	}

	width := atlasMinWidth
	for _, p := range a.pending {
		width = math.Max(width, p.img.Rect.Dx()+2*atlasPadding)
	}

	order := make([]*pendingGlyph, len(a.pending))
	copy(order, a.pending)
	sort.SliceStable(order, func(i, j int) bool {
		return order[i].img.Rect.Dy() > order[j].img.Rect.Dy()
	})

	// shelf packing: fill rows left to right, tallest glyphs first
	a.white = image.Rect(0, 0, whiteBlockSize, whiteBlockSize)
	x, y := whiteBlockSize+atlasPadding, 0
	shelf := whiteBlockSize
	for _, p := range order {
		w, h := p.img.Rect.Dx(), p.img.Rect.Dy()
		if x+w > width {
			y += shelf + atlasPadding
			x, shelf = 0, 0
		}
		p.placed = image.Rect(x, y, x+w, y+h)
		x += w + atlasPadding
		shelf = math.Max(shelf, h)
	}
	height := nextPowerOfTwo(y + shelf)

	atlas := image.NewRGBA(image.Rect(0, 0, width, height))
	for py := a.white.Min.Y; py < a.white.Max.Y; py++ {
		for px := a.white.Min.X; px < a.white.Max.X; px++ {
			atlas.SetRGBA(px, py, color.RGBA{255, 255, 255, 255})
		}
	}
	// copy raw bytes: the atlas holds straight alpha, not premultiplied
	for _, p := range a.pending {
		w := p.img.Rect.Dx()
		for row := 0; row < p.img.Rect.Dy(); row++ {
			src := p.img.Pix[row*p.img.Stride : row*p.img.Stride+w*4]
			off := atlas.PixOffset(p.placed.Min.X, p.placed.Min.Y+row)
			copy(atlas.Pix[off:off+w*4], src)
		}
	}

	fw, fh := float32(width), float32(height)
	for _, p := range a.pending {
		g := p.glyph
		g.U0 = float32(p.placed.Min.X) / fw
		g.V0 = float32(p.placed.Min.Y) / fh
		g.U1 = float32(p.placed.Max.X) / fw
		g.V1 = float32(p.placed.Max.Y) / fh
		p.font.glyphs[g.Codepoint] = g
	}

	a.image = atlas
	return atlas, nil
}

// End finishes the atlas with the texture the baked image was uploaded to.
// It returns the null texture for untextured shapes.
func (a *FontAtlas) End(texture Handle) (NullTexture, error) {
	if a.image == nil {
		return NullTexture{}, ErrAtlasNotBaked
	}
	for _, f := range a.fonts {
		f.Texture = texture
	}
	a.pending = nil
	a.baked = true

	b := a.image.Bounds()
	center := a.white.Min.Add(image.Pt(whiteBlockSize/2, whiteBlockSize/2))
	return NullTexture{
		Texture: texture,
		UV: math.NewVec2(
			(float32(center.X)+0.5)/float32(b.Dx()),
			(float32(center.Y)+0.5)/float32(b.Dy()),
		),
	}, nil
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
