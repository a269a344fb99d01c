package ui

import (
	"encoding/binary"
	"errors"
	m "math"
	"testing"

	"github.com/spaghettifunk/cumulus/engine/math"
)

const testVertexSize = 20

func testConfig() *ConvertConfig {
	cfg := DefaultConvertConfig()
	cfg.LineAA = AntiAliasingOff
	cfg.ShapeAA = AntiAliasingOff
	cfg.NullTexture = NullTexture{Texture: 1, UV: math.NewVec2(0.25, 0.75)}
	cfg.VertexLayout = []VertexLayoutElement{
		{Attribute: VertexPosition, Format: FormatFloat2, Offset: 0},
		{Attribute: VertexTexcoord, Format: FormatFloat2, Offset: 8},
		{Attribute: VertexColor, Format: FormatR8G8B8A8, Offset: 16},
	}
	cfg.VertexSize = testVertexSize
	cfg.VertexAlignment = 4
	return &cfg
}

type vertex struct {
	pos, uv math.Vec2
	col     math.Color
}

func readFloat(b []byte) float32 {
	return m.Float32frombits(binary.LittleEndian.Uint32(b))
}

func readVertex(buf []byte, i int) vertex {
	v := buf[i*testVertexSize:]
	return vertex{
		pos: math.NewVec2(readFloat(v[0:]), readFloat(v[4:])),
		uv:  math.NewVec2(readFloat(v[8:]), readFloat(v[12:])),
		col: math.NewColor(v[16], v[17], v[18], v[19]),
	}
}

func readIndices(buf []byte) []uint16 {
	out := make([]uint16, len(buf)/2)
	for i := range out {
		out[i] = binary.LittleEndian.Uint16(buf[i*2:])
	}
	return out
}

func convert(t *testing.T, ctx *Context, cfg *ConvertConfig) (*DrawList, *Buffer, *Buffer) {
	t.Helper()
	list := NewDrawList()
	vbuf := NewFixedBuffer(512 * 1024)
	ebuf := NewFixedBuffer(128 * 1024)
	if err := ctx.Convert(list, vbuf, ebuf, cfg); err != nil {
		t.Fatalf("Convert: %v", err)
	}
	return list, vbuf, ebuf
}

func TestConvertEmptyFrame(t *testing.T) {
	ctx := NewContext(nil)
	list, vbuf, ebuf := convert(t, ctx, testConfig())
	if list.Len() != 0 || vbuf.Len() != 0 || ebuf.Len() != 0 {
		t.Fatalf("empty frame produced %d commands, %d vertex bytes, %d index bytes", list.Len(), vbuf.Len(), ebuf.Len())
	}
	if list.Frame != 1 {
		t.Fatalf("frame = %d, want 1", list.Frame)
	}
}

func TestConvertFilledRect(t *testing.T) {
	ctx := NewContext(nil)
	white := math.NewColor(255, 255, 255, 255)
	ctx.FillRect(math.NewRect(0, 0, 10, 20), 0, white)

	cfg := testConfig()
	list, vbuf, ebuf := convert(t, ctx, cfg)

	if vbuf.Len() != 4*testVertexSize {
		t.Fatalf("vertex bytes = %d, want %d", vbuf.Len(), 4*testVertexSize)
	}
	if ebuf.Len() != 6*2 {
		t.Fatalf("index bytes = %d, want 12", ebuf.Len())
	}
	if list.Len() != 1 || list.Commands[0].ElemCount != 6 || list.Commands[0].Texture != cfg.NullTexture.Texture {
		t.Fatalf("unexpected commands %+v", list.Commands)
	}
	if list.Commands[0].ClipRect != nullRect {
		t.Fatalf("clip = %v, want the null rect", list.Commands[0].ClipRect)
	}

	want := []math.Vec2{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 20}, {X: 0, Y: 20}}
	for i, p := range want {
		v := readVertex(vbuf.Bytes(), i)
		if v.pos != p {
			t.Errorf("vertex %d at %v, want %v", i, v.pos, p)
		}
		if v.uv != cfg.NullTexture.UV {
			t.Errorf("vertex %d uv %v, want the null texture uv", i, v.uv)
		}
		if v.col != white {
			t.Errorf("vertex %d color %v", i, v.col)
		}
	}
	idx := readIndices(ebuf.Bytes())
	wantIdx := []uint16{0, 1, 2, 0, 2, 3}
	for i := range wantIdx {
		if idx[i] != wantIdx[i] {
			t.Fatalf("indices = %v, want %v", idx, wantIdx)
		}
	}
}

func TestConvertAntiAliasedRectAddsFringe(t *testing.T) {
	ctx := NewContext(nil)
	ctx.FillRect(math.NewRect(0, 0, 10, 10), 0, math.NewColor(255, 0, 0, 255))

	cfg := testConfig()
	cfg.ShapeAA = AntiAliasingOn
	list, vbuf, _ := convert(t, ctx, cfg)

	if list.VertexCount != 8 {
		t.Fatalf("vertex count = %d, want 8", list.VertexCount)
	}
	if list.ElementCount != 2*3+4*6 {
		t.Fatalf("element count = %d, want 30", list.ElementCount)
	}
	// inner vertices keep the color, outer ones fade out
	for i := 0; i < 8; i++ {
		v := readVertex(vbuf.Bytes(), i)
		wantA := uint8(255)
		if i%2 == 1 {
			wantA = 0
		}
		if v.col.A != wantA {
			t.Errorf("vertex %d alpha = %d, want %d", i, v.col.A, wantA)
		}
	}
	outer := readVertex(vbuf.Bytes(), 1).pos
	if outer.X >= 0 || outer.Y >= 0 {
		t.Errorf("outer fringe of the top-left corner should lie outside the rect, got %v", outer)
	}
}

func TestConvertBatchesByClipAndTexture(t *testing.T) {
	ctx := NewContext(nil)
	col := math.NewColor(10, 20, 30, 255)
	r := math.NewRect(0, 0, 5, 5)

	ctx.FillRect(r, 0, col)
	ctx.FillRect(r, 0, col)
	ctx.SetScissor(math.NewRect(1, 2, 3, 4))
	ctx.FillRect(r, 0, col)
	ctx.DrawImage(r, 7, col)
	ctx.DrawImage(r, 7, col)
	ctx.FillRect(r, 0, col)

	list, _, ebuf := convert(t, ctx, testConfig())

	want := []DrawCommand{
		{ClipRect: nullRect, ElemCount: 12, Texture: 1},
		{ClipRect: math.NewRect(1, 2, 3, 4), ElemCount: 6, Texture: 1},
		{ClipRect: math.NewRect(1, 2, 3, 4), ElemCount: 12, Texture: 7},
		{ClipRect: math.NewRect(1, 2, 3, 4), ElemCount: 6, Texture: 1},
	}
	if list.Len() != len(want) {
		t.Fatalf("got %d commands, want %d: %+v", list.Len(), len(want), list.Commands)
	}
	i := 0
	for cmd := range list.All() {
		if cmd != want[i] {
			t.Errorf("command %d = %+v, want %+v", i, cmd, want[i])
		}
		i++
	}

	var total uint32
	for _, cmd := range list.Commands {
		total += cmd.ElemCount
	}
	if total != list.ElementCount || int(total)*2 != ebuf.Len() {
		t.Fatalf("element counts do not add up: sum %d, list %d, bytes %d", total, list.ElementCount, ebuf.Len())
	}
	for _, idx := range readIndices(ebuf.Bytes()) {
		if uint32(idx) >= list.VertexCount {
			t.Fatalf("index %d out of range of %d vertices", idx, list.VertexCount)
		}
	}
}

func TestConvertClearsRecordedCommands(t *testing.T) {
	ctx := NewContext(nil)
	if err := ctx.BeginInput(); err != nil {
		t.Fatal(err)
	}
	if err := ctx.EndInput(); err != nil {
		t.Fatal(err)
	}
	ctx.FillRect(math.NewRect(0, 0, 1, 1), 0, math.NewColor(1, 1, 1, 255))

	convert(t, ctx, testConfig())
	if ctx.CommandCount() != 0 {
		t.Fatalf("commands left after convert: %d", ctx.CommandCount())
	}
	if ctx.Phase() != PhaseIdle {
		t.Fatalf("phase = %s, want idle", ctx.Phase())
	}

	list, _, _ := convert(t, ctx, testConfig())
	if list.Len() != 0 {
		t.Fatalf("second convert replayed %d commands", list.Len())
	}
	if list.Frame != 2 {
		t.Fatalf("frame = %d, want 2", list.Frame)
	}
}

func TestConvertWhileAccumulatingFails(t *testing.T) {
	ctx := NewContext(nil)
	if err := ctx.BeginInput(); err != nil {
		t.Fatal(err)
	}
	err := ctx.Convert(NewDrawList(), NewFixedBuffer(64), NewFixedBuffer(64), testConfig())
	if !errors.Is(err, ErrInputPhase) {
		t.Fatalf("expected ErrInputPhase, got %v", err)
	}
}

func TestConvertVertexBufferOverflow(t *testing.T) {
	ctx := NewContext(nil)
	ctx.FillRect(math.NewRect(0, 0, 1, 1), 0, math.NewColor(1, 1, 1, 255))
	ctx.FillRect(math.NewRect(0, 0, 1, 1), 0, math.NewColor(1, 1, 1, 255))

	list := NewDrawList()
	vbuf := NewFixedBuffer(4 * testVertexSize)
	ebuf := NewFixedBuffer(1024)
	err := ctx.Convert(list, vbuf, ebuf, testConfig())
	if !errors.Is(err, ErrBufferOverflow) {
		t.Fatalf("expected ErrBufferOverflow, got %v", err)
	}
	if list.Len() != 0 {
		t.Fatalf("overflowed frame kept %d commands", list.Len())
	}
	if vbuf.Len() > vbuf.Cap() {
		t.Fatalf("wrote %d bytes into a %d byte buffer", vbuf.Len(), vbuf.Cap())
	}
	if vbuf.Needed() != 8*testVertexSize {
		t.Fatalf("needed = %d, want %d", vbuf.Needed(), 8*testVertexSize)
	}
	if ctx.CommandCount() != 0 {
		t.Fatal("commands must be cleared even when conversion fails")
	}
}

func TestConvertIndexOverflow(t *testing.T) {
	ctx := NewContext(nil)
	rects := MaxVertices/4 + 1
	for i := 0; i < rects; i++ {
		ctx.FillRect(math.NewRect(0, 0, 1, 1), 0, math.NewColor(1, 1, 1, 255))
	}
	list := NewDrawList()
	vbuf := NewFixedBuffer(rects * 4 * testVertexSize)
	ebuf := NewFixedBuffer(rects * 6 * 2)
	err := ctx.Convert(list, vbuf, ebuf, testConfig())
	if !errors.Is(err, ErrIndexOverflow) {
		t.Fatalf("expected ErrIndexOverflow, got %v", err)
	}
}

func TestConvertAppliesGlobalAlpha(t *testing.T) {
	ctx := NewContext(nil)
	ctx.FillRect(math.NewRect(0, 0, 1, 1), 0, math.NewColor(255, 255, 255, 255))
	cfg := testConfig()
	cfg.GlobalAlpha = 0.5
	_, vbuf, _ := convert(t, ctx, cfg)
	if a := readVertex(vbuf.Bytes(), 0).col.A; a != 127 {
		t.Fatalf("alpha = %d, want 127", a)
	}
}

func TestConvertSkipsTransparentPrimitives(t *testing.T) {
	ctx := NewContext(nil)
	ctx.FillRect(math.NewRect(0, 0, 1, 1), 0, math.NewColor(255, 255, 255, 0))
	list, vbuf, _ := convert(t, ctx, testConfig())
	if list.Len() != 0 || vbuf.Len() != 0 {
		t.Fatal("fully transparent primitive produced geometry")
	}
}

func TestConvertFloatColorLayout(t *testing.T) {
	ctx := NewContext(nil)
	ctx.FillRect(math.NewRect(0, 0, 1, 1), 0, math.NewColor(255, 0, 255, 255))
	cfg := testConfig()
	cfg.VertexLayout[2].Format = FormatR32G32B32A32Float
	cfg.VertexSize = 32

	_, vbuf, _ := convert(t, ctx, cfg)
	if vbuf.Len() != 4*32 {
		t.Fatalf("vertex bytes = %d, want 128", vbuf.Len())
	}
	b := vbuf.Bytes()
	if readFloat(b[16:]) != 1 || readFloat(b[20:]) != 0 || readFloat(b[24:]) != 1 || readFloat(b[28:]) != 1 {
		t.Fatalf("unexpected float color %v %v %v %v", readFloat(b[16:]), readFloat(b[20:]), readFloat(b[24:]), readFloat(b[28:]))
	}
}

func TestConvertCircleUsesSegmentCount(t *testing.T) {
	ctx := NewContext(nil)
	ctx.FillCircle(math.NewRect(0, 0, 10, 10), math.NewColor(255, 255, 255, 255))
	cfg := testConfig()
	cfg.CircleSegmentCount = 12
	list, _, _ := convert(t, ctx, cfg)
	if list.VertexCount != 12 || list.ElementCount != 10*3 {
		t.Fatalf("circle produced %d vertices and %d indices", list.VertexCount, list.ElementCount)
	}
}

func TestConvertStrokes(t *testing.T) {
	col := math.NewColor(255, 255, 255, 255)
	tests := []struct {
		name         string
		aa           AntiAliasing
		draw         func(ctx *Context)
		wantVertices uint32
	}{
		{"line", AntiAliasingOff, func(ctx *Context) {
			ctx.StrokeLine(math.NewVec2(0, 0), math.NewVec2(10, 0), 2, col)
		}, 4},
		{"line aa", AntiAliasingOn, func(ctx *Context) {
			ctx.StrokeLine(math.NewVec2(0, 0), math.NewVec2(10, 0), 2, col)
		}, 8},
		{"rect outline", AntiAliasingOff, func(ctx *Context) {
			ctx.StrokeRect(math.NewRect(0, 0, 10, 10), 0, 1, col)
		}, 16},
		{"curve", AntiAliasingOff, func(ctx *Context) {
			ctx.StrokeCurve(math.NewVec2(0, 0), math.NewVec2(5, 10), math.NewVec2(10, -10), math.NewVec2(15, 0), 1, col)
		}, 22 * 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := NewContext(nil)
			tt.draw(ctx)
			cfg := testConfig()
			cfg.LineAA = tt.aa
			list, _, _ := convert(t, ctx, cfg)
			if list.VertexCount != tt.wantVertices {
				t.Fatalf("vertices = %d, want %d", list.VertexCount, tt.wantVertices)
			}
		})
	}
}

func TestConvertText(t *testing.T) {
	atlas := NewFontAtlas()
	font := atlas.AddDefault()
	if _, err := atlas.Bake(); err != nil {
		t.Fatal(err)
	}
	if _, err := atlas.End(5); err != nil {
		t.Fatal(err)
	}

	ctx := NewContext(font)
	ctx.DrawText(math.NewRect(0, 0, 100, 20), "Hi", font, math.NewColor(255, 255, 255, 255))
	list, vbuf, _ := convert(t, ctx, testConfig())

	if list.Len() != 1 || list.Commands[0].Texture != 5 {
		t.Fatalf("text should draw from the font texture, got %+v", list.Commands)
	}
	if list.VertexCount != 8 {
		t.Fatalf("two glyphs should give 8 vertices, got %d", list.VertexCount)
	}
	g, _ := font.Glyph('H')
	v := readVertex(vbuf.Bytes(), 0)
	if v.uv != math.NewVec2(g.U0, g.V0) {
		t.Fatalf("first vertex uv = %v, want %v", v.uv, math.NewVec2(g.U0, g.V0))
	}
}

func TestConvertRejectsBadLayout(t *testing.T) {
	ctx := NewContext(nil)
	cfg := testConfig()
	cfg.VertexSize = 12
	err := ctx.Convert(NewDrawList(), NewFixedBuffer(64), NewFixedBuffer(64), cfg)
	if err == nil {
		t.Fatal("layout past the vertex size must be rejected")
	}
}
