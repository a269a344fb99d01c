package ui

import (
	"encoding/binary"
	"fmt"
	m "math"

	"github.com/spaghettifunk/cumulus/engine/math"
)

// MaxVertices is the most vertices one frame can address with 16-bit indices.
const MaxVertices = 1 << 16

const aaSize float32 = 1.0

// Convert tessellates the recorded primitives into vbuf and ebuf using the
// layout in cfg, and fills list with one command per run of primitives that
// share a clip rectangle and texture. Indices are 16-bit.
//
// The recorded primitives are cleared and the context returns to idle
// whether or not conversion succeeds. On overflow nothing is written past
// either buffer's capacity, list is left empty, and the returned error wraps
// ErrBufferOverflow or ErrIndexOverflow.
func (ctx *Context) Convert(list *DrawList, vbuf, ebuf *Buffer, cfg *ConvertConfig) error {
	if ctx.phase == PhaseAccumulating {
		return fmt.Errorf("%w: Convert while %s", ErrInputPhase, ctx.phase)
	}
	if err := validateLayout(cfg); err != nil {
		return err
	}

	ctx.frame++
	list.Reset()
	list.Frame = ctx.frame

	c := &converter{
		cfg:     cfg,
		list:    list,
		vbuf:    vbuf,
		ebuf:    ebuf,
		clip:    nullRect,
		texture: cfg.NullTexture.Texture,
	}
	for i := range ctx.commands {
		c.convert(&ctx.commands[i])
	}
	ctx.Clear()

	if c.err != nil {
		list.Reset()
		return c.err
	}
	list.VertexCount = c.vertexCount
	for _, cmd := range list.Commands {
		list.ElementCount += cmd.ElemCount
	}
	return nil
}

func validateLayout(cfg *ConvertConfig) error {
	if cfg == nil || len(cfg.VertexLayout) == 0 || cfg.VertexSize == 0 {
		return fmt.Errorf("ui: convert config has no vertex layout")
	}
	for _, el := range cfg.VertexLayout {
		var size uintptr
		switch el.Format {
		case FormatFloat2:
			size = 8
		case FormatR8G8B8A8:
			size = 4
		case FormatR32G32B32A32Float:
			size = 16
		default:
			return fmt.Errorf("ui: unknown vertex format %d", el.Format)
		}
		if el.Attribute != VertexColor && el.Format != FormatFloat2 {
			return fmt.Errorf("ui: attribute %d must be FormatFloat2", el.Attribute)
		}
		if el.Offset+size > cfg.VertexSize {
			return fmt.Errorf("ui: attribute %d at offset %d overflows vertex size %d", el.Attribute, el.Offset, cfg.VertexSize)
		}
	}
	return nil
}

type converter struct {
	cfg  *ConvertConfig
	list *DrawList
	vbuf *Buffer
	ebuf *Buffer

	clip        math.Rect
	texture     Handle
	vertexCount uint32
	err         error
}

// reserve allocates room for one primitive and extends the current draw
// command, or opens a new one when the clip rectangle or texture changed.
// It returns nil slices once the frame has overflowed.
func (c *converter) reserve(vertices, indices int, texture Handle) (vtx, idx []byte, base uint32) {
	vsize := int(c.cfg.VertexSize)
	align := int(c.cfg.VertexAlignment)

	if c.err == nil && int(c.vertexCount)+vertices > MaxVertices {
		c.err = fmt.Errorf("%w: frame needs more than %d vertices", ErrIndexOverflow, MaxVertices)
	}
	vtx = c.vbuf.Alloc(vertices*vsize, align)
	idx = c.ebuf.Alloc(indices*2, 2)
	if vtx == nil || idx == nil {
		// keeps the latest totals, Needed grows with every primitive
		c.err = fmt.Errorf("%w: vertex %d/%d bytes, element %d/%d bytes",
			ErrBufferOverflow, c.vbuf.Needed(), c.vbuf.Cap(), c.ebuf.Needed(), c.ebuf.Cap())
	}
	if c.err != nil {
		return nil, nil, 0
	}

	n := len(c.list.Commands)
	if n == 0 || c.list.Commands[n-1].ClipRect != c.clip || c.list.Commands[n-1].Texture != texture {
		c.list.Commands = append(c.list.Commands, DrawCommand{ClipRect: c.clip, Texture: texture})
		n++
	}
	c.list.Commands[n-1].ElemCount += uint32(indices)

	base = c.vertexCount
	c.vertexCount += uint32(vertices)
	return vtx, idx, base
}

func (c *converter) writeVertex(dst []byte, i int, pos, uv math.Vec2, col math.Color) {
	v := dst[i*int(c.cfg.VertexSize):]
	for _, el := range c.cfg.VertexLayout {
		out := v[el.Offset:]
		switch el.Attribute {
		case VertexPosition:
			putFloat2(out, pos)
		case VertexTexcoord:
			putFloat2(out, uv)
		case VertexColor:
			if el.Format == FormatR32G32B32A32Float {
				binary.LittleEndian.PutUint32(out[0:], m.Float32bits(float32(col.R)/255))
				binary.LittleEndian.PutUint32(out[4:], m.Float32bits(float32(col.G)/255))
				binary.LittleEndian.PutUint32(out[8:], m.Float32bits(float32(col.B)/255))
				binary.LittleEndian.PutUint32(out[12:], m.Float32bits(float32(col.A)/255))
			} else {
				out[0], out[1], out[2], out[3] = col.R, col.G, col.B, col.A
			}
		}
	}
}

func putFloat2(dst []byte, v math.Vec2) {
	binary.LittleEndian.PutUint32(dst[0:], m.Float32bits(v.X))
	binary.LittleEndian.PutUint32(dst[4:], m.Float32bits(v.Y))
}

func putIndex(dst []byte, i int, value uint32) {
	binary.LittleEndian.PutUint16(dst[i*2:], uint16(value))
}

func (c *converter) color(col math.Color) math.Color {
	return col.ScaleAlpha(c.cfg.GlobalAlpha)
}

func (c *converter) convert(cmd *command) {
	if cmd.typ == commandScissor {
		c.clip = cmd.rect
		return
	}
	col := c.color(cmd.color)
	if col.A == 0 {
		return
	}
	lineAA := c.cfg.LineAA == AntiAliasingOn
	shapeAA := c.cfg.ShapeAA == AntiAliasingOn

	switch cmd.typ {
	case commandLine:
		c.strokePolyline(cmd.points[:2], false, col, cmd.thickness, lineAA)
	case commandCurve:
		c.strokePolyline(c.curvePath(cmd.points), false, col, cmd.thickness, lineAA)
	case commandRect:
		c.strokePolyline(c.rectPath(cmd.rect, cmd.rounding), true, col, cmd.thickness, lineAA)
	case commandRectFilled:
		c.fillConvex(c.rectPath(cmd.rect, cmd.rounding), col, shapeAA)
	case commandCircle:
		c.strokePolyline(c.ellipsePath(cmd.rect), true, col, cmd.thickness, lineAA)
	case commandCircleFilled:
		c.fillConvex(c.ellipsePath(cmd.rect), col, shapeAA)
	case commandTriangleFilled:
		c.fillConvex(clockwise(cmd.points[:3]), col, shapeAA)
	case commandText:
		c.text(cmd, col)
	case commandImage:
		c.quad(cmd.rect.Min(), cmd.rect.Max(), math.NewVec2(0, 0), math.NewVec2(1, 1), col, cmd.image)
	}
}

// fillConvex fills a clockwise convex polygon. With anti-aliasing every
// edge gets a one-unit fringe fading to transparent.
func (c *converter) fillConvex(points []math.Vec2, col math.Color, aa bool) {
	n := len(points)
	if n < 3 {
		return
	}
	uv := c.cfg.NullTexture.UV
	tex := c.cfg.NullTexture.Texture

	if !aa {
		vtx, idx, base := c.reserve(n, (n-2)*3, tex)
		if vtx == nil {
			return
		}
		for i, p := range points {
			c.writeVertex(vtx, i, p, uv, col)
		}
		for i := 2; i < n; i++ {
			putIndex(idx, (i-2)*3+0, base)
			putIndex(idx, (i-2)*3+1, base+uint32(i-1))
			putIndex(idx, (i-2)*3+2, base+uint32(i))
		}
		return
	}

	transparent := col
	transparent.A = 0
	vtx, idx, base := c.reserve(n*2, (n-2)*3+n*6, tex)
	if vtx == nil {
		return
	}

	normals := make([]math.Vec2, n)
	for i0, i1 := n-1, 0; i1 < n; i0, i1 = i1, i1+1 {
		d := points[i1].Sub(points[i0]).Normalize()
		normals[i0] = math.NewVec2(d.Y, -d.X)
	}
	for i0, i1 := n-1, 0; i1 < n; i0, i1 = i1, i1+1 {
		dm := miter(normals[i0], normals[i1]).Scale(aaSize * 0.5)
		c.writeVertex(vtx, i1*2+0, points[i1].Sub(dm), uv, col)
		c.writeVertex(vtx, i1*2+1, points[i1].Add(dm), uv, transparent)
	}

	k := 0
	for i := 2; i < n; i++ {
		putIndex(idx, k+0, base)
		putIndex(idx, k+1, base+uint32((i-1)*2))
		putIndex(idx, k+2, base+uint32(i*2))
		k += 3
	}
	for i0, i1 := n-1, 0; i1 < n; i0, i1 = i1, i1+1 {
		putIndex(idx, k+0, base+uint32(i1*2))
		putIndex(idx, k+1, base+uint32(i0*2))
		putIndex(idx, k+2, base+uint32(i0*2+1))
		putIndex(idx, k+3, base+uint32(i0*2+1))
		putIndex(idx, k+4, base+uint32(i1*2+1))
		putIndex(idx, k+5, base+uint32(i1*2))
		k += 6
	}
}

// miter averages two edge normals and scales the result so the offset
// keeps a constant distance from both edges.
func miter(n0, n1 math.Vec2) math.Vec2 {
	dm := n0.Add(n1).Scale(0.5)
	if d2 := dm.LengthSquared(); d2 > 0.000001 {
		dm = dm.Scale(math.Min(1.0/d2, 100.0))
	}
	return dm
}

// strokePolyline draws every segment as its own quad. With anti-aliasing
// each quad gets a fringe on both sides.
func (c *converter) strokePolyline(points []math.Vec2, closed bool, col math.Color, thickness float32, aa bool) {
	n := len(points)
	if n < 2 {
		return
	}
	segments := n - 1
	if closed {
		segments = n
	}
	uv := c.cfg.NullTexture.UV
	tex := c.cfg.NullTexture.Texture
	half := thickness * 0.5
	transparent := col
	transparent.A = 0

	for s := 0; s < segments; s++ {
		p0, p1 := points[s], points[(s+1)%n]
		d := p1.Sub(p0).Normalize()
		normal := d.Perp()

		if !aa {
			vtx, idx, base := c.reserve(4, 6, tex)
			if vtx == nil {
				return
			}
			off := normal.Scale(half)
			c.writeVertex(vtx, 0, p0.Add(off), uv, col)
			c.writeVertex(vtx, 1, p1.Add(off), uv, col)
			c.writeVertex(vtx, 2, p1.Sub(off), uv, col)
			c.writeVertex(vtx, 3, p0.Sub(off), uv, col)
			putQuad(idx, 0, base, base+1, base+2, base+3)
			continue
		}

		vtx, idx, base := c.reserve(8, 18, tex)
		if vtx == nil {
			return
		}
		offsets := [4]float32{half + aaSize, half, -half, -half - aaSize}
		for i, o := range offsets {
			vc := col
			if i == 0 || i == 3 {
				vc = transparent
			}
			c.writeVertex(vtx, i, p0.Add(normal.Scale(o)), uv, vc)
			c.writeVertex(vtx, i+4, p1.Add(normal.Scale(o)), uv, vc)
		}
		for q := uint32(0); q < 3; q++ {
			putQuad(idx, int(q)*6, base+q, base+q+4, base+q+5, base+q+1)
		}
	}
}

func putQuad(idx []byte, at int, a, b, c, d uint32) {
	putIndex(idx, at+0, a)
	putIndex(idx, at+1, b)
	putIndex(idx, at+2, c)
	putIndex(idx, at+3, a)
	putIndex(idx, at+4, c)
	putIndex(idx, at+5, d)
}

func (c *converter) quad(a, b, uvA, uvB math.Vec2, col math.Color, texture Handle) {
	vtx, idx, base := c.reserve(4, 6, texture)
	if vtx == nil {
		return
	}
	c.writeVertex(vtx, 0, a, uvA, col)
	c.writeVertex(vtx, 1, math.NewVec2(b.X, a.Y), math.NewVec2(uvB.X, uvA.Y), col)
	c.writeVertex(vtx, 2, b, uvB, col)
	c.writeVertex(vtx, 3, math.NewVec2(a.X, b.Y), math.NewVec2(uvA.X, uvB.Y), col)
	putQuad(idx, 0, base, base+1, base+2, base+3)
}

func (c *converter) text(cmd *command, col math.Color) {
	f := cmd.font
	x := cmd.rect.X
	y := cmd.rect.Y
	right := cmd.rect.X + cmd.rect.W
	prev := rune(-1)
	for _, r := range cmd.text {
		g, ok := f.Glyph(r)
		if !ok {
			continue
		}
		if prev >= 0 {
			x += f.Kerning(prev, r)
		}
		prev = r
		if x+g.XAdvance > right {
			break
		}
		if g.X1 > g.X0 && g.Y1 > g.Y0 {
			c.quad(
				math.NewVec2(x+g.X0, y+g.Y0), math.NewVec2(x+g.X1, y+g.Y1),
				math.NewVec2(g.U0, g.V0), math.NewVec2(g.U1, g.V1),
				col, f.Texture)
		}
		x += g.XAdvance
	}
}

// rectPath walks r clockwise, rounding the corners with arcs.
func (c *converter) rectPath(r math.Rect, rounding float32) []math.Vec2 {
	rounding = math.Min(rounding, math.Min(r.W, r.H)*0.5)
	if rounding <= 0 {
		return []math.Vec2{
			{X: r.X, Y: r.Y},
			{X: r.X + r.W, Y: r.Y},
			{X: r.X + r.W, Y: r.Y + r.H},
			{X: r.X, Y: r.Y + r.H},
		}
	}
	segments := int(math.Max(c.cfg.ArcSegmentCount/4, 2))
	path := make([]math.Vec2, 0, 4*(segments+1))
	corners := [4]struct {
		center math.Vec2
		from   float32
	}{
		{math.NewVec2(r.X+rounding, r.Y+rounding), math.K_PI},
		{math.NewVec2(r.X+r.W-rounding, r.Y+rounding), math.K_PI * 1.5},
		{math.NewVec2(r.X+r.W-rounding, r.Y+r.H-rounding), 0},
		{math.NewVec2(r.X+rounding, r.Y+r.H-rounding), math.K_HALF_PI},
	}
	for _, corner := range corners {
		path = appendArc(path, corner.center, rounding, rounding, corner.from, corner.from+math.K_HALF_PI, segments)
	}
	return path
}

func (c *converter) ellipsePath(r math.Rect) []math.Vec2 {
	segments := int(math.Max(c.cfg.CircleSegmentCount, 3))
	center := math.NewVec2(r.X+r.W*0.5, r.Y+r.H*0.5)
	// the closing point would duplicate the first one
	path := appendArc(nil, center, r.W*0.5, r.H*0.5, 0, math.K_PI_2, segments)
	return path[:len(path)-1]
}

// appendArc samples segments+1 points from angle a0 to a1. Angles grow
// clockwise on screen since y points down.
func appendArc(path []math.Vec2, center math.Vec2, rx, ry, a0, a1 float32, segments int) []math.Vec2 {
	for i := 0; i <= segments; i++ {
		a := a0 + (a1-a0)*float32(i)/float32(segments)
		path = append(path, math.NewVec2(center.X+math.Cos(a)*rx, center.Y+math.Sin(a)*ry))
	}
	return path
}

func (c *converter) curvePath(p [4]math.Vec2) []math.Vec2 {
	segments := int(math.Max(c.cfg.CurveSegmentCount, 1))
	path := make([]math.Vec2, 0, segments+1)
	for i := 0; i <= segments; i++ {
		t := float32(i) / float32(segments)
		u := 1 - t
		w0, w1, w2, w3 := u*u*u, 3*u*u*t, 3*u*t*t, t*t*t
		path = append(path, math.NewVec2(
			w0*p[0].X+w1*p[1].X+w2*p[2].X+w3*p[3].X,
			w0*p[0].Y+w1*p[1].Y+w2*p[2].Y+w3*p[3].Y,
		))
	}
	return path
}

// clockwise returns the triangle in screen-space clockwise order so the
// fringe normals point outwards.
func clockwise(tri []math.Vec2) []math.Vec2 {
	a, b, cc := tri[0], tri[1], tri[2]
	cross := (b.X-a.X)*(cc.Y-a.Y) - (b.Y-a.Y)*(cc.X-a.X)
	if cross < 0 {
		return []math.Vec2{a, cc, b}
	}
	return []math.Vec2{a, b, cc}
}
