package math

func NewRect(x, y, w, h float32) Rect {
	return Rect{X: x, Y: y, W: w, H: h}
}

// Intersect returns the overlap of r and other. Disjoint rectangles yield a
// rectangle with zero width or height.
func (r Rect) Intersect(other Rect) Rect {
	x0 := Max(r.X, other.X)
	y0 := Max(r.Y, other.Y)
	x1 := Min(r.X+r.W, other.X+other.W)
	y1 := Min(r.Y+r.H, other.Y+other.H)
	return Rect{X: x0, Y: y0, W: Max(0, x1-x0), H: Max(0, y1-y0)}
}

func (r Rect) Contains(p Vec2) bool {
	return p.X >= r.X && p.X < r.X+r.W && p.Y >= r.Y && p.Y < r.Y+r.H
}

func (r Rect) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// Scale multiplies the origin and size by sx, sy.
func (r Rect) Scale(sx, sy float32) Rect {
	return Rect{X: r.X * sx, Y: r.Y * sy, W: r.W * sx, H: r.H * sy}
}

func (r Rect) Min() Vec2 {
	return Vec2{r.X, r.Y}
}

func (r Rect) Max() Vec2 {
	return Vec2{r.X + r.W, r.Y + r.H}
}

func (r Rect) Shrink(pad float32) Rect {
	return Rect{X: r.X + pad, Y: r.Y + pad, W: Max(0, r.W-2*pad), H: Max(0, r.H-2*pad)}
}

// NewColor packs r, g, b, a into a Color.
func NewColor(r, g, b, a uint8) Color {
	return Color{R: r, G: g, B: b, A: a}
}

// NewColorF converts normalized float components, clamping each to [0,1].
func NewColorF(r, g, b, a float32) Color {
	return Color{
		R: uint8(Clamp(r, 0, 1)*255 + 0.5),
		G: uint8(Clamp(g, 0, 1)*255 + 0.5),
		B: uint8(Clamp(b, 0, 1)*255 + 0.5),
		A: uint8(Clamp(a, 0, 1)*255 + 0.5),
	}
}

// ScaleAlpha multiplies the alpha channel by f.
func (c Color) ScaleAlpha(f float32) Color {
	c.A = uint8(Clamp(float32(c.A)*f, 0, 255))
	return c
}
