package ui

import "github.com/spaghettifunk/cumulus/engine/math"

type commandType uint8

const (
	commandScissor commandType = iota
	commandLine
	commandCurve
	commandRect
	commandRectFilled
	commandCircle
	commandCircleFilled
	commandTriangleFilled
	commandText
	commandImage
)

// command is one widget-level drawing primitive, recorded in submission
// order and tessellated by Convert.
type command struct {
	typ       commandType
	rect      math.Rect
	rounding  float32
	thickness float32
	color     math.Color
	points    [4]math.Vec2
	text      string
	font      *Font
	image     Handle
}

// nullRect is the clip rectangle in effect before any scissor command.
var nullRect = math.NewRect(-8192, -8192, 16384, 16384)

func (ctx *Context) push(cmd command) {
	ctx.commands = append(ctx.commands, cmd)
}

// SetScissor clips every following primitive to r.
func (ctx *Context) SetScissor(r math.Rect) {
	ctx.clip = r
	ctx.push(command{typ: commandScissor, rect: r})
}

func (ctx *Context) StrokeLine(a, b math.Vec2, thickness float32, col math.Color) {
	if thickness <= 0 {
		return
	}
	ctx.push(command{typ: commandLine, thickness: thickness, color: col, points: [4]math.Vec2{a, b}})
}

// StrokeCurve draws a cubic Bezier from p0 to p3 with control points c1, c2.
func (ctx *Context) StrokeCurve(p0, c1, c2, p3 math.Vec2, thickness float32, col math.Color) {
	if thickness <= 0 {
		return
	}
	ctx.push(command{typ: commandCurve, thickness: thickness, color: col, points: [4]math.Vec2{p0, c1, c2, p3}})
}

func (ctx *Context) StrokeRect(r math.Rect, rounding, thickness float32, col math.Color) {
	if r.Empty() || thickness <= 0 {
		return
	}
	ctx.push(command{typ: commandRect, rect: r, rounding: rounding, thickness: thickness, color: col})
}

func (ctx *Context) FillRect(r math.Rect, rounding float32, col math.Color) {
	if r.Empty() {
		return
	}
	ctx.push(command{typ: commandRectFilled, rect: r, rounding: rounding, color: col})
}

// StrokeCircle outlines the ellipse inscribed in r.
func (ctx *Context) StrokeCircle(r math.Rect, thickness float32, col math.Color) {
	if r.Empty() || thickness <= 0 {
		return
	}
	ctx.push(command{typ: commandCircle, rect: r, thickness: thickness, color: col})
}

// FillCircle fills the ellipse inscribed in r.
func (ctx *Context) FillCircle(r math.Rect, col math.Color) {
	if r.Empty() {
		return
	}
	ctx.push(command{typ: commandCircleFilled, rect: r, color: col})
}

func (ctx *Context) FillTriangle(a, b, c math.Vec2, col math.Color) {
	ctx.push(command{typ: commandTriangleFilled, color: col, points: [4]math.Vec2{a, b, c}})
}

// DrawText draws s starting at the top-left of r, clipped to r's width.
func (ctx *Context) DrawText(r math.Rect, s string, font *Font, col math.Color) {
	if font == nil || len(s) == 0 || r.Empty() {
		return
	}
	ctx.push(command{typ: commandText, rect: r, text: s, font: font, color: col})
}

// DrawImage stretches the texture img over r, tinted by col.
func (ctx *Context) DrawImage(r math.Rect, img Handle, col math.Color) {
	if r.Empty() {
		return
	}
	ctx.push(command{typ: commandImage, rect: r, image: img, color: col})
}

// CommandCount reports how many primitives are waiting for Convert.
func (ctx *Context) CommandCount() int {
	return len(ctx.commands)
}
