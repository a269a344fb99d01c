package ui

import (
	"fmt"

	"github.com/spaghettifunk/cumulus/engine/math"
)

type WindowFlags uint32

const (
	WindowBorder WindowFlags = 1 << iota
	WindowMovable
	WindowTitle
	WindowNoInput
)

type TextAlign int

const (
	AlignLeft TextAlign = iota
	AlignCentered
	AlignRight
)

type row struct {
	height    float32
	cols      int
	index     int
	itemWidth float32
}

type window struct {
	id      uint64
	title   string
	bounds  math.Rect
	flags   WindowFlags
	content math.Rect
	y       float32
	row     row
	moving  bool
}

// Begin starts a window. The bounds are only used the first time a title is
// seen; afterwards the window remembers where it was moved to.
func (ctx *Context) Begin(title string, bounds math.Rect, flags WindowFlags) bool {
	w, ok := ctx.windows[title]
	if !ok {
		w = &window{id: uint64(len(ctx.windows) + 1), title: title, bounds: bounds}
		ctx.windows[title] = w
	}
	w.flags = flags
	w.row = row{}
	ctx.current = w
	ctx.widgetID = 0

	st := &ctx.style
	in := &ctx.input
	header := math.NewRect(w.bounds.X, w.bounds.Y, w.bounds.W, 0)
	if flags&WindowTitle != 0 {
		header.H = st.HeaderHeight
	}

	if flags&WindowMovable != 0 && flags&WindowNoInput == 0 {
		drag := header
		if drag.Empty() {
			drag = w.bounds
		}
		if w.moving {
			if in.IsMouseDown(ButtonLeft) {
				w.bounds.X += in.Mouse.Delta.X
				w.bounds.Y += in.Mouse.Delta.Y
				header.X, header.Y = w.bounds.X, w.bounds.Y
			} else {
				w.moving = false
			}
		} else if in.IsMouseClickedInRect(ButtonLeft, drag) {
			w.moving = true
		}
	}

	ctx.SetScissor(w.bounds)
	ctx.FillRect(w.bounds, 0, st.Window)
	if !header.Empty() {
		ctx.FillRect(header, 0, st.Header)
		ctx.drawAligned(header.Shrink(st.Padding.X), title, AlignLeft, st.Text)
	}
	if flags&WindowBorder != 0 {
		ctx.StrokeRect(w.bounds, 0, st.BorderWidth, st.Border)
	}

	w.content = math.NewRect(
		w.bounds.X+st.Padding.X,
		w.bounds.Y+header.H+st.Padding.Y,
		w.bounds.W-2*st.Padding.X,
		w.bounds.H-header.H-2*st.Padding.Y,
	)
	w.y = w.content.Y
	ctx.SetScissor(w.content)
	return !w.content.Empty()
}

func (ctx *Context) End() {
	ctx.current = nil
}

// WindowBounds returns where a window currently is.
func (ctx *Context) WindowBounds(title string) (math.Rect, bool) {
	w, ok := ctx.windows[title]
	if !ok {
		return math.Rect{}, false
	}
	return w.bounds, true
}

func (ctx *Context) layoutRow(r row) {
	w := ctx.current
	if w == nil {
		return
	}
	if w.row.index > 0 {
		w.y += w.row.height + ctx.style.Spacing.Y
	}
	w.row = r
}

// LayoutRowDynamic splits the following rows into cols equally wide cells.
func (ctx *Context) LayoutRowDynamic(height float32, cols int) {
	ctx.layoutRow(row{height: height, cols: max(cols, 1)})
}

// LayoutRowStatic uses fixed width cells.
func (ctx *Context) LayoutRowStatic(height, itemWidth float32, cols int) {
	ctx.layoutRow(row{height: height, cols: max(cols, 1), itemWidth: itemWidth})
}

func (ctx *Context) rowHeight() float32 {
	if ctx.font == nil {
		return 20
	}
	return ctx.font.Height + 2*ctx.style.Padding.Y
}

// widget reserves the next layout cell. It reports false when the cell is
// outside the window's content area.
func (ctx *Context) widget() (math.Rect, uint64, bool) {
	w := ctx.current
	if w == nil {
		return math.Rect{}, 0, false
	}
	if w.row.cols == 0 {
		ctx.LayoutRowDynamic(ctx.rowHeight(), 1)
	}
	if w.row.index >= w.row.cols {
		w.y += w.row.height + ctx.style.Spacing.Y
		w.row.index = 0
	}

	sp := ctx.style.Spacing.X
	width := w.row.itemWidth
	if width == 0 {
		width = (w.content.W - sp*float32(w.row.cols-1)) / float32(w.row.cols)
	}
	r := math.NewRect(w.content.X+float32(w.row.index)*(width+sp), w.y, width, w.row.height)
	w.row.index++

	ctx.widgetID++
	id := w.id<<16 | ctx.widgetID
	visible := !r.Intersect(w.content).Empty()
	return r, id, visible
}

func (ctx *Context) interactive() bool {
	return ctx.current != nil && ctx.current.flags&WindowNoInput == 0
}

func (ctx *Context) drawAligned(r math.Rect, text string, align TextAlign, col math.Color) {
	if ctx.font == nil {
		return
	}
	tw := ctx.font.TextWidth(text)
	x := r.X
	switch align {
	case AlignCentered:
		x = r.X + (r.W-tw)*0.5
	case AlignRight:
		x = r.X + r.W - tw
	}
	x = math.Max(x, r.X)
	y := r.Y + (r.H-ctx.font.Height)*0.5
	ctx.DrawText(math.NewRect(x, y, r.X+r.W-x, ctx.font.Height), text, ctx.font, col)
}

func (ctx *Context) Spacing(cols int) {
	for i := 0; i < cols; i++ {
		ctx.widget()
	}
}

func (ctx *Context) Label(text string, align TextAlign) {
	r, _, visible := ctx.widget()
	if !visible {
		return
	}
	ctx.drawAligned(r, text, align, ctx.style.Text)
}

// buttonBehavior reports a click: pressed and released inside r.
func (ctx *Context) buttonBehavior(r math.Rect, id uint64) (clicked, hovered, down bool) {
	if !ctx.interactive() {
		return false, false, false
	}
	in := &ctx.input
	hovered = in.IsMouseHovering(r)
	if hovered && in.IsMouseClickedInRect(ButtonLeft, r) {
		ctx.active = id
	}
	down = ctx.active == id && in.IsMouseDown(ButtonLeft)
	if ctx.active == id && !in.IsMouseDown(ButtonLeft) {
		clicked = hovered
		ctx.active = 0
	}
	return clicked, hovered, down
}

func (ctx *Context) Button(label string) bool {
	r, id, visible := ctx.widget()
	if !visible {
		return false
	}
	clicked, hovered, down := ctx.buttonBehavior(r, id)

	st := &ctx.style
	bg := st.Button
	switch {
	case down:
		bg = st.ButtonActive
	case hovered:
		bg = st.ButtonHover
	}
	ctx.FillRect(r, st.Rounding, bg)
	ctx.StrokeRect(r, st.Rounding, st.BorderWidth, st.Border)
	ctx.drawAligned(r, label, AlignCentered, st.Text)
	return clicked
}

// Checkbox toggles *active when clicked and reports whether it changed.
func (ctx *Context) Checkbox(label string, active *bool) bool {
	r, id, visible := ctx.widget()
	if !visible {
		return false
	}
	clicked, hovered, _ := ctx.buttonBehavior(r, id)
	if clicked {
		*active = !*active
	}

	st := &ctx.style
	box := math.NewRect(r.X, r.Y+(r.H-r.H*0.8)*0.5, r.H*0.8, r.H*0.8)
	bg := st.Toggle
	if hovered {
		bg = st.ToggleHover
	}
	ctx.FillRect(box, 0, bg)
	if *active {
		ctx.FillRect(box.Shrink(3), 0, st.ToggleCursor)
	}
	text := math.NewRect(box.X+box.W+st.Padding.X, r.Y, r.W-box.W-st.Padding.X, r.H)
	ctx.drawAligned(text, label, AlignLeft, st.Text)
	return clicked
}

// Option is a radio button. It returns true when clicked.
func (ctx *Context) Option(label string, active bool) bool {
	r, id, visible := ctx.widget()
	if !visible {
		return false
	}
	clicked, hovered, _ := ctx.buttonBehavior(r, id)

	st := &ctx.style
	circle := math.NewRect(r.X, r.Y+(r.H-r.H*0.8)*0.5, r.H*0.8, r.H*0.8)
	bg := st.Toggle
	if hovered {
		bg = st.ToggleHover
	}
	ctx.FillCircle(circle, bg)
	if active {
		ctx.FillCircle(circle.Shrink(3), st.ToggleCursor)
	}
	text := math.NewRect(circle.X+circle.W+st.Padding.X, r.Y, r.W-circle.W-st.Padding.X, r.H)
	ctx.drawAligned(text, label, AlignLeft, st.Text)
	return clicked
}

// SliderFloat drags *value between lo and hi in increments of step.
func (ctx *Context) SliderFloat(lo float32, value *float32, hi, step float32) bool {
	r, id, visible := ctx.widget()
	if !visible || hi <= lo {
		return false
	}
	old := *value
	st := &ctx.style
	in := &ctx.input

	cursorW := math.Min(r.H, 12)
	track := math.NewRect(r.X+cursorW*0.5, r.Y, r.W-cursorW, r.H)
	hovered := false
	if ctx.interactive() {
		hovered = in.IsMouseHovering(r)
		if hovered && in.IsMouseClickedInRect(ButtonLeft, r) {
			ctx.active = id
		}
		if ctx.active == id {
			if in.IsMouseDown(ButtonLeft) {
				ratio := math.Clamp((in.Mouse.Pos.X-track.X)/track.W, 0, 1)
				*value = lo + ratio*(hi-lo)
			} else {
				ctx.active = 0
			}
		}
	}
	if step > 0 {
		*value = lo + float32(int((*value-lo)/step+0.5))*step
	}
	*value = math.Clamp(*value, lo, hi)

	ratio := (*value - lo) / (hi - lo)
	bar := math.NewRect(r.X, r.Y+r.H*0.4, r.W, r.H*0.2)
	ctx.FillRect(bar, 0, st.Slider)
	cursor := math.NewRect(track.X+ratio*track.W-cursorW*0.5, r.Y, cursorW, r.H)
	col := st.SliderCursor
	switch {
	case ctx.active == id:
		col = st.SliderCursorActive
	case hovered:
		col = st.SliderCursorHover
	}
	ctx.FillCircle(cursor, col)
	return *value != old
}

// Property edits *value by dragging horizontally. The pointer is grabbed for
// the duration of the drag so it can travel past the window edge.
func (ctx *Context) Property(name string, lo float32, value *float32, hi, incPerPixel float32) bool {
	r, id, visible := ctx.widget()
	if !visible {
		return false
	}
	old := *value
	st := &ctx.style
	in := &ctx.input

	if ctx.interactive() {
		if ctx.active == id {
			if in.IsMouseDown(ButtonLeft) {
				*value += in.Mouse.Delta.X * incPerPixel
			} else {
				ctx.active = 0
				ctx.GrabMouse(false)
			}
		} else if in.IsMouseClickedInRect(ButtonLeft, r) {
			ctx.active = id
			ctx.GrabMouse(true)
		}
	}
	*value = math.Clamp(*value, lo, hi)

	ctx.FillRect(r, r.H*0.5, st.Property)
	ctx.StrokeRect(r, r.H*0.5, st.BorderWidth, st.Border)
	ctx.drawAligned(r.Shrink(st.Padding.X), name, AlignLeft, st.Text)
	ctx.drawAligned(r.Shrink(st.Padding.X), fmt.Sprintf("%.2f", *value), AlignRight, st.Text)
	return *value != old
}

// Progress draws a bar; when modifiable, clicking sets *cur.
func (ctx *Context) Progress(cur *uint64, maxValue uint64, modifiable bool) bool {
	r, id, visible := ctx.widget()
	if !visible || maxValue == 0 {
		return false
	}
	old := *cur
	in := &ctx.input
	if modifiable && ctx.interactive() {
		if in.IsMouseClickedInRect(ButtonLeft, r) {
			ctx.active = id
		}
		if ctx.active == id {
			if in.IsMouseDown(ButtonLeft) {
				ratio := math.Clamp((in.Mouse.Pos.X-r.X)/r.W, 0, 1)
				*cur = uint64(ratio * float32(maxValue))
			} else {
				ctx.active = 0
			}
		}
	}
	*cur = math.Min(*cur, maxValue)

	st := &ctx.style
	ctx.FillRect(r, st.Rounding, st.Progress)
	fill := r
	fill.W = r.W * float32(*cur) / float32(maxValue)
	ctx.FillRect(fill, st.Rounding, st.ProgressCursor)
	return *cur != old
}

// Image draws a renderer texture filling the cell.
func (ctx *Context) Image(img Handle) {
	r, _, visible := ctx.widget()
	if !visible {
		return
	}
	ctx.DrawImage(r, img, math.NewColor(255, 255, 255, 255))
}

// ColorSwatch draws a filled cell of col.
func (ctx *Context) ColorSwatch(col math.Color) {
	r, _, visible := ctx.widget()
	if !visible {
		return
	}
	ctx.FillRect(r, ctx.style.Rounding, col)
}

// Separator draws a horizontal line through the cell.
func (ctx *Context) Separator() {
	r, _, visible := ctx.widget()
	if !visible {
		return
	}
	y := r.Y + r.H*0.5
	ctx.StrokeLine(math.NewVec2(r.X, y), math.NewVec2(r.X+r.W, y), 1, ctx.style.Border)
}
