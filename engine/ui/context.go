// Package ui is a small immediate-mode toolkit. Widgets are called every
// frame, record drawing primitives, and Convert flattens them into vertex
// and index bytes plus an ordered list of draw commands for a renderer.
package ui

import "github.com/spaghettifunk/cumulus/engine/math"

type Context struct {
	input    Input
	phase    InputPhase
	commands []command
	clip     math.Rect
	font     *Font
	style    Style
	frame    uint64

	// widget state
	windows  map[string]*window
	current  *window
	active   uint64
	widgetID uint64
}

func NewContext(font *Font) *Context {
	return &Context{
		clip:    nullRect,
		font:    font,
		style:   DefaultStyle(),
		windows: make(map[string]*window),
	}
}

// SetFont changes the font used by widgets.
func (ctx *Context) SetFont(font *Font) {
	ctx.font = font
}

func (ctx *Context) Font() *Font {
	return ctx.font
}

func (ctx *Context) Style() *Style {
	return &ctx.style
}

// Frame is the number of frames converted so far.
func (ctx *Context) Frame() uint64 {
	return ctx.frame
}

// Clear drops the recorded primitives and returns the context to idle.
func (ctx *Context) Clear() {
	ctx.commands = ctx.commands[:0]
	ctx.clip = nullRect
	ctx.current = nil
	ctx.phase = PhaseIdle
}
