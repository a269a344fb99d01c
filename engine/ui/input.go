package ui

import (
	"fmt"

	"github.com/spaghettifunk/cumulus/engine/math"
)

type Keys int

const (
	KeyNone Keys = iota
	KeyShift
	KeyCtrl
	KeyDel
	KeyEnter
	KeyTab
	KeyBackspace
	KeyCopy
	KeyCut
	KeyPaste
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyTextInsertMode
	KeyTextReplaceMode
	KeyTextResetMode
	KeyTextLineStart
	KeyTextLineEnd
	KeyTextStart
	KeyTextEnd
	KeyTextUndo
	KeyTextRedo
	KeyTextSelectAll
	KeyTextWordLeft
	KeyTextWordRight
	KeyScrollStart
	KeyScrollEnd
	KeyScrollDown
	KeyScrollUp
	KeyMax
)

type Buttons int

const (
	ButtonLeft Buttons = iota
	ButtonMiddle
	ButtonRight
	ButtonDouble
	ButtonMax
)

// InputPhase is where the context is in its per-frame input cycle:
//
//	Idle -> BeginInput -> Accumulating -> EndInput -> Frozen -> Convert/Clear -> Idle
type InputPhase int

const (
	PhaseIdle InputPhase = iota
	PhaseAccumulating
	PhaseFrozen
)

func (p InputPhase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseAccumulating:
		return "accumulating"
	case PhaseFrozen:
		return "frozen"
	}
	return fmt.Sprintf("InputPhase(%d)", int(p))
}

const maxTextInput = 16

type MouseButton struct {
	Down bool
	// Number of transitions seen this frame.
	Clicked    uint32
	ClickedPos math.Vec2
}

type Mouse struct {
	Buttons     [ButtonMax]MouseButton
	Pos         math.Vec2
	Prev        math.Vec2
	Delta       math.Vec2
	ScrollDelta math.Vec2
	// Grab and Ungrab are requests from widgets, applied at the next
	// BeginInput. Grabbed is true while a widget owns the pointer; hosts
	// then report motion relative to Prev.
	Grab    bool
	Grabbed bool
	Ungrab  bool
}

type Key struct {
	Down    bool
	Clicked uint32
}

type Keyboard struct {
	Keys [KeyMax]Key
	Text []rune
}

// Input is the frame's accumulated input.
type Input struct {
	Mouse    Mouse
	Keyboard Keyboard
}

// BeginInput opens the input window of a new frame. A frame that was frozen
// but never converted is discarded.
func (ctx *Context) BeginInput() error {
	switch ctx.phase {
	case PhaseAccumulating:
		return fmt.Errorf("%w: BeginInput while %s", ErrInputPhase, ctx.phase)
	case PhaseFrozen:
		ctx.Clear()
	}

	in := &ctx.input
	in.Keyboard.Text = in.Keyboard.Text[:0]
	for i := range in.Keyboard.Keys {
		in.Keyboard.Keys[i].Clicked = 0
	}
	for i := range in.Mouse.Buttons {
		in.Mouse.Buttons[i].Clicked = 0
	}
	in.Mouse.ScrollDelta = math.Vec2{}
	in.Mouse.Prev = in.Mouse.Pos
	in.Mouse.Delta = math.Vec2{}

	if in.Mouse.Grab {
		in.Mouse.Grabbed = true
		in.Mouse.Grab = false
	}
	if in.Mouse.Ungrab {
		in.Mouse.Grabbed = false
		in.Mouse.Ungrab = false
		in.Mouse.Grab = false
	}

	ctx.phase = PhaseAccumulating
	return nil
}

// EndInput freezes the frame's input so widgets can read it.
func (ctx *Context) EndInput() error {
	if ctx.phase != PhaseAccumulating {
		return fmt.Errorf("%w: EndInput while %s", ErrInputPhase, ctx.phase)
	}
	in := &ctx.input
	in.Mouse.Delta = in.Mouse.Pos.Sub(in.Mouse.Prev)
	ctx.phase = PhaseFrozen
	return nil
}

// Phase reports the current input phase.
func (ctx *Context) Phase() InputPhase {
	return ctx.phase
}

func (ctx *Context) accepting() bool {
	return ctx.phase == PhaseAccumulating
}

func (ctx *Context) InputMotion(x, y float32) {
	if !ctx.accepting() {
		return
	}
	ctx.input.Mouse.Pos = math.NewVec2(x, y)
}

func (ctx *Context) InputKey(key Keys, down bool) {
	if !ctx.accepting() || key <= KeyNone || key >= KeyMax {
		return
	}
	k := &ctx.input.Keyboard.Keys[key]
	if k.Down != down {
		k.Clicked++
	}
	k.Down = down
}

func (ctx *Context) InputButton(button Buttons, x, y float32, down bool) {
	if !ctx.accepting() || button < 0 || button >= ButtonMax {
		return
	}
	b := &ctx.input.Mouse.Buttons[button]
	if b.Down == down {
		return
	}
	b.ClickedPos = math.NewVec2(x, y)
	b.Down = down
	b.Clicked++
}

func (ctx *Context) InputScroll(delta math.Vec2) {
	if !ctx.accepting() {
		return
	}
	ctx.input.Mouse.ScrollDelta = ctx.input.Mouse.ScrollDelta.Add(delta)
}

func (ctx *Context) InputUnicode(r rune) {
	if !ctx.accepting() || len(ctx.input.Keyboard.Text) >= maxTextInput {
		return
	}
	ctx.input.Keyboard.Text = append(ctx.input.Keyboard.Text, r)
}

// InputText feeds every rune of s.
func (ctx *Context) InputText(s string) {
	for _, r := range s {
		ctx.InputUnicode(r)
	}
}

// Input exposes the frame's input state, read-only by convention.
func (ctx *Context) Input() *Input {
	return &ctx.input
}

func (in *Input) IsKeyDown(key Keys) bool {
	return in.Keyboard.Keys[key].Down
}

// IsKeyPressed reports a key that went down this frame.
func (in *Input) IsKeyPressed(key Keys) bool {
	k := in.Keyboard.Keys[key]
	return k.Down && k.Clicked > 0
}

func (in *Input) IsKeyReleased(key Keys) bool {
	k := in.Keyboard.Keys[key]
	return !k.Down && k.Clicked > 0
}

func (in *Input) IsMouseDown(button Buttons) bool {
	return in.Mouse.Buttons[button].Down
}

func (in *Input) IsMousePressed(button Buttons) bool {
	b := in.Mouse.Buttons[button]
	return b.Down && b.Clicked > 0
}

func (in *Input) IsMouseReleased(button Buttons) bool {
	b := in.Mouse.Buttons[button]
	return !b.Down && b.Clicked > 0
}

func (in *Input) IsMouseHovering(r math.Rect) bool {
	return r.Contains(in.Mouse.Pos)
}

// HasMouseClickInRect reports a press or release of button inside r this
// frame.
func (in *Input) HasMouseClickInRect(button Buttons, r math.Rect) bool {
	b := in.Mouse.Buttons[button]
	return b.Clicked > 0 && r.Contains(b.ClickedPos)
}

// IsMouseClickedInRect reports a press of button inside r this frame.
func (in *Input) IsMouseClickedInRect(button Buttons, r math.Rect) bool {
	return in.HasMouseClickInRect(button, r) && in.Mouse.Buttons[button].Down
}

// GrabMouse asks the host to capture the pointer from the next frame on.
func (ctx *Context) GrabMouse(grab bool) {
	if grab {
		ctx.input.Mouse.Grab = !ctx.input.Mouse.Grabbed
		ctx.input.Mouse.Ungrab = false
		return
	}
	ctx.input.Mouse.Ungrab = ctx.input.Mouse.Grabbed || ctx.input.Mouse.Grab
	ctx.input.Mouse.Grab = false
}
