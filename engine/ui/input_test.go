package ui

import (
	"errors"
	"testing"

	"github.com/spaghettifunk/cumulus/engine/math"
)

func TestInputPhaseTransitions(t *testing.T) {
	ctx := NewContext(nil)
	if ctx.Phase() != PhaseIdle {
		t.Fatalf("new context phase = %s", ctx.Phase())
	}
	if err := ctx.EndInput(); !errors.Is(err, ErrInputPhase) {
		t.Fatalf("EndInput while idle: %v", err)
	}
	if err := ctx.BeginInput(); err != nil {
		t.Fatal(err)
	}
	if err := ctx.BeginInput(); !errors.Is(err, ErrInputPhase) {
		t.Fatalf("BeginInput twice: %v", err)
	}
	if err := ctx.EndInput(); err != nil {
		t.Fatal(err)
	}
	if ctx.Phase() != PhaseFrozen {
		t.Fatalf("phase after EndInput = %s", ctx.Phase())
	}
	if err := ctx.EndInput(); !errors.Is(err, ErrInputPhase) {
		t.Fatalf("EndInput while frozen: %v", err)
	}
	ctx.Clear()
	if ctx.Phase() != PhaseIdle {
		t.Fatalf("phase after Clear = %s", ctx.Phase())
	}
}

func TestInputOutsideAccumulatingIsDropped(t *testing.T) {
	ctx := NewContext(nil)
	ctx.InputMotion(10, 10)
	ctx.InputKey(KeyEnter, true)
	ctx.InputUnicode('x')
	in := ctx.Input()
	if in.Mouse.Pos != (math.Vec2{}) || in.IsKeyDown(KeyEnter) || len(in.Keyboard.Text) != 0 {
		t.Fatal("input while idle must be ignored")
	}

	_ = ctx.BeginInput()
	_ = ctx.EndInput()
	ctx.InputMotion(10, 10)
	if in.Mouse.Pos != (math.Vec2{}) {
		t.Fatal("input while frozen must be ignored")
	}
}

func TestInputAccumulation(t *testing.T) {
	ctx := NewContext(nil)
	_ = ctx.BeginInput()
	ctx.InputMotion(5, 6)
	ctx.InputButton(ButtonLeft, 5, 6, true)
	ctx.InputButton(ButtonLeft, 5, 6, true)
	ctx.InputKey(KeyShift, true)
	ctx.InputScroll(math.NewVec2(0, 1))
	ctx.InputScroll(math.NewVec2(0, 2))
	ctx.InputText("héllo")
	_ = ctx.EndInput()

	in := ctx.Input()
	if in.Mouse.Pos != math.NewVec2(5, 6) || in.Mouse.Delta != math.NewVec2(5, 6) {
		t.Fatalf("mouse pos %v delta %v", in.Mouse.Pos, in.Mouse.Delta)
	}
	if !in.IsMousePressed(ButtonLeft) || in.Mouse.Buttons[ButtonLeft].Clicked != 1 {
		t.Fatalf("repeated press should count once, got %+v", in.Mouse.Buttons[ButtonLeft])
	}
	if !in.IsKeyPressed(KeyShift) {
		t.Fatal("shift should be pressed")
	}
	if in.Mouse.ScrollDelta.Y != 3 {
		t.Fatalf("scroll = %v", in.Mouse.ScrollDelta)
	}
	if string(in.Keyboard.Text) != "héllo" {
		t.Fatalf("text = %q", string(in.Keyboard.Text))
	}

	// next frame resets the per-frame state but keeps what is held down
	ctx.Clear()
	_ = ctx.BeginInput()
	_ = ctx.EndInput()
	if in.IsKeyPressed(KeyShift) || !in.IsKeyDown(KeyShift) {
		t.Fatal("shift should still be down but no longer freshly pressed")
	}
	if in.Mouse.ScrollDelta != (math.Vec2{}) || len(in.Keyboard.Text) != 0 || in.Mouse.Delta != (math.Vec2{}) {
		t.Fatal("per-frame input was not reset")
	}
}

func TestBeginInputDiscardsUnconvertedFrame(t *testing.T) {
	ctx := NewContext(nil)
	_ = ctx.BeginInput()
	_ = ctx.EndInput()
	ctx.FillRect(math.NewRect(0, 0, 1, 1), 0, math.NewColor(1, 1, 1, 1))
	if err := ctx.BeginInput(); err != nil {
		t.Fatal(err)
	}
	if ctx.CommandCount() != 0 {
		t.Fatal("stale commands survived into the next frame")
	}
}

func TestTextInputIsBounded(t *testing.T) {
	ctx := NewContext(nil)
	_ = ctx.BeginInput()
	for i := 0; i < 100; i++ {
		ctx.InputUnicode('a')
	}
	if n := len(ctx.Input().Keyboard.Text); n != maxTextInput {
		t.Fatalf("text buffer holds %d runes", n)
	}
}

func TestMouseGrab(t *testing.T) {
	ctx := NewContext(nil)
	ctx.GrabMouse(true)
	if ctx.Input().Mouse.Grabbed {
		t.Fatal("grab applies at the next BeginInput")
	}
	_ = ctx.BeginInput()
	if !ctx.Input().Mouse.Grabbed {
		t.Fatal("mouse should be grabbed")
	}
	_ = ctx.EndInput()
	ctx.GrabMouse(false)
	ctx.Clear()
	_ = ctx.BeginInput()
	if ctx.Input().Mouse.Grabbed {
		t.Fatal("mouse should be released")
	}
}
