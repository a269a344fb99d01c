package gui

import (
	"testing"

	"github.com/spaghettifunk/cumulus/engine/core"
	"github.com/spaghettifunk/cumulus/engine/gpu/gputest"
	"github.com/spaghettifunk/cumulus/engine/math"
	"github.com/spaghettifunk/cumulus/engine/ui"
)

func inputBackend(t *testing.T) *Backend {
	t.Helper()
	rec := gputest.NewRecorder()
	b, err := Init(rec, &gputest.Window{W: 100, H: 100, PW: 100, PH: 100}, rec.SwapchainTextureFormat(), testConfig())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(b.Shutdown)
	return b
}

func TestHandleKeyEvents(t *testing.T) {
	tests := []struct {
		name string
		key  core.KeyCode
		mods core.Mod
		want []ui.Keys
	}{
		{"shift", core.KEY_LSHIFT, 0, []ui.Keys{ui.KeyShift}},
		{"delete", core.KEY_DELETE, 0, []ui.Keys{ui.KeyDel}},
		{"enter", core.KEY_ENTER, 0, []ui.Keys{ui.KeyEnter}},
		{"tab", core.KEY_TAB, 0, []ui.Keys{ui.KeyTab}},
		{"backspace", core.KEY_BACKSPACE, 0, []ui.Keys{ui.KeyBackspace}},
		{"home", core.KEY_HOME, 0, []ui.Keys{ui.KeyTextStart, ui.KeyScrollStart}},
		{"end", core.KEY_END, 0, []ui.Keys{ui.KeyTextEnd, ui.KeyScrollEnd}},
		{"page down", core.KEY_NEXT, 0, []ui.Keys{ui.KeyScrollDown}},
		{"page up", core.KEY_PRIOR, 0, []ui.Keys{ui.KeyScrollUp}},
		{"up", core.KEY_UP, 0, []ui.Keys{ui.KeyUp}},
		{"left", core.KEY_LEFT, 0, []ui.Keys{ui.KeyLeft}},
		{"ctrl left", core.KEY_LEFT, core.MOD_CONTROL, []ui.Keys{ui.KeyTextWordLeft}},
		{"ctrl right", core.KEY_RIGHT, core.MOD_CONTROL, []ui.Keys{ui.KeyTextWordRight}},
		{"copy", core.KEY_C, core.MOD_CONTROL, []ui.Keys{ui.KeyCopy}},
		{"paste", core.KEY_V, core.MOD_CONTROL | core.MOD_SHIFT, []ui.Keys{ui.KeyPaste}},
		{"cut", core.KEY_X, core.MOD_CONTROL, []ui.Keys{ui.KeyCut}},
		{"undo", core.KEY_Z, core.MOD_CONTROL, []ui.Keys{ui.KeyTextUndo}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := inputBackend(t)
			ctx := b.Context()
			_ = ctx.BeginInput()
			if !b.HandleEvent(core.Event{Type: core.EVENT_KEY_DOWN, Key: tt.key, Mods: tt.mods}) {
				t.Fatal("event not consumed")
			}
			_ = ctx.EndInput()
			in := ctx.Input()
			for k := ui.KeyNone + 1; k < ui.KeyMax; k++ {
				want := false
				for _, w := range tt.want {
					want = want || w == k
				}
				if in.IsKeyDown(k) != want {
					t.Fatalf("key %d down = %v, want %v", k, in.IsKeyDown(k), want)
				}
			}
		})
	}
}

func TestHandleUnmappedEvents(t *testing.T) {
	b := inputBackend(t)
	_ = b.Context().BeginInput()
	for _, ev := range []core.Event{
		{Type: core.EVENT_KEY_DOWN, Key: core.KEY_C},
		{Type: core.EVENT_KEY_DOWN, Key: core.KEY_F5},
		{Type: core.EVENT_QUIT},
		{Type: core.EVENT_RESIZED, Width: 10, Height: 10},
	} {
		if b.HandleEvent(ev) {
			t.Fatalf("%s event should not be consumed", ev.Type)
		}
	}
}

func TestHandleKeyRelease(t *testing.T) {
	b := inputBackend(t)
	ctx := b.Context()
	_ = ctx.BeginInput()
	b.HandleEvent(core.Event{Type: core.EVENT_KEY_DOWN, Key: core.KEY_ENTER})
	b.HandleEvent(core.Event{Type: core.EVENT_KEY_UP, Key: core.KEY_ENTER})
	_ = ctx.EndInput()
	if ctx.Input().IsKeyDown(ui.KeyEnter) || !ctx.Input().IsKeyReleased(ui.KeyEnter) {
		t.Fatal("enter should have been pressed and released")
	}
}

func TestHandleMouseEvents(t *testing.T) {
	b := inputBackend(t)
	ctx := b.Context()
	_ = ctx.BeginInput()
	b.HandleEvent(core.Event{Type: core.EVENT_MOUSE_MOTION, X: 12, Y: 34})
	b.HandleEvent(core.Event{Type: core.EVENT_MOUSE_BUTTON_DOWN, Button: core.BUTTON_LEFT, Clicks: 2, X: 12, Y: 34})
	b.HandleEvent(core.Event{Type: core.EVENT_MOUSE_BUTTON_DOWN, Button: core.BUTTON_RIGHT, Clicks: 1, X: 12, Y: 34})
	b.HandleEvent(core.Event{Type: core.EVENT_MOUSE_WHEEL, WheelX: 0, WheelY: -1})
	b.HandleEvent(core.Event{Type: core.EVENT_TEXT_INPUT, Text: "hé"})
	_ = ctx.EndInput()

	in := ctx.Input()
	if in.Mouse.Pos != math.NewVec2(12, 34) {
		t.Fatalf("mouse at %v", in.Mouse.Pos)
	}
	if !in.IsMouseDown(ui.ButtonLeft) || !in.IsMouseDown(ui.ButtonDouble) || !in.IsMouseDown(ui.ButtonRight) {
		t.Fatalf("buttons %+v", in.Mouse.Buttons)
	}
	if in.IsMouseDown(ui.ButtonMiddle) {
		t.Fatal("middle button should be up")
	}
	if in.Mouse.ScrollDelta != math.NewVec2(0, -1) {
		t.Fatalf("scroll %v", in.Mouse.ScrollDelta)
	}
	if string(in.Keyboard.Text) != "hé" {
		t.Fatalf("text %q", string(in.Keyboard.Text))
	}

	ctx.Clear()
	_ = ctx.BeginInput()
	b.HandleEvent(core.Event{Type: core.EVENT_MOUSE_BUTTON_UP, Button: core.BUTTON_LEFT, X: 12, Y: 34})
	_ = ctx.EndInput()
	if in.IsMouseDown(ui.ButtonLeft) || in.IsMouseDown(ui.ButtonDouble) {
		t.Fatal("releasing left must release the double click too")
	}
}

func TestHandleSingleClickIsNotDouble(t *testing.T) {
	b := inputBackend(t)
	ctx := b.Context()
	_ = ctx.BeginInput()
	b.HandleEvent(core.Event{Type: core.EVENT_MOUSE_BUTTON_DOWN, Button: core.BUTTON_LEFT, Clicks: 1})
	_ = ctx.EndInput()
	if ctx.Input().IsMouseDown(ui.ButtonDouble) {
		t.Fatal("single click reported as double")
	}
}

func TestHandleGrabbedMotionIsRelative(t *testing.T) {
	b := inputBackend(t)
	ctx := b.Context()
	_ = ctx.BeginInput()
	b.HandleEvent(core.Event{Type: core.EVENT_MOUSE_MOTION, X: 50, Y: 50})
	_ = ctx.EndInput()
	ctx.GrabMouse(true)
	ctx.Clear()

	_ = ctx.BeginInput()
	// absolute coordinates are meaningless while the cursor is captured
	b.HandleEvent(core.Event{Type: core.EVENT_MOUSE_MOTION, X: 0, Y: 0, XRel: 5, YRel: -3})
	_ = ctx.EndInput()
	in := ctx.Input()
	if !in.Mouse.Grabbed || in.Mouse.Pos != math.NewVec2(55, 47) {
		t.Fatalf("grabbed=%v pos=%v", in.Mouse.Grabbed, in.Mouse.Pos)
	}
}

func TestInputOutsideTheInputWindowIsIgnored(t *testing.T) {
	b := inputBackend(t)
	b.HandleEvent(core.Event{Type: core.EVENT_MOUSE_MOTION, X: 50, Y: 50})
	if b.Context().Input().Mouse.Pos != (math.Vec2{}) {
		t.Fatal("motion outside BeginInput/EndInput must be dropped")
	}
}
