package gui

import (
	"github.com/spaghettifunk/cumulus/engine/core"
	"github.com/spaghettifunk/cumulus/engine/math"
	"github.com/spaghettifunk/cumulus/engine/ui"
)

// keyMap translates host keys that map one-to-one onto toolkit keys.
var keyMap = map[core.KeyCode][]ui.Keys{
	core.KEY_SHIFT:     {ui.KeyShift},
	core.KEY_LSHIFT:    {ui.KeyShift},
	core.KEY_RSHIFT:    {ui.KeyShift},
	core.KEY_LCONTROL:  {ui.KeyCtrl},
	core.KEY_RCONTROL:  {ui.KeyCtrl},
	core.KEY_DELETE:    {ui.KeyDel},
	core.KEY_ENTER:     {ui.KeyEnter},
	core.KEY_TAB:       {ui.KeyTab},
	core.KEY_BACKSPACE: {ui.KeyBackspace},
	core.KEY_HOME:      {ui.KeyTextStart, ui.KeyScrollStart},
	core.KEY_END:       {ui.KeyTextEnd, ui.KeyScrollEnd},
	core.KEY_NEXT:      {ui.KeyScrollDown},
	core.KEY_PRIOR:     {ui.KeyScrollUp},
	core.KEY_UP:        {ui.KeyUp},
	core.KEY_DOWN:      {ui.KeyDown},
}

// ctrlKeyMap holds the shortcuts that only apply while control is held.
var ctrlKeyMap = map[core.KeyCode]ui.Keys{
	core.KEY_C:     ui.KeyCopy,
	core.KEY_V:     ui.KeyPaste,
	core.KEY_X:     ui.KeyCut,
	core.KEY_Z:     ui.KeyTextUndo,
	core.KEY_R:     ui.KeyTextRedo,
	core.KEY_B:     ui.KeyTextLineStart,
	core.KEY_E:     ui.KeyTextLineEnd,
	core.KEY_LEFT:  ui.KeyTextWordLeft,
	core.KEY_RIGHT: ui.KeyTextWordRight,
}

// HandleEvent feeds a host event to the context and reports whether the
// toolkit consumed it. Call it between the context's BeginInput and EndInput.
func (b *Backend) HandleEvent(ev core.Event) bool {
	ctx := b.ctx
	switch ev.Type {
	case core.EVENT_KEY_DOWN, core.EVENT_KEY_UP:
		return b.handleKey(ev.Key, ev.Mods, ev.Type == core.EVENT_KEY_DOWN)

	case core.EVENT_MOUSE_BUTTON_DOWN, core.EVENT_MOUSE_BUTTON_UP:
		down := ev.Type == core.EVENT_MOUSE_BUTTON_DOWN
		switch ev.Button {
		case core.BUTTON_LEFT:
			if down && ev.Clicks > 1 {
				ctx.InputButton(ui.ButtonDouble, ev.X, ev.Y, true)
			} else if !down {
				ctx.InputButton(ui.ButtonDouble, ev.X, ev.Y, false)
			}
			ctx.InputButton(ui.ButtonLeft, ev.X, ev.Y, down)
		case core.BUTTON_MIDDLE:
			ctx.InputButton(ui.ButtonMiddle, ev.X, ev.Y, down)
		case core.BUTTON_RIGHT:
			ctx.InputButton(ui.ButtonRight, ev.X, ev.Y, down)
		default:
			return false
		}
		return true

	case core.EVENT_MOUSE_MOTION:
		if ctx.Input().Mouse.Grabbed {
			prev := ctx.Input().Mouse.Prev
			ctx.InputMotion(prev.X+ev.XRel, prev.Y+ev.YRel)
		} else {
			ctx.InputMotion(ev.X, ev.Y)
		}
		return true

	case core.EVENT_TEXT_INPUT:
		ctx.InputText(ev.Text)
		return true

	case core.EVENT_MOUSE_WHEEL:
		ctx.InputScroll(math.NewVec2(ev.WheelX, ev.WheelY))
		return true
	}
	return false
}

func (b *Backend) handleKey(key core.KeyCode, mods core.Mod, down bool) bool {
	if mods.Has(core.MOD_CONTROL) {
		if k, ok := ctrlKeyMap[key]; ok {
			b.ctx.InputKey(k, down)
			return true
		}
	}
	switch key {
	case core.KEY_LEFT:
		b.ctx.InputKey(ui.KeyLeft, down)
		return true
	case core.KEY_RIGHT:
		b.ctx.InputKey(ui.KeyRight, down)
		return true
	}
	keys, ok := keyMap[key]
	if !ok {
		return false
	}
	for _, k := range keys {
		b.ctx.InputKey(k, down)
	}
	return true
}
