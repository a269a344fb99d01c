package platform

import (
	"testing"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/spaghettifunk/cumulus/engine/core"
)

func TestTranslateKey(t *testing.T) {
	tests := []struct {
		key  glfw.Key
		want core.KeyCode
	}{
		{glfw.KeyA, core.KEY_A},
		{glfw.KeyZ, core.KEY_Z},
		{glfw.Key0, 0x30},
		{glfw.Key9, 0x39},
		{glfw.KeyF1, core.KEY_F1},
		{glfw.KeyF12, core.KEY_F12},
		{glfw.KeyKP5, core.KEY_NUMPAD5},
		{glfw.KeyKPEnter, core.KEY_ENTER},
		{glfw.KeyLeftShift, core.KEY_LSHIFT},
		{glfw.KeyPageUp, core.KEY_PRIOR},
		{glfw.KeyPageDown, core.KEY_NEXT},
		{glfw.KeyDelete, core.KEY_DELETE},
		{glfw.KeyUnknown, 0},
	}
	for _, tt := range tests {
		if got := translateKey(tt.key); got != tt.want {
			t.Errorf("translateKey(%d) = %#x, want %#x", tt.key, got, tt.want)
		}
	}
}

func TestTranslateMods(t *testing.T) {
	got := translateMods(glfw.ModControl | glfw.ModShift)
	if !got.Has(core.MOD_CONTROL | core.MOD_SHIFT) {
		t.Fatalf("mods = %b, want control and shift", got)
	}
	if got.Has(core.MOD_ALT) {
		t.Fatalf("mods = %b, alt not pressed", got)
	}
}

func TestClickTracker(t *testing.T) {
	var c clickTracker
	if n := c.press(core.BUTTON_LEFT, 10, 10, 1.0); n != 1 {
		t.Fatalf("first press = %d clicks, want 1", n)
	}
	if n := c.press(core.BUTTON_LEFT, 11, 10, 1.2); n != 2 {
		t.Fatalf("second quick press = %d clicks, want 2", n)
	}
	if n := c.press(core.BUTTON_LEFT, 11, 10, 2.0); n != 1 {
		t.Fatalf("slow press = %d clicks, want 1", n)
	}
	if n := c.press(core.BUTTON_RIGHT, 11, 10, 2.1); n != 1 {
		t.Fatalf("other button = %d clicks, want 1", n)
	}
	if n := c.press(core.BUTTON_RIGHT, 50, 50, 2.2); n != 1 {
		t.Fatalf("distant press = %d clicks, want 1", n)
	}
}

func TestEventsDrainInOrder(t *testing.T) {
	p, _ := New()
	p.push(core.Event{Type: core.EVENT_KEY_DOWN, Key: core.KEY_A})
	p.push(core.Event{Type: core.EVENT_TEXT_INPUT, Text: "a"})
	p.push(core.Event{Type: core.EVENT_KEY_UP, Key: core.KEY_A})

	var got []core.EventType
	for ev := range p.Events() {
		got = append(got, ev.Type)
	}
	want := []core.EventType{core.EVENT_KEY_DOWN, core.EVENT_TEXT_INPUT, core.EVENT_KEY_UP}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d = %v, want %v", i, got[i], want[i])
		}
	}
	if !p.events.IsEmpty() {
		t.Fatal("queue not drained")
	}
}

func TestPushDropsWhenFull(t *testing.T) {
	p, _ := New()
	for i := 0; i < eventQueueSize+3; i++ {
		p.push(core.Event{Type: core.EVENT_MOUSE_MOTION})
	}
	if p.dropped != 3 {
		t.Fatalf("dropped = %d, want 3", p.dropped)
	}
}
