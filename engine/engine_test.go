package engine

import (
	"errors"
	"testing"

	"github.com/spaghettifunk/cumulus/engine/core"
)

func newTestEngine(t *testing.T) (*Engine, *[][2]uint32) {
	t.Helper()
	var resizes [][2]uint32
	g := &Game{
		Config: core.DefaultConfig(),
		FnOnResize: func(w, h uint32) error {
			resizes = append(resizes, [2]uint32{w, h})
			return nil
		},
	}
	e, err := New(g)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	e.isRunning = true
	return e, &resizes
}

func TestNewRequiresConfig(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("expected error for nil game")
	}
	if _, err := New(&Game{}); err == nil {
		t.Fatal("expected error for game without config")
	}
}

func TestRunBeforeInitializeFails(t *testing.T) {
	e, _ := newTestEngine(t)
	if err := e.Run(); err == nil {
		t.Fatal("expected Run to fail before Initialize")
	}
}

func TestQuitEventStopsLoop(t *testing.T) {
	e, _ := newTestEngine(t)
	e.onEvent(core.Event{Type: core.EVENT_QUIT})
	if e.isRunning {
		t.Fatal("engine still running after quit event")
	}
}

func TestEscapeRepeatIsIgnored(t *testing.T) {
	e, _ := newTestEngine(t)
	e.onEvent(core.Event{Type: core.EVENT_KEY_DOWN, Key: core.KEY_ESCAPE, Repeat: true})
	if !e.isRunning {
		t.Fatal("repeated escape stopped the engine")
	}
	e.onEvent(core.Event{Type: core.EVENT_KEY_DOWN, Key: core.KEY_ESCAPE})
	if e.isRunning {
		t.Fatal("escape did not stop the engine")
	}
}

func TestResizeSuspendsWhenMinimized(t *testing.T) {
	e, resizes := newTestEngine(t)

	e.onEvent(core.Event{Type: core.EVENT_RESIZED, Width: 0, Height: 0})
	if !e.isSuspended {
		t.Fatal("zero size did not suspend")
	}
	if len(*resizes) != 0 {
		t.Fatalf("game saw resize while minimized: %v", *resizes)
	}

	e.onEvent(core.Event{Type: core.EVENT_RESIZED, Width: 1024, Height: 768})
	if e.isSuspended {
		t.Fatal("restore did not resume")
	}
	if len(*resizes) != 1 || (*resizes)[0] != [2]uint32{1024, 768} {
		t.Fatalf("resizes = %v", *resizes)
	}
	if w, h := e.GetFramebufferSize(); w != 1024 || h != 768 {
		t.Fatalf("framebuffer size = %dx%d", w, h)
	}

	// Same size again is not reported.
	e.onEvent(core.Event{Type: core.EVENT_RESIZED, Width: 1024, Height: 768})
	if len(*resizes) != 1 {
		t.Fatalf("duplicate resize reported: %v", *resizes)
	}
}

func TestQuitIsSticky(t *testing.T) {
	e, _ := newTestEngine(t)
	e.Quit()
	if !e.quit.Load() {
		t.Fatal("quit flag not set")
	}
}

func TestShutdownJoinsGameError(t *testing.T) {
	e, _ := newTestEngine(t)
	want := errors.New("boom")
	e.gameInstance.FnShutdown = func() error { return want }
	if err := e.Shutdown(); !errors.Is(err, want) {
		t.Fatalf("Shutdown = %v, want %v", err, want)
	}
}
