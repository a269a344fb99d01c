package engine

import (
	"github.com/spaghettifunk/cumulus/engine/core"
	"github.com/spaghettifunk/cumulus/engine/renderer"
	"github.com/spaghettifunk/cumulus/engine/renderer/gui"
	"github.com/spaghettifunk/cumulus/engine/ui"
)

// Game is the application driven by the engine. Renderer and UI are set by
// the engine before FnInitialize runs.
type Game struct {
	Config *core.Config
	State  interface{}

	Renderer *renderer.Renderer
	UI       *gui.Backend

	FnInitialize Initialize
	FnUpdate     Update
	FnRender     Render
	FnOnResize   OnResize
	FnShutdown   Shutdown
}

type Initialize func() error
type Update func(deltaTime float64) error

// Render builds the frame's widgets. Input for the frame is already frozen.
type Render func(ctx *ui.Context, deltaTime float64) error
type OnResize func(width uint32, height uint32) error
type Shutdown func() error
