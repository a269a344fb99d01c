package engine

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/spaghettifunk/cumulus/engine/assets"
	"github.com/spaghettifunk/cumulus/engine/assets/loaders"
	"github.com/spaghettifunk/cumulus/engine/core"
	"github.com/spaghettifunk/cumulus/engine/platform"
	"github.com/spaghettifunk/cumulus/engine/renderer"
	"github.com/spaghettifunk/cumulus/engine/renderer/gui"
	"github.com/spaghettifunk/cumulus/engine/renderer/vulkan"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

// Seconds to block for window events while minimized.
const suspendedWait = 0.1

type Engine struct {
	currentStage Stage
	gameInstance *Game
	config       *core.Config
	isRunning    bool
	isSuspended  bool
	quit         atomic.Bool

	platform     *platform.Platform
	assetManager *assets.AssetManager
	device       *vulkan.Device
	ui           *gui.Backend
	renderer     *renderer.Renderer

	width   uint32
	height  uint32
	clock   *core.Clock
	metrics *core.Metrics

	lastTime float64
}

func New(g *Game) (*Engine, error) {
	if g == nil || g.Config == nil {
		return nil, errors.New("engine needs a game with a config")
	}
	p, err := platform.New()
	if err != nil {
		return nil, err
	}
	return &Engine{
		currentStage: EngineStageUninitialized,
		gameInstance: g,
		config:       g.Config,
		platform:     p,
		clock:        core.NewClock(),
		metrics:      core.NewMetrics(),
		width:        g.Config.Application.Width,
		height:       g.Config.Application.Height,
	}, nil
}

// Initialize opens the window and builds the device, the UI backend and the
// renderer. It must run on the main thread.
func (e *Engine) Initialize() error {
	e.currentStage = EngineStageInitializing
	cfg := e.config

	if err := e.platform.Startup(cfg.Application); err != nil {
		return err
	}

	device, err := vulkan.New(e.platform, vulkan.NewConfig(cfg.Application, cfg.Renderer))
	if err != nil {
		return fmt.Errorf("failed to create vulkan device: %w", err)
	}
	e.device = device

	shaders := loaders.NewShaderLoader(cfg.Renderer.ShaderDir)
	ui, err := gui.Init(device, e.platform, device.SwapchainTextureFormat(), gui.NewConfig(cfg.UI, shaders))
	if err != nil {
		return fmt.Errorf("failed to initialize ui: %w", err)
	}
	e.ui = ui

	atlas := ui.FontStashBegin()
	font := loaders.NewFontLoader(cfg.UI).Load(atlas)
	if err := ui.FontStashEnd(); err != nil {
		return fmt.Errorf("failed to upload fonts: %w", err)
	}
	core.LogDebug("default font: %s", font.Name)

	e.renderer = renderer.New(device, cfg.Renderer.ClearColor)
	e.renderer.AddSurface(ui)

	if cfg.Renderer.WatchShaders {
		am, err := assets.NewAssetManager()
		if err != nil {
			return err
		}
		if err := am.Initialize(cfg.Renderer.ShaderDir); err != nil {
			am.Close()
			return fmt.Errorf("failed to watch %s: %w", cfg.Renderer.ShaderDir, err)
		}
		e.assetManager = am
		core.LogInfo("watching %s for shader changes", cfg.Renderer.ShaderDir)
	}

	e.gameInstance.Renderer = e.renderer
	e.gameInstance.UI = ui
	if e.gameInstance.FnInitialize != nil {
		if err := e.gameInstance.FnInitialize(); err != nil {
			return err
		}
	}

	e.currentStage = EngineStageInitialized
	return nil
}

// Quit asks the run loop to stop after the current frame. Safe to call from
// any goroutine.
func (e *Engine) Quit() {
	e.quit.Store(true)
}

func (e *Engine) Run() error {
	if e.currentStage != EngineStageInitialized {
		return fmt.Errorf("engine not initialized")
	}
	e.currentStage = EngineStageRunning
	e.isRunning = true
	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	ctx := e.ui.Context()
	for e.isRunning && !e.quit.Load() {
		if e.isSuspended {
			e.platform.WaitMessages(suspendedWait)
		} else {
			e.platform.PumpMessages()
		}

		if err := ctx.BeginInput(); err != nil {
			core.LogError("failed to begin input: %s", err)
		}
		for ev := range e.platform.Events() {
			e.onEvent(ev)
			e.ui.HandleEvent(ev)
		}
		if err := ctx.EndInput(); err != nil {
			core.LogError("failed to end input: %s", err)
		}
		e.platform.SetCursorGrab(ctx.Input().Mouse.Grabbed)
		e.pollAssets()

		if e.platform.ShouldClose() {
			e.isRunning = false
		}
		if !e.isRunning || e.isSuspended {
			continue
		}

		e.clock.Update()
		currentTime := e.clock.Elapsed()
		delta := currentTime - e.lastTime
		frameStartTime := currentTime

		if e.gameInstance.FnUpdate != nil {
			if err := e.gameInstance.FnUpdate(delta); err != nil {
				core.LogError("game update failed, shutting down: %s", err)
				return err
			}
		}
		if e.gameInstance.FnRender != nil {
			if err := e.gameInstance.FnRender(ctx, delta); err != nil {
				core.LogError("game render failed, shutting down: %s", err)
				return err
			}
		}

		if err := e.renderer.DrawFrame(); err != nil {
			switch {
			case errors.Is(err, gui.ErrFrameSkipped), errors.Is(err, core.ErrWindowMinimized):
				core.LogDebug("frame %d: %s", e.renderer.FrameNumber(), err)
			default:
				return err
			}
		}

		e.clock.Update()
		if e.metrics.Update(e.clock.Elapsed() - frameStartTime) {
			core.LogDebug("fps: %.0f, frame time: %.3fms, skipped: %d", e.metrics.FPS(), e.metrics.FrameTime(), e.renderer.SkippedFrames())
		}
		e.lastTime = currentTime
	}
	return nil
}

// pollAssets rebuilds the UI pipeline when a shader changed on disk. It
// never blocks.
func (e *Engine) pollAssets() {
	if e.assetManager == nil {
		return
	}
	reload := false
	for drained := false; !drained; {
		select {
		case info, ok := <-e.assetManager.Changes():
			if !ok {
				e.assetManager = nil
				return
			}
			if info.Type == assets.AssetTypeShader {
				core.LogInfo("shader changed: %s", info.Path)
				reload = true
			}
		default:
			drained = true
		}
	}
	if !reload {
		return
	}
	if err := e.ui.ReloadPipeline(); err != nil {
		core.LogError("failed to reload ui pipeline, keeping the previous one: %s", err)
		return
	}
	core.LogInfo("ui pipeline reloaded")
}

// Shutdown releases everything Initialize created, in reverse order. It
// tolerates a partially initialized engine.
func (e *Engine) Shutdown() error {
	e.currentStage = EngineStageShuttingDown
	var errs []error
	if e.gameInstance.FnShutdown != nil {
		errs = append(errs, e.gameInstance.FnShutdown())
	}
	if e.renderer != nil {
		e.renderer.Shutdown()
	} else if e.ui != nil {
		e.ui.Shutdown()
	}
	if e.device != nil {
		e.device.Destroy()
	}
	if e.assetManager != nil {
		errs = append(errs, e.assetManager.Close())
	}
	errs = append(errs, e.platform.Shutdown())
	e.currentStage = EngineStageUninitialized
	return errors.Join(errs...)
}

// GetFramebufferSize returns the width and height (in this order)
// of the application Framebuffer
func (e *Engine) GetFramebufferSize() (uint32, uint32) {
	return e.width, e.height
}

func (e *Engine) onEvent(ev core.Event) {
	switch ev.Type {
	case core.EVENT_QUIT:
		core.LogInfo("quit requested, shutting down.")
		e.isRunning = false
	case core.EVENT_KEY_DOWN:
		if ev.Key == core.KEY_ESCAPE && !ev.Repeat {
			e.isRunning = false
		}
	case core.EVENT_RESIZED:
		e.onResized(ev.Width, ev.Height)
	}
}

func (e *Engine) onResized(width, height uint32) {
	if width == e.width && height == e.height {
		return
	}
	e.width = width
	e.height = height
	core.LogDebug("Window resize: %d, %d", width, height)

	// Handle minimization
	if width == 0 || height == 0 {
		core.LogInfo("Window minimized, suspending application.")
		e.isSuspended = true
		return
	}
	if e.isSuspended {
		core.LogInfo("Window restored, resuming application.")
		e.isSuspended = false
	}
	if e.gameInstance.FnOnResize != nil {
		if err := e.gameInstance.FnOnResize(width, height); err != nil {
			core.LogError(err.Error())
		}
	}
}
