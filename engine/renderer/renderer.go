package renderer

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spaghettifunk/cumulus/engine/core"
	"github.com/spaghettifunk/cumulus/engine/gpu"
	"github.com/spaghettifunk/cumulus/engine/renderer/gui"
)

// Renderer records one frame per DrawFrame: every surface uploads its
// geometry, then all of them draw into a single cleared pass over the
// swapchain image.
type Renderer struct {
	device     gpu.Device
	surfaces   []*gui.Backend
	clearColor [4]float32
	logger     *log.Logger

	frameNumber   uint64
	skippedFrames uint64
}

func New(device gpu.Device, clearColor [4]float32) *Renderer {
	return &Renderer{
		device:     device,
		clearColor: clearColor,
		logger:     core.Logger().With("renderer", "frontend"),
	}
}

// AddSurface draws b on every frame after the surfaces added before it.
func (r *Renderer) AddSurface(b *gui.Backend) {
	r.surfaces = append(r.surfaces, b)
}

func (r *Renderer) SetClearColor(c [4]float32) {
	r.clearColor = c
}

func (r *Renderer) ClearColor() [4]float32 {
	return r.clearColor
}

func (r *Renderer) Device() gpu.Device {
	return r.device
}

func (r *Renderer) FrameNumber() uint64 {
	return r.frameNumber
}

// SkippedFrames counts frames in which at least one surface had nothing
// drawable because its upload failed.
func (r *Renderer) SkippedFrames() uint64 {
	return r.skippedFrames
}

// DrawFrame records and submits one frame. Errors wrapping
// gui.ErrFrameSkipped or core.ErrWindowMinimized leave the renderer usable;
// the host logs them and carries on.
func (r *Renderer) DrawFrame() error {
	cmd, err := r.device.AcquireCommandBuffer()
	if err != nil {
		return fmt.Errorf("failed to acquire command buffer: %w", err)
	}

	// Uploads go first so their copy passes precede the render pass.
	var skipped error
	for _, s := range r.surfaces {
		if err := s.RenderUpload(cmd); err != nil {
			r.logger.Warn("ui frame skipped", "surface", s.ID().String()[:8], "err", err)
			skipped = errors.Join(skipped, err)
		}
	}
	if skipped != nil {
		r.skippedFrames++
	}

	swapchain, err := cmd.WaitAndAcquireSwapchainTexture()
	if err != nil {
		return errors.Join(fmt.Errorf("failed to acquire swapchain texture: %w", err), cmd.Submit())
	}
	if swapchain == nil {
		// Copies are still submitted so released staging memory is reclaimed.
		if err := cmd.Submit(); err != nil {
			return err
		}
		return errors.Join(core.ErrWindowMinimized, skipped)
	}

	pass, err := cmd.BeginRenderPass([]gpu.ColorTargetInfo{{
		Texture:    swapchain,
		ClearColor: r.clearColor,
		LoadOp:     gpu.LoadOpClear,
		StoreOp:    gpu.StoreOpStore,
	}})
	if err != nil {
		return errors.Join(fmt.Errorf("failed to begin render pass: %w", err), cmd.Submit())
	}
	for _, s := range r.surfaces {
		s.RenderDraw(cmd, pass)
	}
	pass.End()

	if err := cmd.Submit(); err != nil {
		return fmt.Errorf("failed to submit frame: %w", err)
	}
	r.frameNumber++
	return skipped
}

// Shutdown waits for the GPU, then releases the surfaces' resources. The
// device itself is left to its owner.
func (r *Renderer) Shutdown() {
	if err := r.device.WaitIdle(); err != nil {
		r.logger.Error("failed to wait for device", "err", err)
	}
	for _, s := range r.surfaces {
		s.Shutdown()
	}
	r.surfaces = nil
}
