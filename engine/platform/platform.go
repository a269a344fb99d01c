package platform

import (
	"fmt"
	"iter"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/spaghettifunk/cumulus/engine/containers"
	"github.com/spaghettifunk/cumulus/engine/core"
)

const (
	eventQueueSize = 256
	// Seconds between two presses of the same button that still count as one
	// multi-click.
	doubleClickTime = 0.3
	// Logical units the cursor may travel between the presses of a multi-click.
	doubleClickDistance = 4
)

func init() {
	// GLFW event handling must run on the main OS thread
	runtime.LockOSThread()
}

// Platform owns the glfw window and turns its callbacks into core events.
type Platform struct {
	Window *glfw.Window

	events  *containers.RingQueue[core.Event]
	dropped int
	clicks  clickTracker

	lastX, lastY float32
	hasLast      bool
	grabbed      bool
}

func New() (*Platform, error) {
	return &Platform{
		Window: nil,
		events: containers.NewRingQueue[core.Event](eventQueueSize),
	}, nil
}

func (p *Platform) Startup(cfg core.ApplicationSection) error {
	if err := glfw.Init(); err != nil {
		return fmt.Errorf("failed to initialize glfw: %w", err)
	}
	if !glfw.VulkanSupported() {
		glfw.Terminate()
		return fmt.Errorf("glfw reports no Vulkan loader")
	}

	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI) // Required for Vulkan.
	if cfg.HighDPI {
		glfw.WindowHint(glfw.CocoaRetinaFramebuffer, glfw.True)
		glfw.WindowHint(glfw.ScaleToMonitor, glfw.True)
	} else {
		glfw.WindowHint(glfw.CocoaRetinaFramebuffer, glfw.False)
	}

	window, err := glfw.CreateWindow(int(cfg.Width), int(cfg.Height), cfg.Name, nil, nil)
	if err != nil {
		glfw.Terminate()
		return fmt.Errorf("failed to create window: %w", err)
	}
	p.Window = window

	p.Window.SetKeyCallback(p.keyCallback)
	p.Window.SetCharCallback(p.charCallback)
	p.Window.SetMouseButtonCallback(p.mouseButtonCallback)
	p.Window.SetCursorPosCallback(p.cursorPosCallback)
	p.Window.SetScrollCallback(p.scrollCallback)
	p.Window.SetFramebufferSizeCallback(p.framebufferSizeCallback)
	p.Window.SetCloseCallback(p.closeCallback)
	p.Window.SetPos(int(cfg.PosX), int(cfg.PosY))
	p.Window.Show()

	w, h := p.SizeInPixels()
	core.LogInfo("window created: %dx%d logical, %dx%d pixels", cfg.Width, cfg.Height, w, h)
	return nil
}

func (p *Platform) Shutdown() error {
	if p.Window != nil {
		p.Window.Destroy()
		p.Window = nil
	}
	glfw.Terminate()
	return nil
}

// PumpMessages processes pending window events. The resulting core events
// are read with Events.
func (p *Platform) PumpMessages() {
	glfw.PollEvents()
	if p.dropped > 0 {
		core.LogWarn("event queue full, dropped %d events", p.dropped)
		p.dropped = 0
	}
}

// WaitMessages blocks until an event arrives or timeout seconds pass.
func (p *Platform) WaitMessages(timeout float64) {
	glfw.WaitEventsTimeout(timeout)
}

// Events drains the queued events in arrival order.
func (p *Platform) Events() iter.Seq[core.Event] {
	return func(yield func(core.Event) bool) {
		for !p.events.IsEmpty() {
			ev, err := p.events.Dequeue()
			if err != nil || !yield(ev) {
				return
			}
		}
	}
}

func (p *Platform) ShouldClose() bool {
	return p.Window == nil || p.Window.ShouldClose()
}

// Size is the window size in logical units.
func (p *Platform) Size() (int, int) {
	if p.Window == nil {
		return 0, 0
	}
	return p.Window.GetSize()
}

// SizeInPixels is the framebuffer size. It differs from Size on high density
// displays and is 0x0 while the window is minimized.
func (p *Platform) SizeInPixels() (int, int) {
	if p.Window == nil {
		return 0, 0
	}
	return p.Window.GetFramebufferSize()
}

func (p *Platform) GetRequiredExtensionNames() []string {
	return p.Window.GetRequiredInstanceExtensions()
}

func (p *Platform) CreateWindowSurface(instance interface{}) (uintptr, error) {
	return p.Window.CreateWindowSurface(instance, nil)
}

// SetCursorGrab hides the cursor and locks it to the window. While grabbed,
// motion events carry relative movement.
func (p *Platform) SetCursorGrab(grab bool) {
	if p.Window == nil || p.grabbed == grab {
		return
	}
	mode := glfw.CursorNormal
	if grab {
		mode = glfw.CursorDisabled
	}
	p.Window.SetInputMode(glfw.CursorMode, mode)
	if glfw.RawMouseMotionSupported() {
		p.Window.SetInputMode(glfw.RawMouseMotion, boolToGLFW(grab))
	}
	p.grabbed = grab
	p.hasLast = false
}

func (p *Platform) Grabbed() bool {
	return p.grabbed
}

// Time returns seconds since glfw was initialized.
func (p *Platform) Time() float64 {
	return glfw.GetTime()
}

func (p *Platform) push(ev core.Event) {
	if err := p.events.Enqueue(ev); err != nil {
		p.dropped++
	}
}

func (p *Platform) keyCallback(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	code := translateKey(key)
	if code == 0 {
		return
	}
	ev := core.Event{Key: code, Mods: translateMods(mods)}
	switch action {
	case glfw.Press:
		ev.Type = core.EVENT_KEY_DOWN
	case glfw.Repeat:
		ev.Type = core.EVENT_KEY_DOWN
		ev.Repeat = true
	case glfw.Release:
		ev.Type = core.EVENT_KEY_UP
	default:
		return
	}
	p.push(ev)
}

func (p *Platform) charCallback(w *glfw.Window, char rune) {
	p.push(core.Event{Type: core.EVENT_TEXT_INPUT, Text: string(char)})
}

func (p *Platform) mouseButtonCallback(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
	b, ok := translateButton(button)
	if !ok {
		return
	}
	x, y := w.GetCursorPos()
	ev := core.Event{Button: b, Mods: translateMods(mods), X: float32(x), Y: float32(y)}
	switch action {
	case glfw.Press:
		ev.Type = core.EVENT_MOUSE_BUTTON_DOWN
		ev.Clicks = p.clicks.press(b, ev.X, ev.Y, glfw.GetTime())
	case glfw.Release:
		ev.Type = core.EVENT_MOUSE_BUTTON_UP
	default:
		return
	}
	p.push(ev)
}

func (p *Platform) cursorPosCallback(w *glfw.Window, xpos, ypos float64) {
	x, y := float32(xpos), float32(ypos)
	ev := core.Event{Type: core.EVENT_MOUSE_MOTION, X: x, Y: y}
	if p.hasLast {
		ev.XRel, ev.YRel = x-p.lastX, y-p.lastY
	}
	p.lastX, p.lastY, p.hasLast = x, y, true
	p.push(ev)
}

func (p *Platform) scrollCallback(w *glfw.Window, xoff, yoff float64) {
	p.push(core.Event{Type: core.EVENT_MOUSE_WHEEL, WheelX: float32(xoff), WheelY: float32(yoff)})
}

func (p *Platform) framebufferSizeCallback(w *glfw.Window, width, height int) {
	p.push(core.Event{Type: core.EVENT_RESIZED, Width: uint32(max(width, 0)), Height: uint32(max(height, 0))})
}

func (p *Platform) closeCallback(w *glfw.Window) {
	p.push(core.Event{Type: core.EVENT_QUIT})
}

// clickTracker counts consecutive presses of the same button close in time
// and space.
type clickTracker struct {
	button core.Button
	x, y   float32
	time   float64
	count  uint8
}

func (c *clickTracker) press(button core.Button, x, y float32, now float64) uint8 {
	dx, dy := x-c.x, y-c.y
	near := dx*dx+dy*dy <= doubleClickDistance*doubleClickDistance
	if c.count > 0 && button == c.button && near && now-c.time <= doubleClickTime && c.count < 255 {
		c.count++
	} else {
		c.count = 1
	}
	c.button, c.x, c.y, c.time = button, x, y, now
	return c.count
}

func boolToGLFW(b bool) int {
	if b {
		return glfw.True
	}
	return glfw.False
}
