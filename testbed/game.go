package testbed

import (
	"fmt"
	"image"
	"image/color"

	"github.com/spaghettifunk/cumulus/engine"
	"github.com/spaghettifunk/cumulus/engine/core"
	"github.com/spaghettifunk/cumulus/engine/gpu"
	"github.com/spaghettifunk/cumulus/engine/math"
	"github.com/spaghettifunk/cumulus/engine/ui"
)

const (
	difficultyEasy = iota
	difficultyHard
)

type TestGame struct {
	*engine.Game
}

type gameState struct {
	width  uint32
	height uint32

	difficulty  int
	compression float32
	background  [4]float32
	progress    uint64
	vsync       bool
	clicks      int

	checker       gpu.Texture
	checkerHandle ui.Handle
	elapsed       float64
}

func NewTestGame(cfg *core.Config) (*TestGame, error) {
	tg := &TestGame{
		Game: &engine.Game{
			Config: cfg,
			State: &gameState{
				width:       cfg.Application.Width,
				height:      cfg.Application.Height,
				difficulty:  difficultyEasy,
				compression: 20,
				background:  cfg.Renderer.ClearColor,
				progress:    40,
				vsync:       true,
			},
		},
	}

	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnRender = tg.Render
	tg.FnOnResize = tg.OnResize
	tg.FnShutdown = tg.Shutdown

	return tg, nil
}

func (g *TestGame) state() *gameState {
	return g.State.(*gameState)
}

func (g *TestGame) Initialize() error {
	core.LogInfo("initializing testbed...")
	s := g.state()

	tex, err := uploadImage(g.Renderer.Device(), checkerboard(64, 8))
	if err != nil {
		// The demo works without the image panel.
		core.LogWarn("failed to create checkerboard texture: %s", err)
		return nil
	}
	s.checker = tex
	s.checkerHandle = g.UI.RegisterTexture(tex)
	return nil
}

func (g *TestGame) Update(deltaTime float64) error {
	s := g.state()
	s.elapsed += deltaTime
	return nil
}

func (g *TestGame) Render(ctx *ui.Context, deltaTime float64) error {
	s := g.state()

	if ctx.Begin("Demo", math.NewRect(50, 50, 230, 330), ui.WindowBorder|ui.WindowMovable|ui.WindowTitle) {
		ctx.LayoutRowStatic(30, 80, 1)
		if ctx.Button("button") {
			s.clicks++
			core.LogInfo("button pressed %d times", s.clicks)
		}

		ctx.LayoutRowDynamic(30, 2)
		if ctx.Option("easy", s.difficulty == difficultyEasy) {
			s.difficulty = difficultyEasy
		}
		if ctx.Option("hard", s.difficulty == difficultyHard) {
			s.difficulty = difficultyHard
		}

		ctx.LayoutRowDynamic(25, 1)
		ctx.Property("Compression:", 0, &s.compression, 100, 0.5)
		ctx.Checkbox("vsync", &s.vsync)

		ctx.LayoutRowDynamic(20, 1)
		ctx.Label("background:", ui.AlignLeft)
		ctx.LayoutRowDynamic(20, 1)
		ctx.ColorSwatch(math.NewColorF(s.background[0], s.background[1], s.background[2], s.background[3]))
		ctx.LayoutRowDynamic(20, 1)
		changed := ctx.SliderFloat(0, &s.background[0], 1, 0.01)
		changed = ctx.SliderFloat(0, &s.background[1], 1, 0.01) || changed
		changed = ctx.SliderFloat(0, &s.background[2], 1, 0.01) || changed
		if changed {
			g.Renderer.SetClearColor(s.background)
		}

		ctx.LayoutRowDynamic(20, 1)
		ctx.Progress(&s.progress, 100, true)
	}
	ctx.End()

	if ctx.Begin("Stats", math.NewRect(300, 50, 220, 200), ui.WindowBorder|ui.WindowMovable|ui.WindowTitle) {
		ctx.LayoutRowDynamic(18, 1)
		ctx.Label(fmt.Sprintf("window: %dx%d", s.width, s.height), ui.AlignLeft)
		ctx.Label(fmt.Sprintf("frame: %d", g.Renderer.FrameNumber()), ui.AlignLeft)
		ctx.Label(fmt.Sprintf("skipped: %d", g.Renderer.SkippedFrames()), ui.AlignLeft)
		ctx.Label(fmt.Sprintf("uptime: %.1fs", s.elapsed), ui.AlignLeft)
		ctx.Separator()
		if s.checkerHandle.Valid() {
			ctx.LayoutRowStatic(64, 64, 1)
			ctx.Image(s.checkerHandle)
		}
	}
	ctx.End()
	return nil
}

func (g *TestGame) OnResize(width uint32, height uint32) error {
	s := g.state()
	s.width, s.height = width, height
	return nil
}

func (g *TestGame) Shutdown() error {
	s := g.state()
	if s.checker == nil {
		return nil
	}
	if err := g.UI.UnregisterTexture(s.checkerHandle); err != nil {
		core.LogWarn("failed to unregister checkerboard: %s", err)
	}
	g.Renderer.Device().ReleaseTexture(s.checker)
	s.checker = nil
	s.checkerHandle = ui.NoHandle
	return nil
}

func checkerboard(size, cell int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	light := color.RGBA{R: 230, G: 230, B: 230, A: 255}
	dark := color.RGBA{R: 60, G: 90, B: 140, A: 255}
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if (x/cell+y/cell)%2 == 0 {
				img.SetRGBA(x, y, light)
			} else {
				img.SetRGBA(x, y, dark)
			}
		}
	}
	return img
}

// uploadImage creates a sampled texture holding img with a one-off command
// buffer.
func uploadImage(device gpu.Device, img *image.RGBA) (gpu.Texture, error) {
	width, height := uint32(img.Bounds().Dx()), uint32(img.Bounds().Dy())
	tex, err := device.CreateTexture(gpu.TextureCreateInfo{
		Format: gpu.TextureFormatR8G8B8A8Unorm,
		Usage:  gpu.TextureUsageSampler,
		Width:  width,
		Height: height,
		Name:   "testbed checkerboard",
	})
	if err != nil {
		return nil, err
	}

	size := width * height * 4
	transfer, err := device.CreateTransferBuffer(gpu.TransferBufferCreateInfo{
		Usage: gpu.TransferBufferUsageUpload,
		Size:  size,
	})
	if err != nil {
		device.ReleaseTexture(tex)
		return nil, err
	}
	defer device.ReleaseTransferBuffer(transfer)

	mem, err := device.MapTransferBuffer(transfer, false)
	if err != nil {
		device.ReleaseTexture(tex)
		return nil, err
	}
	copy(mem[:size], img.Pix)
	device.UnmapTransferBuffer(transfer)

	cmd, err := device.AcquireCommandBuffer()
	if err != nil {
		device.ReleaseTexture(tex)
		return nil, err
	}
	pass, err := cmd.BeginCopyPass()
	if err != nil {
		device.ReleaseTexture(tex)
		return nil, err
	}
	pass.UploadToTexture(
		gpu.TextureTransferInfo{TransferBuffer: transfer, PixelsPerRow: width, RowsPerLayer: height},
		gpu.TextureRegion{Texture: tex, W: width, H: height},
		false,
	)
	pass.End()
	if err := cmd.Submit(); err != nil {
		device.ReleaseTexture(tex)
		return nil, err
	}
	return tex, nil
}
