// Package gui renders an engine/ui Context with an explicit GPU device.
//
// Every frame the host brackets input with the Context's BeginInput and
// EndInput (feeding events through HandleEvent), builds its widgets, then
// records RenderUpload before its render pass and RenderDraw inside it:
//
//	cmd, _ := device.AcquireCommandBuffer()
//	backend.RenderUpload(cmd)
//	swapchain, _ := cmd.WaitAndAcquireSwapchainTexture()
//	pass, _ := cmd.BeginRenderPass(...)
//	backend.RenderDraw(cmd, pass)
//	pass.End()
//	cmd.Submit()
package gui

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/spaghettifunk/cumulus/engine/core"
	"github.com/spaghettifunk/cumulus/engine/gpu"
	"github.com/spaghettifunk/cumulus/engine/ui"
)

// ErrFrameSkipped wraps every per-frame failure. The frame draws nothing and
// the next one starts from scratch.
var ErrFrameSkipped = errors.New("gui: frame skipped")

// Vertex is the layout the converter writes and the pipeline reads.
type Vertex struct {
	Position [2]float32
	UV       [2]float32
	Color    [4]uint8
}

const vertexSize = uint32(unsafe.Sizeof(Vertex{}))

// ShaderSource provides compiled shader blobs for a stage in one of the
// formats a device accepts.
type ShaderSource interface {
	Shader(stage gpu.ShaderStage, format gpu.ShaderFormat) ([]byte, error)
}

type Config struct {
	Shaders ShaderSource

	VertexStagingBytes uint32
	IndexStagingBytes  uint32

	AntiAliasing   bool
	CircleSegments uint32
	CurveSegments  uint32
	ArcSegments    uint32
	GlobalAlpha    float32
	// Clamp texture coordinates instead of repeating them.
	ClampSampler bool
}

// NewConfig builds a backend config from the [ui] section of the config file.
func NewConfig(section core.UISection, shaders ShaderSource) Config {
	return Config{
		Shaders:            shaders,
		VertexStagingBytes: section.VertexStagingBytes,
		IndexStagingBytes:  section.IndexStagingBytes,
		AntiAliasing:       section.AntiAliasing,
		CircleSegments:     section.CircleSegments,
		CurveSegments:      section.CurveSegments,
		ArcSegments:        section.ArcSegments,
		GlobalAlpha:        section.GlobalAlpha,
		ClampSampler:       section.ClampSampler,
	}
}

// Backend owns every GPU resource needed to draw one ui.Context. Several
// backends may share a device.
type Backend struct {
	id     uuid.UUID
	logger *log.Logger

	device      gpu.Device
	window      gpu.Window
	colorFormat gpu.TextureFormat
	cfg         Config

	ctx      *ui.Context
	atlas    *ui.FontAtlas
	textures *textureRegistry
	// Font atlas, bound for commands without a texture of their own.
	fontTexture gpu.Texture
	fontHandle  ui.Handle

	vertexShader   gpu.Shader
	fragmentShader gpu.Shader
	pipeline       gpu.GraphicsPipeline
	sampler        gpu.Sampler

	buffers *bufferManager

	// Staging arenas the converter writes into, reused every frame.
	vertices *ui.Buffer
	elements *ui.Buffer
	convert  ui.ConvertConfig
	list     *ui.DrawList
	// Set once the current list reached the GPU buffers.
	uploaded bool

	shutdown bool
}

// Init creates the pipeline, sampler and staging memory for a window whose
// swapchain uses colorFormat. Any failure releases what was already created.
func Init(device gpu.Device, window gpu.Window, colorFormat gpu.TextureFormat, cfg Config) (*Backend, error) {
	if device == nil || window == nil {
		return nil, fmt.Errorf("gui: device and window are required")
	}
	if cfg.Shaders == nil {
		return nil, fmt.Errorf("gui: no shader source configured")
	}
	if cfg.VertexStagingBytes == 0 || cfg.IndexStagingBytes == 0 {
		return nil, fmt.Errorf("gui: staging sizes must be non-zero")
	}

	id := uuid.New()
	b := &Backend{
		id:          id,
		logger:      core.Logger().With("surface", id.String()[:8]),
		device:      device,
		window:      window,
		colorFormat: colorFormat,
		cfg:         cfg,
		ctx:         ui.NewContext(nil),
		textures:    newTextureRegistry(),
		vertices:    ui.NewFixedBuffer(int(cfg.VertexStagingBytes)),
		elements:    ui.NewFixedBuffer(int(cfg.IndexStagingBytes)),
		list:        ui.NewDrawList(),
	}
	b.buffers = newBufferManager(device, b.logger)
	b.convert = b.convertConfig()

	if err := b.createDeviceObjects(); err != nil {
		b.logger.Error("failed to initialize gui backend", "err", err)
		b.Shutdown()
		return nil, err
	}
	b.logger.Debug("gui backend initialized", "format", colorFormat, "staging", cfg.VertexStagingBytes+cfg.IndexStagingBytes)
	return b, nil
}

// ID identifies the backend in log lines.
func (b *Backend) ID() uuid.UUID {
	return b.id
}

// Context is the toolkit context the backend draws.
func (b *Backend) Context() *ui.Context {
	return b.ctx
}

func (b *Backend) convertConfig() ui.ConvertConfig {
	cc := ui.DefaultConvertConfig()
	cc.GlobalAlpha = b.cfg.GlobalAlpha
	if b.cfg.AntiAliasing {
		cc.LineAA, cc.ShapeAA = ui.AntiAliasingOn, ui.AntiAliasingOn
	} else {
		cc.LineAA, cc.ShapeAA = ui.AntiAliasingOff, ui.AntiAliasingOff
	}
	if b.cfg.CircleSegments > 0 {
		cc.CircleSegmentCount = b.cfg.CircleSegments
	}
	if b.cfg.CurveSegments > 0 {
		cc.CurveSegmentCount = b.cfg.CurveSegments
	}
	if b.cfg.ArcSegments > 0 {
		cc.ArcSegmentCount = b.cfg.ArcSegments
	}
	cc.VertexLayout = []ui.VertexLayoutElement{
		{Attribute: ui.VertexPosition, Format: ui.FormatFloat2, Offset: unsafe.Offsetof(Vertex{}.Position)},
		{Attribute: ui.VertexTexcoord, Format: ui.FormatFloat2, Offset: unsafe.Offsetof(Vertex{}.UV)},
		{Attribute: ui.VertexColor, Format: ui.FormatR8G8B8A8, Offset: unsafe.Offsetof(Vertex{}.Color)},
	}
	cc.VertexSize = unsafe.Sizeof(Vertex{})
	cc.VertexAlignment = unsafe.Alignof(Vertex{})
	return cc
}

// Shutdown releases every GPU resource the backend owns. It is safe to call
// more than once.
func (b *Backend) Shutdown() {
	if b.shutdown {
		return
	}
	b.shutdown = true
	b.uploaded = false

	b.buffers.release()
	if b.fontTexture != nil {
		b.textures.unregister(b.fontHandle)
		b.device.ReleaseTexture(b.fontTexture)
		b.fontTexture = nil
		b.fontHandle = ui.NoHandle
	}
	b.releasePipeline()
	if b.sampler != nil {
		b.device.ReleaseSampler(b.sampler)
		b.sampler = nil
	}
	b.ctx.Clear()
	b.list.Reset()
	b.logger.Debug("gui backend shut down")
}
