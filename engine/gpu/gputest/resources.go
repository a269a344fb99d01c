package gputest

import "github.com/spaghettifunk/cumulus/engine/gpu"

type Buffer struct {
	id    uint64
	usage gpu.BufferUsage
	data  []byte
}

func (b *Buffer) ID() uint64             { return b.id }
func (b *Buffer) Size() uint32           { return uint32(len(b.data)) }
func (b *Buffer) Usage() gpu.BufferUsage { return b.usage }

// Bytes returns what has been uploaded into the buffer so far.
func (b *Buffer) Bytes() []byte { return b.data }

type TransferBuffer struct {
	id     uint64
	data   []byte
	mapped bool
}

func (b *TransferBuffer) ID() uint64   { return b.id }
func (b *TransferBuffer) Size() uint32 { return uint32(len(b.data)) }
func (b *TransferBuffer) Mapped() bool { return b.mapped }

type Texture struct {
	id     uint64
	width  uint32
	height uint32
	format gpu.TextureFormat
	data   []byte
}

// NewTexture builds a texture that was not created through a Recorder, for
// tests that hand user images to a renderer.
func NewTexture(id uint64, width, height uint32) *Texture {
	return &Texture{id: id, width: width, height: height, format: gpu.TextureFormatR8G8B8A8Unorm}
}

func (t *Texture) ID() uint64                { return t.id }
func (t *Texture) Width() uint32             { return t.width }
func (t *Texture) Height() uint32            { return t.height }
func (t *Texture) Format() gpu.TextureFormat { return t.format }
func (t *Texture) Bytes() []byte             { return t.data }

type Sampler struct {
	id   uint64
	Info gpu.SamplerCreateInfo
}

func (s *Sampler) ID() uint64 { return s.id }

type Shader struct {
	id   uint64
	Info gpu.ShaderCreateInfo
}

func (s *Shader) ID() uint64             { return s.id }
func (s *Shader) Stage() gpu.ShaderStage { return s.Info.Stage }

type Pipeline struct {
	id   uint64
	Info gpu.GraphicsPipelineCreateInfo
}

func (p *Pipeline) ID() uint64 { return p.id }

// Window is a fixed-size gpu.Window.
type Window struct {
	W, H   int
	PW, PH int
}

func (w *Window) Size() (int, int)         { return w.W, w.H }
func (w *Window) SizeInPixels() (int, int) { return w.PW, w.PH }
