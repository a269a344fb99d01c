package gui

import (
	"encoding/binary"
	m "math"

	"github.com/spaghettifunk/cumulus/engine/gpu"
	"github.com/spaghettifunk/cumulus/engine/math"
)

// RenderDraw issues one scissored, textured indexed draw per command of the
// frame uploaded by RenderUpload, in the order the toolkit produced them.
// A frame is drawn at most once.
func (b *Backend) RenderDraw(cmd gpu.CommandBuffer, pass gpu.RenderPass) {
	if !b.uploaded || b.list.Consumed() || b.list.Len() == 0 {
		return
	}
	width, height := b.window.Size()
	pixelWidth, pixelHeight := b.window.SizeInPixels()
	if width <= 0 || height <= 0 || pixelWidth <= 0 || pixelHeight <= 0 {
		return
	}
	scaleX := float32(pixelWidth) / float32(width)
	scaleY := float32(pixelHeight) / float32(height)

	pass.BindGraphicsPipeline(b.pipeline)
	pass.BindVertexBuffers(0, []gpu.BufferBinding{{Buffer: b.buffers.buffer(roleVertex), Offset: 0}})
	pass.BindIndexBuffer(gpu.BufferBinding{Buffer: b.buffers.buffer(roleIndex), Offset: 0}, gpu.IndexElementSize16Bit)
	pass.SetViewport(gpu.Viewport{
		W:        float32(pixelWidth),
		H:        float32(pixelHeight),
		MinDepth: 0,
		MaxDepth: 1,
	})
	projection := math.NewMat4ScreenOrtho(float32(width), float32(height))
	cmd.PushVertexUniformData(0, matrixBytes(projection))

	var offset uint32
	for dc := range b.list.All() {
		if dc.ElemCount == 0 {
			continue
		}
		pass.SetScissor(scissorRect(dc.ClipRect, scaleX, scaleY))
		pass.BindFragmentSamplers(0, []gpu.TextureSamplerBinding{{Texture: b.texture(dc.Texture), Sampler: b.sampler}})
		pass.DrawIndexedPrimitives(dc.ElemCount, 1, offset, 0, 0)
		offset += dc.ElemCount
	}
	b.list.MarkConsumed()
	b.uploaded = false
}

// scissorRect scales a logical clip rectangle to framebuffer pixels. Drivers
// reject negative origins, so the origin is clamped to zero.
func scissorRect(clip math.Rect, scaleX, scaleY float32) gpu.Rect {
	return gpu.Rect{
		X: int32(math.Max(clip.X*scaleX, 0)),
		Y: int32(math.Max(clip.Y*scaleY, 0)),
		W: int32(clip.W * scaleX),
		H: int32(clip.H * scaleY),
	}
}

func matrixBytes(mt math.Mat4) []byte {
	out := make([]byte, len(mt.Data)*4)
	for i, v := range mt.Data {
		binary.LittleEndian.PutUint32(out[i*4:], m.Float32bits(v))
	}
	return out
}
