// Package gpu describes the explicit GPU API the renderers are written
// against: a device hands out command buffers, command buffers record copy
// and render passes, and every resource is created and released explicitly.
//
// Released resources may still be referenced by command buffers in flight;
// implementations defer the actual destruction until the GPU is done with
// them, so callers release as soon as they no longer need a handle.
package gpu

import "errors"

var (
	ErrDeviceLost        = errors.New("gpu device lost")
	ErrOutOfMemory       = errors.New("gpu out of memory")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrInvalidResource   = errors.New("invalid gpu resource")
)

// Resource is implemented by every handle the device hands out. IDs are
// unique for the lifetime of a device.
type Resource interface {
	ID() uint64
}

type Buffer interface {
	Resource
	Size() uint32
}

type TransferBuffer interface {
	Resource
	Size() uint32
}

type Texture interface {
	Resource
	Width() uint32
	Height() uint32
	Format() TextureFormat
}

type Sampler interface {
	Resource
}

type Shader interface {
	Resource
	Stage() ShaderStage
}

type GraphicsPipeline interface {
	Resource
}

type Device interface {
	// ShaderFormats reports the shader binary formats the device consumes.
	ShaderFormats() ShaderFormat
	SwapchainTextureFormat() TextureFormat

	CreateBuffer(info BufferCreateInfo) (Buffer, error)
	ReleaseBuffer(buffer Buffer)

	CreateTransferBuffer(info TransferBufferCreateInfo) (TransferBuffer, error)
	ReleaseTransferBuffer(buffer TransferBuffer)
	// MapTransferBuffer returns the buffer's CPU-visible memory. The slice is
	// valid until UnmapTransferBuffer.
	MapTransferBuffer(buffer TransferBuffer, cycle bool) ([]byte, error)
	UnmapTransferBuffer(buffer TransferBuffer)

	CreateTexture(info TextureCreateInfo) (Texture, error)
	ReleaseTexture(texture Texture)

	CreateSampler(info SamplerCreateInfo) (Sampler, error)
	ReleaseSampler(sampler Sampler)

	CreateShader(info ShaderCreateInfo) (Shader, error)
	ReleaseShader(shader Shader)

	CreateGraphicsPipeline(info GraphicsPipelineCreateInfo) (GraphicsPipeline, error)
	ReleaseGraphicsPipeline(pipeline GraphicsPipeline)

	AcquireCommandBuffer() (CommandBuffer, error)
	WaitIdle() error
	Destroy()
}

type CommandBuffer interface {
	BeginCopyPass() (CopyPass, error)
	// BeginRenderPass starts rendering into the given targets. Only one pass
	// may be open at a time.
	BeginRenderPass(targets []ColorTargetInfo) (RenderPass, error)
	// PushVertexUniformData makes data visible to the vertex stage at slot
	// for every draw recorded after the call.
	PushVertexUniformData(slot uint32, data []byte)
	// WaitAndAcquireSwapchainTexture blocks until a presentable image is
	// available. A nil texture with a nil error means there is nothing to
	// render into this frame (minimized window, swapchain being rebuilt).
	WaitAndAcquireSwapchainTexture() (Texture, error)
	Submit() error
}

type CopyPass interface {
	UploadToBuffer(src TransferBufferLocation, dst BufferRegion, cycle bool)
	UploadToTexture(src TextureTransferInfo, dst TextureRegion, cycle bool)
	End()
}

type RenderPass interface {
	BindGraphicsPipeline(pipeline GraphicsPipeline)
	SetViewport(viewport Viewport)
	SetScissor(scissor Rect)
	BindVertexBuffers(firstSlot uint32, bindings []BufferBinding)
	BindIndexBuffer(binding BufferBinding, size IndexElementSize)
	BindFragmentSamplers(firstSlot uint32, bindings []TextureSamplerBinding)
	DrawIndexedPrimitives(numIndices, numInstances, firstIndex uint32, vertexOffset int32, firstInstance uint32)
	End()
}

// Window is the part of the host window the renderers need: its size in
// logical units and in framebuffer pixels. They differ on high-DPI displays.
type Window interface {
	Size() (width, height int)
	SizeInPixels() (width, height int)
}
