// Package gputest provides a gpu.Device that records every call instead of
// talking to a GPU. Tests use it to assert on the exact sequence of
// operations a renderer issues.
package gputest

import (
	"fmt"
	"slices"

	"github.com/spaghettifunk/cumulus/engine/gpu"
)

type OpKind string

const (
	OpCreateBuffer          OpKind = "CreateBuffer"
	OpReleaseBuffer         OpKind = "ReleaseBuffer"
	OpCreateTransferBuffer  OpKind = "CreateTransferBuffer"
	OpReleaseTransferBuffer OpKind = "ReleaseTransferBuffer"
	OpMapTransferBuffer     OpKind = "MapTransferBuffer"
	OpUnmapTransferBuffer   OpKind = "UnmapTransferBuffer"
	OpCreateTexture         OpKind = "CreateTexture"
	OpReleaseTexture        OpKind = "ReleaseTexture"
	OpCreateSampler         OpKind = "CreateSampler"
	OpReleaseSampler        OpKind = "ReleaseSampler"
	OpCreateShader          OpKind = "CreateShader"
	OpReleaseShader         OpKind = "ReleaseShader"
	OpCreatePipeline        OpKind = "CreateGraphicsPipeline"
	OpReleasePipeline       OpKind = "ReleaseGraphicsPipeline"
	OpAcquireCommandBuffer  OpKind = "AcquireCommandBuffer"
	OpAcquireSwapchain      OpKind = "WaitAndAcquireSwapchainTexture"
	OpSubmit                OpKind = "Submit"
	OpPushVertexUniform     OpKind = "PushVertexUniformData"
	OpBeginCopyPass         OpKind = "BeginCopyPass"
	OpUploadToBuffer        OpKind = "UploadToBuffer"
	OpUploadToTexture       OpKind = "UploadToTexture"
	OpEndCopyPass           OpKind = "EndCopyPass"
	OpBeginRenderPass       OpKind = "BeginRenderPass"
	OpBindPipeline          OpKind = "BindGraphicsPipeline"
	OpSetViewport           OpKind = "SetViewport"
	OpSetScissor            OpKind = "SetScissor"
	OpBindVertexBuffers     OpKind = "BindVertexBuffers"
	OpBindIndexBuffer       OpKind = "BindIndexBuffer"
	OpBindFragmentSamplers  OpKind = "BindFragmentSamplers"
	OpDrawIndexedPrimitives OpKind = "DrawIndexedPrimitives"
	OpEndRenderPass         OpKind = "EndRenderPass"
	OpWaitIdle              OpKind = "WaitIdle"
	OpDestroy               OpKind = "Destroy"
)

// Op is one recorded call. Only the fields relevant to Kind are set.
type Op struct {
	Kind OpKind
	// Resource the call created, released or bound.
	ID   uint64
	Size uint32

	// Copy operations.
	SrcOffset uint32
	DstOffset uint32

	Viewport gpu.Viewport
	Scissor  gpu.Rect
	// Texture bound by BindFragmentSamplers.
	Texture   uint64
	IndexSize gpu.IndexElementSize

	NumIndices uint32
	FirstIndex uint32

	Slot uint32
	Data []byte
}

func (o Op) String() string {
	return fmt.Sprintf("%s(id=%d size=%d)", o.Kind, o.ID, o.Size)
}

// Recorder implements gpu.Device.
type Recorder struct {
	Formats         gpu.ShaderFormat
	SwapchainFormat gpu.TextureFormat
	// Swapchain texture handed out per frame; nil simulates a minimized window.
	Swapchain gpu.Texture

	ops      []Op
	nextID   uint64
	live     map[uint64]OpKind
	failures map[OpKind]error
	// Releases of handles that were never created or already released.
	invalidReleases []uint64
}

func NewRecorder() *Recorder {
	r := &Recorder{
		Formats:         gpu.ShaderFormatSPIRV,
		SwapchainFormat: gpu.TextureFormatB8G8R8A8Unorm,
		live:            make(map[uint64]OpKind),
		failures:        make(map[OpKind]error),
	}
	r.Swapchain = &Texture{id: r.newID(), width: 800, height: 600, format: r.SwapchainFormat}
	return r
}

// Fail makes every subsequent call of kind return err until ClearFailures.
func (r *Recorder) Fail(kind OpKind, err error) {
	r.failures[kind] = err
}

func (r *Recorder) ClearFailures() {
	clear(r.failures)
}

// Ops returns a copy of the recorded operations.
func (r *Recorder) Ops() []Op {
	return slices.Clone(r.ops)
}

// Filter returns the recorded operations of the given kinds, in order.
func (r *Recorder) Filter(kinds ...OpKind) []Op {
	var out []Op
	for _, op := range r.ops {
		if slices.Contains(kinds, op.Kind) {
			out = append(out, op)
		}
	}
	return out
}

func (r *Recorder) Count(kind OpKind) int {
	return len(r.Filter(kind))
}

func (r *Recorder) Kinds() []OpKind {
	out := make([]OpKind, len(r.ops))
	for i, op := range r.ops {
		out[i] = op.Kind
	}
	return out
}

// Reset forgets the recorded operations. Live resources are kept.
func (r *Recorder) Reset() {
	r.ops = r.ops[:0]
}

// Live reports how many created resources have not been released.
func (r *Recorder) Live() int {
	return len(r.live)
}

func (r *Recorder) InvalidReleases() []uint64 {
	return slices.Clone(r.invalidReleases)
}

func (r *Recorder) newID() uint64 {
	r.nextID++
	return r.nextID
}

func (r *Recorder) record(op Op) {
	r.ops = append(r.ops, op)
}

func (r *Recorder) fail(kind OpKind) error {
	if err, ok := r.failures[kind]; ok {
		r.record(Op{Kind: kind})
		return err
	}
	return nil
}

func (r *Recorder) create(kind OpKind, size uint32) uint64 {
	id := r.newID()
	r.live[id] = kind
	r.record(Op{Kind: kind, ID: id, Size: size})
	return id
}

func (r *Recorder) release(kind OpKind, res gpu.Resource) {
	if res == nil {
		r.invalidReleases = append(r.invalidReleases, 0)
		r.record(Op{Kind: kind})
		return
	}
	id := res.ID()
	if _, ok := r.live[id]; !ok {
		r.invalidReleases = append(r.invalidReleases, id)
	}
	delete(r.live, id)
	r.record(Op{Kind: kind, ID: id})
}

func (r *Recorder) ShaderFormats() gpu.ShaderFormat {
	return r.Formats
}

func (r *Recorder) SwapchainTextureFormat() gpu.TextureFormat {
	return r.SwapchainFormat
}

func (r *Recorder) CreateBuffer(info gpu.BufferCreateInfo) (gpu.Buffer, error) {
	if err := r.fail(OpCreateBuffer); err != nil {
		return nil, err
	}
	id := r.create(OpCreateBuffer, info.Size)
	return &Buffer{id: id, usage: info.Usage, data: make([]byte, info.Size)}, nil
}

func (r *Recorder) ReleaseBuffer(buffer gpu.Buffer) {
	r.release(OpReleaseBuffer, buffer)
}

func (r *Recorder) CreateTransferBuffer(info gpu.TransferBufferCreateInfo) (gpu.TransferBuffer, error) {
	if err := r.fail(OpCreateTransferBuffer); err != nil {
		return nil, err
	}
	id := r.create(OpCreateTransferBuffer, info.Size)
	return &TransferBuffer{id: id, data: make([]byte, info.Size)}, nil
}

func (r *Recorder) ReleaseTransferBuffer(buffer gpu.TransferBuffer) {
	r.release(OpReleaseTransferBuffer, buffer)
}

func (r *Recorder) MapTransferBuffer(buffer gpu.TransferBuffer, cycle bool) ([]byte, error) {
	if err := r.fail(OpMapTransferBuffer); err != nil {
		return nil, err
	}
	tb, ok := buffer.(*TransferBuffer)
	if !ok {
		return nil, gpu.ErrInvalidResource
	}
	tb.mapped = true
	r.record(Op{Kind: OpMapTransferBuffer, ID: tb.id, Size: tb.Size()})
	return tb.data, nil
}

func (r *Recorder) UnmapTransferBuffer(buffer gpu.TransferBuffer) {
	if tb, ok := buffer.(*TransferBuffer); ok {
		tb.mapped = false
	}
	r.record(Op{Kind: OpUnmapTransferBuffer, ID: buffer.ID()})
}

func (r *Recorder) CreateTexture(info gpu.TextureCreateInfo) (gpu.Texture, error) {
	if err := r.fail(OpCreateTexture); err != nil {
		return nil, err
	}
	id := r.create(OpCreateTexture, info.Width*info.Height*info.Format.BytesPerPixel())
	return &Texture{
		id:     id,
		width:  info.Width,
		height: info.Height,
		format: info.Format,
		data:   make([]byte, info.Width*info.Height*info.Format.BytesPerPixel()),
	}, nil
}

func (r *Recorder) ReleaseTexture(texture gpu.Texture) {
	r.release(OpReleaseTexture, texture)
}

func (r *Recorder) CreateSampler(info gpu.SamplerCreateInfo) (gpu.Sampler, error) {
	if err := r.fail(OpCreateSampler); err != nil {
		return nil, err
	}
	return &Sampler{id: r.create(OpCreateSampler, 0), Info: info}, nil
}

func (r *Recorder) ReleaseSampler(sampler gpu.Sampler) {
	r.release(OpReleaseSampler, sampler)
}

func (r *Recorder) CreateShader(info gpu.ShaderCreateInfo) (gpu.Shader, error) {
	if err := r.fail(OpCreateShader); err != nil {
		return nil, err
	}
	if !r.Formats.Has(info.Format) {
		return nil, fmt.Errorf("%w: shader format %d", gpu.ErrUnsupportedFormat, info.Format)
	}
	id := r.create(OpCreateShader, uint32(len(info.Code)))
	return &Shader{id: id, Info: info}, nil
}

func (r *Recorder) ReleaseShader(shader gpu.Shader) {
	r.release(OpReleaseShader, shader)
}

func (r *Recorder) CreateGraphicsPipeline(info gpu.GraphicsPipelineCreateInfo) (gpu.GraphicsPipeline, error) {
	if err := r.fail(OpCreatePipeline); err != nil {
		return nil, err
	}
	return &Pipeline{id: r.create(OpCreatePipeline, 0), Info: info}, nil
}

func (r *Recorder) ReleaseGraphicsPipeline(pipeline gpu.GraphicsPipeline) {
	r.release(OpReleasePipeline, pipeline)
}

func (r *Recorder) AcquireCommandBuffer() (gpu.CommandBuffer, error) {
	if err := r.fail(OpAcquireCommandBuffer); err != nil {
		return nil, err
	}
	r.record(Op{Kind: OpAcquireCommandBuffer})
	return &CommandBuffer{r: r}, nil
}

func (r *Recorder) WaitIdle() error {
	r.record(Op{Kind: OpWaitIdle})
	return nil
}

func (r *Recorder) Destroy() {
	r.record(Op{Kind: OpDestroy})
}

type CommandBuffer struct {
	r         *Recorder
	submitted bool
}

func (c *CommandBuffer) BeginCopyPass() (gpu.CopyPass, error) {
	if err := c.r.fail(OpBeginCopyPass); err != nil {
		return nil, err
	}
	c.r.record(Op{Kind: OpBeginCopyPass})
	return &CopyPass{r: c.r}, nil
}

func (c *CommandBuffer) BeginRenderPass(targets []gpu.ColorTargetInfo) (gpu.RenderPass, error) {
	if err := c.r.fail(OpBeginRenderPass); err != nil {
		return nil, err
	}
	c.r.record(Op{Kind: OpBeginRenderPass})
	return &RenderPass{r: c.r}, nil
}

func (c *CommandBuffer) PushVertexUniformData(slot uint32, data []byte) {
	c.r.record(Op{Kind: OpPushVertexUniform, Slot: slot, Data: slices.Clone(data)})
}

func (c *CommandBuffer) WaitAndAcquireSwapchainTexture() (gpu.Texture, error) {
	if err := c.r.fail(OpAcquireSwapchain); err != nil {
		return nil, err
	}
	c.r.record(Op{Kind: OpAcquireSwapchain})
	return c.r.Swapchain, nil
}

func (c *CommandBuffer) Submit() error {
	if err := c.r.fail(OpSubmit); err != nil {
		return err
	}
	if c.submitted {
		return fmt.Errorf("command buffer submitted twice")
	}
	c.submitted = true
	c.r.record(Op{Kind: OpSubmit})
	return nil
}

type CopyPass struct {
	r *Recorder
}

// UploadToBuffer copies the transfer bytes into the fake buffer so tests can
// inspect what reached the "GPU".
func (p *CopyPass) UploadToBuffer(src gpu.TransferBufferLocation, dst gpu.BufferRegion, cycle bool) {
	if tb, ok := src.TransferBuffer.(*TransferBuffer); ok {
		if b, ok := dst.Buffer.(*Buffer); ok {
			copy(b.data[dst.Offset:dst.Offset+dst.Size], tb.data[src.Offset:src.Offset+dst.Size])
		}
	}
	p.r.record(Op{
		Kind:      OpUploadToBuffer,
		ID:        dst.Buffer.ID(),
		Size:      dst.Size,
		SrcOffset: src.Offset,
		DstOffset: dst.Offset,
	})
}

func (p *CopyPass) UploadToTexture(src gpu.TextureTransferInfo, dst gpu.TextureRegion, cycle bool) {
	size := dst.W * dst.H * dst.Texture.Format().BytesPerPixel()
	if tb, ok := src.TransferBuffer.(*TransferBuffer); ok {
		if t, ok := dst.Texture.(*Texture); ok && dst.X == 0 && dst.Y == 0 {
			copy(t.data, tb.data[src.Offset:src.Offset+size])
		}
	}
	p.r.record(Op{Kind: OpUploadToTexture, ID: dst.Texture.ID(), Size: size, SrcOffset: src.Offset})
}

func (p *CopyPass) End() {
	p.r.record(Op{Kind: OpEndCopyPass})
}

type RenderPass struct {
	r *Recorder
}

func (p *RenderPass) BindGraphicsPipeline(pipeline gpu.GraphicsPipeline) {
	p.r.record(Op{Kind: OpBindPipeline, ID: pipeline.ID()})
}

func (p *RenderPass) SetViewport(viewport gpu.Viewport) {
	p.r.record(Op{Kind: OpSetViewport, Viewport: viewport})
}

func (p *RenderPass) SetScissor(scissor gpu.Rect) {
	p.r.record(Op{Kind: OpSetScissor, Scissor: scissor})
}

func (p *RenderPass) BindVertexBuffers(firstSlot uint32, bindings []gpu.BufferBinding) {
	for _, b := range bindings {
		p.r.record(Op{Kind: OpBindVertexBuffers, ID: b.Buffer.ID(), Slot: firstSlot, DstOffset: b.Offset})
	}
}

func (p *RenderPass) BindIndexBuffer(binding gpu.BufferBinding, size gpu.IndexElementSize) {
	p.r.record(Op{Kind: OpBindIndexBuffer, ID: binding.Buffer.ID(), DstOffset: binding.Offset, IndexSize: size})
}

func (p *RenderPass) BindFragmentSamplers(firstSlot uint32, bindings []gpu.TextureSamplerBinding) {
	for _, b := range bindings {
		p.r.record(Op{Kind: OpBindFragmentSamplers, ID: b.Sampler.ID(), Texture: b.Texture.ID(), Slot: firstSlot})
	}
}

func (p *RenderPass) DrawIndexedPrimitives(numIndices, numInstances, firstIndex uint32, vertexOffset int32, firstInstance uint32) {
	p.r.record(Op{Kind: OpDrawIndexedPrimitives, NumIndices: numIndices, FirstIndex: firstIndex})
}

func (p *RenderPass) End() {
	p.r.record(Op{Kind: OpEndRenderPass})
}
