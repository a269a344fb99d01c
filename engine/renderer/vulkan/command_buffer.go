package vulkan

import (
	"errors"
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/cumulus/engine/gpu"
)

type VulkanCommandBufferState int

const (
	COMMAND_BUFFER_STATE_READY VulkanCommandBufferState = iota
	COMMAND_BUFFER_STATE_RECORDING
	COMMAND_BUFFER_STATE_IN_RENDER_PASS
	COMMAND_BUFFER_STATE_IN_COPY_PASS
	COMMAND_BUFFER_STATE_SUBMITTED
	COMMAND_BUFFER_STATE_NOT_ALLOCATED
)

var errPassOpen = errors.New("another pass is still open on this command buffer")

type VulkanCommandBuffer struct {
	Handle vk.CommandBuffer
	State  VulkanCommandBufferState
}

func NewVulkanCommandBuffer(context *VulkanContext, pool vk.CommandPool) (*VulkanCommandBuffer, error) {
	allocateInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        pool,
		CommandBufferCount: 1,
		Level:              vk.CommandBufferLevelPrimary,
	}
	handles := make([]vk.CommandBuffer, 1)
	if res := vk.AllocateCommandBuffers(context.Device.LogicalDevice, &allocateInfo, handles); res != vk.Success {
		return nil, vkError("vkAllocateCommandBuffers", res)
	}
	return &VulkanCommandBuffer{Handle: handles[0], State: COMMAND_BUFFER_STATE_READY}, nil
}

func (v *VulkanCommandBuffer) Free(context *VulkanContext, pool vk.CommandPool) {
	if v.Handle == nil {
		return
	}
	vk.FreeCommandBuffers(context.Device.LogicalDevice, pool, 1, []vk.CommandBuffer{v.Handle})
	v.Handle = nil
	v.State = COMMAND_BUFFER_STATE_NOT_ALLOCATED
}

// Begin resets the buffer and starts a one-time-submit recording.
func (v *VulkanCommandBuffer) Begin() error {
	if res := vk.ResetCommandBuffer(v.Handle, 0); res != vk.Success {
		return vkError("vkResetCommandBuffer", res)
	}
	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}
	if res := vk.BeginCommandBuffer(v.Handle, &beginInfo); res != vk.Success {
		return vkError("vkBeginCommandBuffer", res)
	}
	v.State = COMMAND_BUFFER_STATE_RECORDING
	return nil
}

func (v *VulkanCommandBuffer) End() error {
	if res := vk.EndCommandBuffer(v.Handle); res != vk.Success {
		return vkError("vkEndCommandBuffer", res)
	}
	return nil
}

// commandBuffer implements gpu.CommandBuffer over one primary Vulkan command
// buffer of the current frame.
type commandBuffer struct {
	device *Device
	frame  *frame
	vcb    *VulkanCommandBuffer
	fence  *VulkanFence

	// Set once a swapchain image was acquired for this submission.
	acquired  *Texture
	presented bool
	submitted bool
}

func (cb *commandBuffer) BeginCopyPass() (gpu.CopyPass, error) {
	if cb.vcb.State != COMMAND_BUFFER_STATE_RECORDING {
		return nil, errPassOpen
	}
	// Earlier submissions may still read buffers this pass overwrites.
	barrier(cb.vcb.Handle,
		vk.PipelineStageFlags(vk.PipelineStageVertexInputBit)|vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit),
		vk.AccessFlags(vk.AccessVertexAttributeReadBit)|vk.AccessFlags(vk.AccessIndexReadBit)|vk.AccessFlags(vk.AccessShaderReadBit),
		vk.PipelineStageFlags(vk.PipelineStageTransferBit),
		vk.AccessFlags(vk.AccessTransferWriteBit))
	cb.vcb.State = COMMAND_BUFFER_STATE_IN_COPY_PASS
	return &copyPass{cb: cb}, nil
}

func (cb *commandBuffer) BeginRenderPass(targets []gpu.ColorTargetInfo) (gpu.RenderPass, error) {
	if cb.vcb.State != COMMAND_BUFFER_STATE_RECORDING {
		return nil, errPassOpen
	}
	if len(targets) != 1 {
		return nil, fmt.Errorf("render passes take exactly one color target, got %d: %w", len(targets), gpu.ErrInvalidResource)
	}
	target := targets[0]
	t, ok := target.Texture.(*Texture)
	if !ok || t == nil || t.view == nil {
		return nil, fmt.Errorf("render target: %w", gpu.ErrInvalidResource)
	}

	key := renderPassKey{format: t.vkFormat, load: loadOp(target.LoadOp), store: storeOp(target.StoreOp), present: t.swapchain}
	if key.load == vk.AttachmentLoadOpLoad && t.layout == vk.ImageLayoutUndefined {
		key.load = vk.AttachmentLoadOpDontCare
	}
	rp, err := cb.device.renderPass(key)
	if err != nil {
		return nil, err
	}
	fb, err := cb.device.framebuffer(rp, t)
	if err != nil {
		return nil, err
	}

	clearValues := make([]vk.ClearValue, 1)
	clearValues[0].SetColor(target.ClearColor[:])
	beginInfo := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  rp,
		Framebuffer: fb,
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: vk.Extent2D{Width: t.width, Height: t.height},
		},
		ClearValueCount: 1,
		PClearValues:    clearValues,
	}
	vk.CmdBeginRenderPass(cb.vcb.Handle, &beginInfo, vk.SubpassContentsInline)
	cb.vcb.State = COMMAND_BUFFER_STATE_IN_RENDER_PASS

	if key.present {
		t.layout = vk.ImageLayoutPresentSrc
		cb.presented = true
	} else {
		t.layout = vk.ImageLayoutShaderReadOnlyOptimal
	}
	return &renderPass{cb: cb, target: t}, nil
}

// PushVertexUniformData records push constants for the vertex stage. The
// pipeline layout is shared by every pipeline, so the data survives pipeline
// binds.
func (cb *commandBuffer) PushVertexUniformData(slot uint32, data []byte) {
	if len(data) == 0 || slot >= maxUniformSlots {
		return
	}
	if len(data) > maxUniformSize {
		data = data[:maxUniformSize]
	}
	vk.CmdPushConstants(cb.vcb.Handle, cb.device.pipelineLayout, vk.ShaderStageFlags(vk.ShaderStageVertexBit),
		slot*maxUniformSize, uint32(len(data)), unsafe.Pointer(&data[0]))
}

func (cb *commandBuffer) WaitAndAcquireSwapchainTexture() (gpu.Texture, error) {
	if cb.acquired != nil {
		return cb.acquired, nil
	}
	t, err := cb.device.acquireSwapchainTexture(cb.frame)
	if err != nil || t == nil {
		return nil, err
	}
	cb.acquired = t
	return t, nil
}

func (cb *commandBuffer) Submit() error {
	if cb.submitted {
		return fmt.Errorf("command buffer submitted twice: %w", gpu.ErrInvalidResource)
	}
	if cb.vcb.State != COMMAND_BUFFER_STATE_RECORDING {
		return errPassOpen
	}
	cb.submitted = true
	return cb.device.submit(cb)
}

type copyPass struct {
	cb *commandBuffer
}

func (p *copyPass) UploadToBuffer(src gpu.TransferBufferLocation, dst gpu.BufferRegion, cycle bool) {
	from, ok := src.TransferBuffer.(*TransferBuffer)
	if !ok || from == nil || from.handle == nil {
		return
	}
	to, ok := dst.Buffer.(*Buffer)
	if !ok || to == nil || to.handle == nil {
		return
	}
	region := vk.BufferCopy{
		SrcOffset: vk.DeviceSize(src.Offset),
		DstOffset: vk.DeviceSize(dst.Offset),
		Size:      vk.DeviceSize(dst.Size),
	}
	vk.CmdCopyBuffer(p.cb.vcb.Handle, from.handle, to.handle, 1, []vk.BufferCopy{region})
}

func (p *copyPass) UploadToTexture(src gpu.TextureTransferInfo, dst gpu.TextureRegion, cycle bool) {
	from, ok := src.TransferBuffer.(*TransferBuffer)
	if !ok || from == nil || from.handle == nil {
		return
	}
	to, ok := dst.Texture.(*Texture)
	if !ok || to == nil || to.image == nil || to.swapchain {
		return
	}
	cmd := p.cb.vcb.Handle

	transitionImage(cmd, to, vk.ImageLayoutTransferDstOptimal)
	region := vk.BufferImageCopy{
		BufferOffset:      vk.DeviceSize(src.Offset),
		BufferRowLength:   src.PixelsPerRow,
		BufferImageHeight: src.RowsPerLayer,
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LayerCount: 1,
		},
		ImageOffset: vk.Offset3D{X: int32(dst.X), Y: int32(dst.Y)},
		ImageExtent: vk.Extent3D{Width: dst.W, Height: dst.H, Depth: 1},
	}
	vk.CmdCopyBufferToImage(cmd, from.handle, to.image, vk.ImageLayoutTransferDstOptimal, 1, []vk.BufferImageCopy{region})
	transitionImage(cmd, to, vk.ImageLayoutShaderReadOnlyOptimal)
}

// End makes the copies visible to the vertex input and fragment stages of
// later passes.
func (p *copyPass) End() {
	barrier(p.cb.vcb.Handle,
		vk.PipelineStageFlags(vk.PipelineStageTransferBit),
		vk.AccessFlags(vk.AccessTransferWriteBit),
		vk.PipelineStageFlags(vk.PipelineStageVertexInputBit)|vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit),
		vk.AccessFlags(vk.AccessVertexAttributeReadBit)|vk.AccessFlags(vk.AccessIndexReadBit)|vk.AccessFlags(vk.AccessShaderReadBit))
	p.cb.vcb.State = COMMAND_BUFFER_STATE_RECORDING
}

type renderPass struct {
	cb     *commandBuffer
	target *Texture
}

func (p *renderPass) BindGraphicsPipeline(pipeline gpu.GraphicsPipeline) {
	gp, ok := pipeline.(*GraphicsPipeline)
	if !ok || gp == nil || gp.handle == nil {
		return
	}
	vk.CmdBindPipeline(p.cb.vcb.Handle, vk.PipelineBindPointGraphics, gp.handle)
}

// SetViewport flips the viewport vertically so clip space keeps +Y up, the
// convention the projection matrices are written for.
func (p *renderPass) SetViewport(viewport gpu.Viewport) {
	vp := vk.Viewport{
		X:        viewport.X,
		Y:        viewport.Y + viewport.H,
		Width:    viewport.W,
		Height:   -viewport.H,
		MinDepth: viewport.MinDepth,
		MaxDepth: viewport.MaxDepth,
	}
	vk.CmdSetViewport(p.cb.vcb.Handle, 0, 1, []vk.Viewport{vp})
}

func (p *renderPass) SetScissor(scissor gpu.Rect) {
	x, y := max(scissor.X, 0), max(scissor.Y, 0)
	w, h := max(scissor.W, 0), max(scissor.H, 0)
	rect := vk.Rect2D{
		Offset: vk.Offset2D{X: x, Y: y},
		Extent: vk.Extent2D{Width: uint32(w), Height: uint32(h)},
	}
	vk.CmdSetScissor(p.cb.vcb.Handle, 0, 1, []vk.Rect2D{rect})
}

func (p *renderPass) BindVertexBuffers(firstSlot uint32, bindings []gpu.BufferBinding) {
	buffers := make([]vk.Buffer, 0, len(bindings))
	offsets := make([]vk.DeviceSize, 0, len(bindings))
	for _, b := range bindings {
		buf, ok := b.Buffer.(*Buffer)
		if !ok || buf == nil || buf.handle == nil {
			return
		}
		buffers = append(buffers, buf.handle)
		offsets = append(offsets, vk.DeviceSize(b.Offset))
	}
	if len(buffers) == 0 {
		return
	}
	vk.CmdBindVertexBuffers(p.cb.vcb.Handle, firstSlot, uint32(len(buffers)), buffers, offsets)
}

func (p *renderPass) BindIndexBuffer(binding gpu.BufferBinding, size gpu.IndexElementSize) {
	buf, ok := binding.Buffer.(*Buffer)
	if !ok || buf == nil || buf.handle == nil {
		return
	}
	vk.CmdBindIndexBuffer(p.cb.vcb.Handle, buf.handle, vk.DeviceSize(binding.Offset), indexType(size))
}

// BindFragmentSamplers binds the first pair; the shared layout has a single
// sampler binding.
func (p *renderPass) BindFragmentSamplers(firstSlot uint32, bindings []gpu.TextureSamplerBinding) {
	if firstSlot != 0 || len(bindings) == 0 {
		return
	}
	t, ok := bindings[0].Texture.(*Texture)
	if !ok || t == nil || t.view == nil {
		return
	}
	s, ok := bindings[0].Sampler.(*Sampler)
	if !ok || s == nil || s.handle == nil {
		return
	}
	set, err := p.cb.device.descriptors.get(t, s)
	if err != nil {
		p.cb.device.logger.Error("failed to bind fragment sampler", "err", err)
		return
	}
	vk.CmdBindDescriptorSets(p.cb.vcb.Handle, vk.PipelineBindPointGraphics, p.cb.device.pipelineLayout,
		0, 1, []vk.DescriptorSet{set}, 0, nil)
}

func (p *renderPass) DrawIndexedPrimitives(numIndices, numInstances, firstIndex uint32, vertexOffset int32, firstInstance uint32) {
	vk.CmdDrawIndexed(p.cb.vcb.Handle, numIndices, numInstances, firstIndex, vertexOffset, firstInstance)
}

func (p *renderPass) End() {
	vk.CmdEndRenderPass(p.cb.vcb.Handle)
	p.cb.vcb.State = COMMAND_BUFFER_STATE_RECORDING
}

func barrier(cmd vk.CommandBuffer, srcStage vk.PipelineStageFlags, srcAccess vk.AccessFlags, dstStage vk.PipelineStageFlags, dstAccess vk.AccessFlags) {
	memoryBarrier := vk.MemoryBarrier{
		SType:         vk.StructureTypeMemoryBarrier,
		SrcAccessMask: srcAccess,
		DstAccessMask: dstAccess,
	}
	vk.CmdPipelineBarrier(cmd, srcStage, dstStage, 0, 1, []vk.MemoryBarrier{memoryBarrier}, 0, nil, 0, nil)
}

// transitionImage records a layout change of t and updates its tracked layout.
func transitionImage(cmd vk.CommandBuffer, t *Texture, layout vk.ImageLayout) {
	if t.layout == layout {
		return
	}
	srcStage := vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit)
	var srcAccess vk.AccessFlags
	switch t.layout {
	case vk.ImageLayoutTransferDstOptimal:
		srcStage = vk.PipelineStageFlags(vk.PipelineStageTransferBit)
		srcAccess = vk.AccessFlags(vk.AccessTransferWriteBit)
	case vk.ImageLayoutShaderReadOnlyOptimal:
		srcStage = vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit)
		srcAccess = vk.AccessFlags(vk.AccessShaderReadBit)
	case vk.ImageLayoutPresentSrc, vk.ImageLayoutColorAttachmentOptimal:
		srcStage = vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)
		srcAccess = vk.AccessFlags(vk.AccessColorAttachmentWriteBit)
	}

	dstStage := vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit)
	dstAccess := vk.AccessFlags(vk.AccessShaderReadBit)
	switch layout {
	case vk.ImageLayoutTransferDstOptimal:
		dstStage = vk.PipelineStageFlags(vk.PipelineStageTransferBit)
		dstAccess = vk.AccessFlags(vk.AccessTransferWriteBit)
	case vk.ImageLayoutPresentSrc:
		dstStage = vk.PipelineStageFlags(vk.PipelineStageBottomOfPipeBit)
		dstAccess = 0
	}

	imageBarrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		SrcAccessMask:       srcAccess,
		DstAccessMask:       dstAccess,
		OldLayout:           t.layout,
		NewLayout:           layout,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               t.image,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LevelCount: 1,
			LayerCount: 1,
		},
	}
	vk.CmdPipelineBarrier(cmd, srcStage, dstStage, 0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{imageBarrier})
	t.layout = layout
}
