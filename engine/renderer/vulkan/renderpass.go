package vulkan

import (
	vk "github.com/goki/vulkan"
)

// renderPassKey identifies a single-color-attachment render pass. Passes that
// target swapchain images end in the present layout, the rest end ready to be
// sampled.
type renderPassKey struct {
	format  vk.Format
	load    vk.AttachmentLoadOp
	store   vk.AttachmentStoreOp
	present bool
}

func (d *Device) renderPass(key renderPassKey) (vk.RenderPass, error) {
	if rp, ok := d.renderPasses[key]; ok {
		return rp, nil
	}

	finalLayout := vk.ImageLayoutShaderReadOnlyOptimal
	if key.present {
		finalLayout = vk.ImageLayoutPresentSrc
	}
	// Loading keeps what the previous pass over the image left behind.
	initialLayout := vk.ImageLayoutUndefined
	if key.load == vk.AttachmentLoadOpLoad {
		initialLayout = finalLayout
	}

	colorAttachment := vk.AttachmentDescription{
		Format:         key.format,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         key.load,
		StoreOp:        key.store,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  initialLayout,
		FinalLayout:    finalLayout,
	}
	colorAttachmentReference := []vk.AttachmentReference{
		{
			Attachment: 0,
			Layout:     vk.ImageLayoutColorAttachmentOptimal,
		},
	}
	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: 1,
		PColorAttachments:    colorAttachmentReference,
	}
	dependency := vk.SubpassDependency{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		SrcAccessMask: 0,
		DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentReadBit) | vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
	}

	createInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: 1,
		PAttachments:    []vk.AttachmentDescription{colorAttachment},
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{dependency},
	}

	var rp vk.RenderPass
	if res := vk.CreateRenderPass(d.context.Device.LogicalDevice, &createInfo, d.context.Allocator, &rp); res != vk.Success {
		return nil, vkError("vkCreateRenderPass", res)
	}
	d.renderPasses[key] = rp
	return rp, nil
}

// framebuffer returns the framebuffer binding view to the render pass. They
// are cached per view; every render pass built by renderPass with the same
// format is compatible, so one framebuffer serves all load operations.
func (d *Device) framebuffer(rp vk.RenderPass, t *Texture) (vk.Framebuffer, error) {
	if fb, ok := d.framebuffers[t.view]; ok {
		return fb, nil
	}
	createInfo := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      rp,
		AttachmentCount: 1,
		PAttachments:    []vk.ImageView{t.view},
		Width:           t.width,
		Height:          t.height,
		Layers:          1,
	}
	var fb vk.Framebuffer
	if res := vk.CreateFramebuffer(d.context.Device.LogicalDevice, &createInfo, d.context.Allocator, &fb); res != vk.Success {
		return nil, vkError("vkCreateFramebuffer", res)
	}
	d.framebuffers[t.view] = fb
	return fb, nil
}

func (d *Device) forgetFramebuffer(view vk.ImageView) vk.Framebuffer {
	fb, ok := d.framebuffers[view]
	if !ok {
		return nil
	}
	delete(d.framebuffers, view)
	return fb
}

func (d *Device) destroyRenderPasses() {
	for key, rp := range d.renderPasses {
		vk.DestroyRenderPass(d.context.Device.LogicalDevice, rp, d.context.Allocator)
		delete(d.renderPasses, key)
	}
}
