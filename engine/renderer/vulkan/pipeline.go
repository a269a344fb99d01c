package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/cumulus/engine/core"
	"github.com/spaghettifunk/cumulus/engine/gpu"
)

// Vertex uniform slots are backed by push constants: slot n lives at
// n*maxUniformSize bytes.
const (
	maxUniformSize  = 64
	maxUniformSlots = 2
)

/**
 * @brief Creates the pipeline layout shared by every pipeline: one combined
 * image sampler for the fragment stage at set 0, binding 0, and the vertex
 * uniform push constant range.
 */
func createPipelineLayout(context *VulkanContext) (vk.DescriptorSetLayout, vk.PipelineLayout, error) {
	device := context.Device.LogicalDevice
	binding := vk.DescriptorSetLayoutBinding{
		Binding:         0,
		DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
		DescriptorCount: 1,
		StageFlags:      vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
	}
	setLayoutInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: 1,
		PBindings:    []vk.DescriptorSetLayoutBinding{binding},
	}
	var setLayout vk.DescriptorSetLayout
	if res := vk.CreateDescriptorSetLayout(device, &setLayoutInfo, context.Allocator, &setLayout); res != vk.Success {
		return nil, nil, vkError("vkCreateDescriptorSetLayout", res)
	}

	pushRange := vk.PushConstantRange{
		StageFlags: vk.ShaderStageFlags(vk.ShaderStageVertexBit),
		Offset:     0,
		Size:       maxUniformSize * maxUniformSlots,
	}
	layoutInfo := vk.PipelineLayoutCreateInfo{
		SType:                  vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount:         1,
		PSetLayouts:            []vk.DescriptorSetLayout{setLayout},
		PushConstantRangeCount: 1,
		PPushConstantRanges:    []vk.PushConstantRange{pushRange},
	}
	var layout vk.PipelineLayout
	if res := vk.CreatePipelineLayout(device, &layoutInfo, context.Allocator, &layout); res != vk.Success {
		vk.DestroyDescriptorSetLayout(device, setLayout, context.Allocator)
		return nil, nil, vkError("vkCreatePipelineLayout", res)
	}
	return setLayout, layout, nil
}

func (d *Device) CreateGraphicsPipeline(info gpu.GraphicsPipelineCreateInfo) (gpu.GraphicsPipeline, error) {
	vs, ok := info.VertexShader.(*Shader)
	if !ok || vs == nil || vs.module == nil {
		return nil, fmt.Errorf("vertex shader: %w", gpu.ErrInvalidResource)
	}
	fs, ok := info.FragmentShader.(*Shader)
	if !ok || fs == nil || fs.module == nil {
		return nil, fmt.Errorf("fragment shader: %w", gpu.ErrInvalidResource)
	}
	if len(info.ColorTargets) != 1 {
		return nil, fmt.Errorf("pipelines render to exactly one color target, got %d: %w", len(info.ColorTargets), gpu.ErrInvalidResource)
	}
	target := info.ColorTargets[0]
	format, err := vulkanFormat(target.Format)
	if err != nil {
		return nil, err
	}
	// Only the attachment format matters for render pass compatibility.
	renderPass, err := d.renderPass(renderPassKey{format: format, load: vk.AttachmentLoadOpClear, store: vk.AttachmentStoreOpStore, present: true})
	if err != nil {
		return nil, err
	}

	stages := []vk.PipelineShaderStageCreateInfo{
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageVertexBit,
			Module: vs.module,
			PName:  VulkanSafeString(vs.entrypoint),
		},
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageFragmentBit,
			Module: fs.module,
			PName:  VulkanSafeString(fs.entrypoint),
		},
	}

	bindings := make([]vk.VertexInputBindingDescription, 0, len(info.VertexBuffers))
	for _, vb := range info.VertexBuffers {
		rate := vk.VertexInputRateVertex
		if vb.InputRate == gpu.VertexInputRateInstance {
			rate = vk.VertexInputRateInstance
		}
		bindings = append(bindings, vk.VertexInputBindingDescription{
			Binding:   vb.Slot,
			Stride:    vb.Pitch,
			InputRate: rate,
		})
	}
	attributes := make([]vk.VertexInputAttributeDescription, 0, len(info.Attributes))
	for _, a := range info.Attributes {
		f, err := vertexFormat(a.Format)
		if err != nil {
			return nil, err
		}
		attributes = append(attributes, vk.VertexInputAttributeDescription{
			Location: a.Location,
			Binding:  a.BufferSlot,
			Format:   f,
			Offset:   a.Offset,
		})
	}
	vertexInputInfo := vk.PipelineVertexInputStateCreateInfo{
		SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   uint32(len(bindings)),
		PVertexBindingDescriptions:      bindings,
		VertexAttributeDescriptionCount: uint32(len(attributes)),
		PVertexAttributeDescriptions:    attributes,
	}

	inputAssembly := vk.PipelineInputAssemblyStateCreateInfo{
		SType:    vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology: primitiveTopology(info.PrimitiveType),
	}

	// Viewport and scissor are dynamic; only the counts are fixed here.
	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		ScissorCount:  1,
	}

	rasterizer := vk.PipelineRasterizationStateCreateInfo{
		SType:       vk.StructureTypePipelineRasterizationStateCreateInfo,
		PolygonMode: vk.PolygonModeFill,
		CullMode:    vk.CullModeFlags(vk.CullModeNone),
		FrontFace:   vk.FrontFaceCounterClockwise,
		LineWidth:   1.0,
	}

	multisampling := vk.PipelineMultisampleStateCreateInfo{
		SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
		RasterizationSamples: vk.SampleCount1Bit,
		MinSampleShading:     1.0,
	}

	depthStencil := vk.PipelineDepthStencilStateCreateInfo{
		SType: vk.StructureTypePipelineDepthStencilStateCreateInfo,
	}

	blend := target.BlendState
	colorBlendAttachment := vk.PipelineColorBlendAttachmentState{
		SrcColorBlendFactor: blendFactor(blend.SrcColorBlendFactor),
		DstColorBlendFactor: blendFactor(blend.DstColorBlendFactor),
		ColorBlendOp:        blendOp(blend.ColorBlendOp),
		SrcAlphaBlendFactor: blendFactor(blend.SrcAlphaBlendFactor),
		DstAlphaBlendFactor: blendFactor(blend.DstAlphaBlendFactor),
		AlphaBlendOp:        blendOp(blend.AlphaBlendOp),
		ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit) | vk.ColorComponentFlags(vk.ColorComponentGBit) |
			vk.ColorComponentFlags(vk.ColorComponentBBit) | vk.ColorComponentFlags(vk.ColorComponentABit),
	}
	if blend.Enable {
		colorBlendAttachment.BlendEnable = vk.True
	}
	colorBlendState := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOp:         vk.LogicOpCopy,
		AttachmentCount: 1,
		PAttachments:    []vk.PipelineColorBlendAttachmentState{colorBlendAttachment},
	}

	dynamicStates := []vk.DynamicState{
		vk.DynamicStateViewport,
		vk.DynamicStateScissor,
	}
	dynamicState := vk.PipelineDynamicStateCreateInfo{
		SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
		DynamicStateCount: uint32(len(dynamicStates)),
		PDynamicStates:    dynamicStates,
	}

	pipelineCreateInfo := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(stages)),
		PStages:             stages,
		PVertexInputState:   &vertexInputInfo,
		PInputAssemblyState: &inputAssembly,
		PViewportState:      &viewportState,
		PRasterizationState: &rasterizer,
		PMultisampleState:   &multisampling,
		PDepthStencilState:  &depthStencil,
		PColorBlendState:    &colorBlendState,
		PDynamicState:       &dynamicState,
		Layout:              d.pipelineLayout,
		RenderPass:          renderPass,
		Subpass:             0,
		BasePipelineIndex:   -1,
	}

	pipelines := make([]vk.Pipeline, 1)
	res := vk.CreateGraphicsPipelines(d.context.Device.LogicalDevice, vk.NullPipelineCache, 1,
		[]vk.GraphicsPipelineCreateInfo{pipelineCreateInfo}, d.context.Allocator, pipelines)
	if res != vk.Success {
		return nil, vkError("vkCreateGraphicsPipelines", res)
	}

	core.LogDebug("Graphics pipeline created!")
	return &GraphicsPipeline{id: d.newID(), handle: pipelines[0]}, nil
}
