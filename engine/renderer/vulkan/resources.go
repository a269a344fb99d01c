package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/cumulus/engine/gpu"
)

type Buffer struct {
	id     uint64
	size   uint32
	handle vk.Buffer
	memory vk.DeviceMemory
}

func (b *Buffer) ID() uint64   { return b.id }
func (b *Buffer) Size() uint32 { return b.size }

type TransferBuffer struct {
	id     uint64
	size   uint32
	handle vk.Buffer
	memory vk.DeviceMemory
	mapped []byte
}

func (b *TransferBuffer) ID() uint64   { return b.id }
func (b *TransferBuffer) Size() uint32 { return b.size }

type Texture struct {
	id       uint64
	image    vk.Image
	memory   vk.DeviceMemory
	view     vk.ImageView
	width    uint32
	height   uint32
	format   gpu.TextureFormat
	vkFormat vk.Format
	// Layout the image is left in by the last recorded command.
	layout vk.ImageLayout

	swapchain  bool
	imageIndex uint32
}

func (t *Texture) ID() uint64                 { return t.id }
func (t *Texture) Width() uint32              { return t.width }
func (t *Texture) Height() uint32             { return t.height }
func (t *Texture) Format() gpu.TextureFormat { return t.format }

type Sampler struct {
	id     uint64
	handle vk.Sampler
}

func (s *Sampler) ID() uint64 { return s.id }

type Shader struct {
	id         uint64
	stage      gpu.ShaderStage
	module     vk.ShaderModule
	entrypoint string
}

func (s *Shader) ID() uint64              { return s.id }
func (s *Shader) Stage() gpu.ShaderStage { return s.stage }

type GraphicsPipeline struct {
	id     uint64
	handle vk.Pipeline
}

func (p *GraphicsPipeline) ID() uint64 { return p.id }

func createBuffer(context *VulkanContext, size uint32, usage vk.BufferUsageFlags, properties vk.MemoryPropertyFlags) (vk.Buffer, vk.DeviceMemory, error) {
	device := context.Device.LogicalDevice
	createInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}
	var buffer vk.Buffer
	if res := vk.CreateBuffer(device, &createInfo, context.Allocator, &buffer); res != vk.Success {
		return nil, nil, vkError("vkCreateBuffer", res)
	}

	var reqs vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(device, buffer, &reqs)
	reqs.Deref()

	memory, err := context.allocateMemory(reqs, properties)
	if err != nil {
		vk.DestroyBuffer(device, buffer, context.Allocator)
		return nil, nil, err
	}
	if res := vk.BindBufferMemory(device, buffer, memory, 0); res != vk.Success {
		vk.FreeMemory(device, memory, context.Allocator)
		vk.DestroyBuffer(device, buffer, context.Allocator)
		return nil, nil, vkError("vkBindBufferMemory", res)
	}
	return buffer, memory, nil
}

func createImageView(context *VulkanContext, image vk.Image, format vk.Format) (vk.ImageView, error) {
	viewInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    image,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LevelCount: 1,
			LayerCount: 1,
		},
	}
	var view vk.ImageView
	if res := vk.CreateImageView(context.Device.LogicalDevice, &viewInfo, context.Allocator, &view); res != vk.Success {
		return nil, vkError("vkCreateImageView", res)
	}
	return view, nil
}

func (d *Device) CreateBuffer(info gpu.BufferCreateInfo) (gpu.Buffer, error) {
	if info.Size == 0 {
		return nil, fmt.Errorf("buffer %q has zero size: %w", info.Name, gpu.ErrInvalidResource)
	}
	usage := vk.BufferUsageFlags(vk.BufferUsageTransferDstBit)
	if info.Usage&gpu.BufferUsageVertex != 0 {
		usage |= vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit)
	}
	if info.Usage&gpu.BufferUsageIndex != 0 {
		usage |= vk.BufferUsageFlags(vk.BufferUsageIndexBufferBit)
	}
	handle, memory, err := createBuffer(d.context, info.Size, usage, vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		return nil, fmt.Errorf("buffer %q: %w", info.Name, err)
	}
	d.logger.Debug("buffer created", "name", info.Name, "size", info.Size)
	return &Buffer{id: d.newID(), size: info.Size, handle: handle, memory: memory}, nil
}

func (d *Device) ReleaseBuffer(buffer gpu.Buffer) {
	b, ok := buffer.(*Buffer)
	if !ok || b == nil || b.handle == nil {
		return
	}
	handle, memory := b.handle, b.memory
	b.handle, b.memory = nil, nil
	d.deferRelease(func(ld vk.Device) {
		vk.DestroyBuffer(ld, handle, d.context.Allocator)
		vk.FreeMemory(ld, memory, d.context.Allocator)
	})
}

func (d *Device) CreateTransferBuffer(info gpu.TransferBufferCreateInfo) (gpu.TransferBuffer, error) {
	if info.Size == 0 {
		return nil, fmt.Errorf("transfer buffer has zero size: %w", gpu.ErrInvalidResource)
	}
	usage := vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit)
	if info.Usage == gpu.TransferBufferUsageDownload {
		usage = vk.BufferUsageFlags(vk.BufferUsageTransferDstBit)
	}
	props := vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit) | vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit)
	handle, memory, err := createBuffer(d.context, info.Size, usage, props)
	if err != nil {
		return nil, fmt.Errorf("transfer buffer: %w", err)
	}
	return &TransferBuffer{id: d.newID(), size: info.Size, handle: handle, memory: memory}, nil
}

func (d *Device) ReleaseTransferBuffer(buffer gpu.TransferBuffer) {
	b, ok := buffer.(*TransferBuffer)
	if !ok || b == nil || b.handle == nil {
		return
	}
	if b.mapped != nil {
		d.UnmapTransferBuffer(b)
	}
	handle, memory := b.handle, b.memory
	b.handle, b.memory = nil, nil
	d.deferRelease(func(ld vk.Device) {
		vk.DestroyBuffer(ld, handle, d.context.Allocator)
		vk.FreeMemory(ld, memory, d.context.Allocator)
	})
}

// MapTransferBuffer maps host-coherent memory, so no flush is needed before
// the copy. Transfer buffers are not shared between in-flight submissions, so
// cycle has nothing to rotate.
func (d *Device) MapTransferBuffer(buffer gpu.TransferBuffer, cycle bool) ([]byte, error) {
	b, ok := buffer.(*TransferBuffer)
	if !ok || b == nil || b.handle == nil {
		return nil, gpu.ErrInvalidResource
	}
	if b.mapped != nil {
		return b.mapped, nil
	}
	var data unsafe.Pointer
	if res := vk.MapMemory(d.context.Device.LogicalDevice, b.memory, 0, vk.DeviceSize(b.size), 0, &data); res != vk.Success {
		return nil, vkError("vkMapMemory", res)
	}
	b.mapped = unsafe.Slice((*byte)(data), b.size)
	return b.mapped, nil
}

func (d *Device) UnmapTransferBuffer(buffer gpu.TransferBuffer) {
	b, ok := buffer.(*TransferBuffer)
	if !ok || b == nil || b.mapped == nil {
		return
	}
	vk.UnmapMemory(d.context.Device.LogicalDevice, b.memory)
	b.mapped = nil
}

func (d *Device) CreateTexture(info gpu.TextureCreateInfo) (gpu.Texture, error) {
	if info.Width == 0 || info.Height == 0 {
		return nil, fmt.Errorf("texture %q is %dx%d: %w", info.Name, info.Width, info.Height, gpu.ErrInvalidResource)
	}
	format, err := vulkanFormat(info.Format)
	if err != nil {
		return nil, err
	}
	usage := vk.ImageUsageFlags(vk.ImageUsageTransferDstBit)
	if info.Usage&gpu.TextureUsageSampler != 0 {
		usage |= vk.ImageUsageFlags(vk.ImageUsageSampledBit)
	}
	if info.Usage&gpu.TextureUsageColorTarget != 0 {
		usage |= vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit)
	}

	device := d.context.Device.LogicalDevice
	imageInfo := vk.ImageCreateInfo{
		SType:         vk.StructureTypeImageCreateInfo,
		ImageType:     vk.ImageType2d,
		Format:        format,
		Extent:        vk.Extent3D{Width: info.Width, Height: info.Height, Depth: 1},
		MipLevels:     1,
		ArrayLayers:   1,
		Samples:       vk.SampleCount1Bit,
		Tiling:        vk.ImageTilingOptimal,
		Usage:         usage,
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}
	var image vk.Image
	if res := vk.CreateImage(device, &imageInfo, d.context.Allocator, &image); res != vk.Success {
		return nil, fmt.Errorf("texture %q: %w", info.Name, vkError("vkCreateImage", res))
	}

	var reqs vk.MemoryRequirements
	vk.GetImageMemoryRequirements(device, image, &reqs)
	reqs.Deref()
	memory, err := d.context.allocateMemory(reqs, vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		vk.DestroyImage(device, image, d.context.Allocator)
		return nil, fmt.Errorf("texture %q: %w", info.Name, err)
	}
	if res := vk.BindImageMemory(device, image, memory, 0); res != vk.Success {
		vk.FreeMemory(device, memory, d.context.Allocator)
		vk.DestroyImage(device, image, d.context.Allocator)
		return nil, fmt.Errorf("texture %q: %w", info.Name, vkError("vkBindImageMemory", res))
	}
	view, err := createImageView(d.context, image, format)
	if err != nil {
		vk.FreeMemory(device, memory, d.context.Allocator)
		vk.DestroyImage(device, image, d.context.Allocator)
		return nil, fmt.Errorf("texture %q: %w", info.Name, err)
	}

	d.logger.Debug("texture created", "name", info.Name, "width", info.Width, "height", info.Height)
	return &Texture{
		id:       d.newID(),
		image:    image,
		memory:   memory,
		view:     view,
		width:    info.Width,
		height:   info.Height,
		format:   info.Format,
		vkFormat: format,
		layout:   vk.ImageLayoutUndefined,
	}, nil
}

func (d *Device) ReleaseTexture(texture gpu.Texture) {
	t, ok := texture.(*Texture)
	if !ok || t == nil || t.swapchain || t.image == nil {
		return
	}
	d.descriptors.forget(t.id)
	fb := d.forgetFramebuffer(t.view)
	image, memory, view := t.image, t.memory, t.view
	t.image, t.memory, t.view = nil, nil, nil
	d.deferRelease(func(ld vk.Device) {
		if fb != nil {
			vk.DestroyFramebuffer(ld, fb, d.context.Allocator)
		}
		vk.DestroyImageView(ld, view, d.context.Allocator)
		vk.DestroyImage(ld, image, d.context.Allocator)
		vk.FreeMemory(ld, memory, d.context.Allocator)
	})
}

func (d *Device) CreateSampler(info gpu.SamplerCreateInfo) (gpu.Sampler, error) {
	samplerInfo := vk.SamplerCreateInfo{
		SType:         vk.StructureTypeSamplerCreateInfo,
		MagFilter:     filter(info.MagFilter),
		MinFilter:     filter(info.MinFilter),
		MipmapMode:    mipmapMode(info.MipmapMode),
		AddressModeU:  addressMode(info.AddressModeU),
		AddressModeV:  addressMode(info.AddressModeV),
		AddressModeW:  addressMode(info.AddressModeW),
		MaxAnisotropy: 1.0,
		BorderColor:   vk.BorderColorFloatTransparentBlack,
		CompareOp:     vk.CompareOpAlways,
		MaxLod:        1000,
	}
	var handle vk.Sampler
	if res := vk.CreateSampler(d.context.Device.LogicalDevice, &samplerInfo, d.context.Allocator, &handle); res != vk.Success {
		return nil, vkError("vkCreateSampler", res)
	}
	return &Sampler{id: d.newID(), handle: handle}, nil
}

func (d *Device) ReleaseSampler(sampler gpu.Sampler) {
	s, ok := sampler.(*Sampler)
	if !ok || s == nil || s.handle == nil {
		return
	}
	d.descriptors.forget(s.id)
	handle := s.handle
	s.handle = nil
	d.deferRelease(func(ld vk.Device) {
		vk.DestroySampler(ld, handle, d.context.Allocator)
	})
}

func (d *Device) CreateShader(info gpu.ShaderCreateInfo) (gpu.Shader, error) {
	if info.Format != gpu.ShaderFormatSPIRV {
		return nil, fmt.Errorf("vulkan consumes spir-v only, got format %d: %w", info.Format, gpu.ErrUnsupportedFormat)
	}
	if info.NumSamplers > 1 {
		return nil, fmt.Errorf("%s shader declares %d samplers, at most 1 is bound: %w", info.Stage, info.NumSamplers, gpu.ErrInvalidResource)
	}
	if info.Stage != gpu.ShaderStageVertex && info.NumUniformBuffers > 0 {
		return nil, fmt.Errorf("%s shader uniforms are not supported: %w", info.Stage, gpu.ErrInvalidResource)
	}
	words, err := spirvWords(info.Code)
	if err != nil {
		return nil, err
	}
	createInfo := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(info.Code)),
		PCode:    words,
	}
	var module vk.ShaderModule
	if res := vk.CreateShaderModule(d.context.Device.LogicalDevice, &createInfo, d.context.Allocator, &module); res != vk.Success {
		return nil, vkError("vkCreateShaderModule", res)
	}
	entry := info.Entrypoint
	if entry == "" {
		entry = "main"
	}
	return &Shader{id: d.newID(), stage: info.Stage, module: module, entrypoint: entry}, nil
}

// ReleaseShader destroys the module right away: pipelines keep their own
// compiled copy.
func (d *Device) ReleaseShader(shader gpu.Shader) {
	s, ok := shader.(*Shader)
	if !ok || s == nil || s.module == nil {
		return
	}
	vk.DestroyShaderModule(d.context.Device.LogicalDevice, s.module, d.context.Allocator)
	s.module = nil
}

func (d *Device) ReleaseGraphicsPipeline(pipeline gpu.GraphicsPipeline) {
	p, ok := pipeline.(*GraphicsPipeline)
	if !ok || p == nil || p.handle == nil {
		return
	}
	handle := p.handle
	p.handle = nil
	d.deferRelease(func(ld vk.Device) {
		vk.DestroyPipeline(ld, handle, d.context.Allocator)
	})
}
