package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/cumulus/engine/gpu"
)

func vulkanFormat(f gpu.TextureFormat) (vk.Format, error) {
	switch f {
	case gpu.TextureFormatR8G8B8A8Unorm:
		return vk.FormatR8g8b8a8Unorm, nil
	case gpu.TextureFormatB8G8R8A8Unorm:
		return vk.FormatB8g8r8a8Unorm, nil
	case gpu.TextureFormatB8G8R8A8UnormSRGB:
		return vk.FormatB8g8r8a8Srgb, nil
	}
	return vk.FormatUndefined, fmt.Errorf("texture format %d: %w", f, gpu.ErrUnsupportedFormat)
}

func textureFormat(f vk.Format) gpu.TextureFormat {
	switch f {
	case vk.FormatR8g8b8a8Unorm:
		return gpu.TextureFormatR8G8B8A8Unorm
	case vk.FormatB8g8r8a8Unorm:
		return gpu.TextureFormatB8G8R8A8Unorm
	case vk.FormatB8g8r8a8Srgb:
		return gpu.TextureFormatB8G8R8A8UnormSRGB
	}
	return gpu.TextureFormatInvalid
}

func vertexFormat(f gpu.VertexElementFormat) (vk.Format, error) {
	switch f {
	case gpu.VertexElementFormatFloat2:
		return vk.FormatR32g32Sfloat, nil
	case gpu.VertexElementFormatFloat4:
		return vk.FormatR32g32b32a32Sfloat, nil
	case gpu.VertexElementFormatUByte4Norm:
		return vk.FormatR8g8b8a8Unorm, nil
	}
	return vk.FormatUndefined, fmt.Errorf("vertex element format %d: %w", f, gpu.ErrUnsupportedFormat)
}

func blendFactor(f gpu.BlendFactor) vk.BlendFactor {
	switch f {
	case gpu.BlendFactorZero:
		return vk.BlendFactorZero
	case gpu.BlendFactorSrcAlpha:
		return vk.BlendFactorSrcAlpha
	case gpu.BlendFactorOneMinusSrcAlpha:
		return vk.BlendFactorOneMinusSrcAlpha
	}
	return vk.BlendFactorOne
}

func blendOp(op gpu.BlendOp) vk.BlendOp {
	if op == gpu.BlendOpSubtract {
		return vk.BlendOpSubtract
	}
	return vk.BlendOpAdd
}

func primitiveTopology(p gpu.PrimitiveType) vk.PrimitiveTopology {
	switch p {
	case gpu.PrimitiveTypeTriangleStrip:
		return vk.PrimitiveTopologyTriangleStrip
	case gpu.PrimitiveTypeLineList:
		return vk.PrimitiveTopologyLineList
	}
	return vk.PrimitiveTopologyTriangleList
}

func filter(f gpu.Filter) vk.Filter {
	if f == gpu.FilterNearest {
		return vk.FilterNearest
	}
	return vk.FilterLinear
}

func mipmapMode(m gpu.SamplerMipmapMode) vk.SamplerMipmapMode {
	if m == gpu.SamplerMipmapModeNearest {
		return vk.SamplerMipmapModeNearest
	}
	return vk.SamplerMipmapModeLinear
}

func addressMode(m gpu.SamplerAddressMode) vk.SamplerAddressMode {
	switch m {
	case gpu.SamplerAddressModeMirroredRepeat:
		return vk.SamplerAddressModeMirroredRepeat
	case gpu.SamplerAddressModeClampToEdge:
		return vk.SamplerAddressModeClampToEdge
	}
	return vk.SamplerAddressModeRepeat
}

func loadOp(op gpu.LoadOp) vk.AttachmentLoadOp {
	switch op {
	case gpu.LoadOpClear:
		return vk.AttachmentLoadOpClear
	case gpu.LoadOpDontCare:
		return vk.AttachmentLoadOpDontCare
	}
	return vk.AttachmentLoadOpLoad
}

func storeOp(op gpu.StoreOp) vk.AttachmentStoreOp {
	if op == gpu.StoreOpDontCare {
		return vk.AttachmentStoreOpDontCare
	}
	return vk.AttachmentStoreOpStore
}

func indexType(s gpu.IndexElementSize) vk.IndexType {
	if s == gpu.IndexElementSize32Bit {
		return vk.IndexTypeUint32
	}
	return vk.IndexTypeUint16
}
