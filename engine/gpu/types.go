package gpu

// ShaderFormat is a bit set of shader binary formats a device accepts.
type ShaderFormat uint32

const (
	ShaderFormatInvalid ShaderFormat = 0
	ShaderFormatSPIRV   ShaderFormat = 1 << iota
	ShaderFormatMSL
	ShaderFormatDXIL
)

func (f ShaderFormat) Has(other ShaderFormat) bool {
	return f&other == other && other != 0
}

type ShaderStage int

const (
	ShaderStageVertex ShaderStage = iota
	ShaderStageFragment
)

func (s ShaderStage) String() string {
	switch s {
	case ShaderStageVertex:
		return "vertex"
	case ShaderStageFragment:
		return "fragment"
	}
	return "unknown"
}

type TextureFormat int

const (
	TextureFormatInvalid TextureFormat = iota
	TextureFormatR8G8B8A8Unorm
	TextureFormatB8G8R8A8Unorm
	TextureFormatB8G8R8A8UnormSRGB
)

// BytesPerPixel of the uncompressed formats above.
func (f TextureFormat) BytesPerPixel() uint32 {
	switch f {
	case TextureFormatR8G8B8A8Unorm, TextureFormatB8G8R8A8Unorm, TextureFormatB8G8R8A8UnormSRGB:
		return 4
	}
	return 0
}

type TextureUsage uint32

const (
	TextureUsageSampler TextureUsage = 1 << iota
	TextureUsageColorTarget
)

type BufferUsage uint32

const (
	BufferUsageVertex BufferUsage = 1 << iota
	BufferUsageIndex
)

type TransferBufferUsage int

const (
	TransferBufferUsageUpload TransferBufferUsage = iota
	TransferBufferUsageDownload
)

type IndexElementSize int

const (
	IndexElementSize16Bit IndexElementSize = iota
	IndexElementSize32Bit
)

type VertexElementFormat int

const (
	VertexElementFormatInvalid VertexElementFormat = iota
	VertexElementFormatFloat2
	VertexElementFormatFloat4
	VertexElementFormatUByte4Norm
)

// Size in bytes of one element of the format.
func (f VertexElementFormat) Size() uint32 {
	switch f {
	case VertexElementFormatFloat2:
		return 8
	case VertexElementFormatFloat4:
		return 16
	case VertexElementFormatUByte4Norm:
		return 4
	}
	return 0
}

type VertexInputRate int

const (
	VertexInputRateVertex VertexInputRate = iota
	VertexInputRateInstance
)

type PrimitiveType int

const (
	PrimitiveTypeTriangleList PrimitiveType = iota
	PrimitiveTypeTriangleStrip
	PrimitiveTypeLineList
)

type BlendFactor int

const (
	BlendFactorZero BlendFactor = iota
	BlendFactorOne
	BlendFactorSrcAlpha
	BlendFactorOneMinusSrcAlpha
)

type BlendOp int

const (
	BlendOpAdd BlendOp = iota
	BlendOpSubtract
)

type Filter int

const (
	FilterNearest Filter = iota
	FilterLinear
)

type SamplerMipmapMode int

const (
	SamplerMipmapModeNearest SamplerMipmapMode = iota
	SamplerMipmapModeLinear
)

type SamplerAddressMode int

const (
	SamplerAddressModeRepeat SamplerAddressMode = iota
	SamplerAddressModeMirroredRepeat
	SamplerAddressModeClampToEdge
)

type LoadOp int

const (
	LoadOpLoad LoadOp = iota
	LoadOpClear
	LoadOpDontCare
)

type StoreOp int

const (
	StoreOpStore StoreOp = iota
	StoreOpDontCare
)

type BufferCreateInfo struct {
	Usage BufferUsage
	Size  uint32
	Name  string
}

type TransferBufferCreateInfo struct {
	Usage TransferBufferUsage
	Size  uint32
}

type TextureCreateInfo struct {
	Format TextureFormat
	Usage  TextureUsage
	Width  uint32
	Height uint32
	Name   string
}

type SamplerCreateInfo struct {
	MinFilter    Filter
	MagFilter    Filter
	MipmapMode   SamplerMipmapMode
	AddressModeU SamplerAddressMode
	AddressModeV SamplerAddressMode
	AddressModeW SamplerAddressMode
}

type ShaderCreateInfo struct {
	Code       []byte
	Entrypoint string
	Format     ShaderFormat
	Stage      ShaderStage
	// Resource counts the shader declares, per stage.
	NumSamplers       uint32
	NumUniformBuffers uint32
}

type VertexBufferDescription struct {
	Slot      uint32
	Pitch     uint32
	InputRate VertexInputRate
}

type VertexAttribute struct {
	Location   uint32
	BufferSlot uint32
	Format     VertexElementFormat
	Offset     uint32
}

type ColorTargetBlendState struct {
	Enable              bool
	SrcColorBlendFactor BlendFactor
	DstColorBlendFactor BlendFactor
	ColorBlendOp        BlendOp
	SrcAlphaBlendFactor BlendFactor
	DstAlphaBlendFactor BlendFactor
	AlphaBlendOp        BlendOp
}

type ColorTargetDescription struct {
	Format     TextureFormat
	BlendState ColorTargetBlendState
}

type GraphicsPipelineCreateInfo struct {
	VertexShader   Shader
	FragmentShader Shader
	VertexBuffers  []VertexBufferDescription
	Attributes     []VertexAttribute
	PrimitiveType  PrimitiveType
	ColorTargets   []ColorTargetDescription
}

type Viewport struct {
	X, Y, W, H         float32
	MinDepth, MaxDepth float32
}

// Rect is an integer pixel rectangle, used for scissoring.
type Rect struct {
	X, Y, W, H int32
}

type TransferBufferLocation struct {
	TransferBuffer TransferBuffer
	Offset         uint32
}

type BufferRegion struct {
	Buffer Buffer
	Offset uint32
	Size   uint32
}

type TextureTransferInfo struct {
	TransferBuffer TransferBuffer
	Offset         uint32
	PixelsPerRow   uint32
	RowsPerLayer   uint32
}

type TextureRegion struct {
	Texture Texture
	X, Y    uint32
	W, H    uint32
}

type BufferBinding struct {
	Buffer Buffer
	Offset uint32
}

type TextureSamplerBinding struct {
	Texture Texture
	Sampler Sampler
}

type ColorTargetInfo struct {
	Texture    Texture
	ClearColor [4]float32
	LoadOp     LoadOp
	StoreOp    StoreOp
}
