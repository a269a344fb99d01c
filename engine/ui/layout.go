package ui

import "github.com/spaghettifunk/cumulus/engine/math"

type VertexAttribute int

const (
	VertexPosition VertexAttribute = iota
	VertexTexcoord
	VertexColor
)

type VertexFormat int

const (
	// Two 32-bit floats.
	FormatFloat2 VertexFormat = iota
	// Four bytes, one per channel.
	FormatR8G8B8A8
	// Four 32-bit floats in [0,1], one per channel.
	FormatR32G32B32A32Float
)

// VertexLayoutElement places one attribute inside a vertex.
type VertexLayoutElement struct {
	Attribute VertexAttribute
	Format    VertexFormat
	Offset    uintptr
}

type AntiAliasing int

const (
	AntiAliasingOff AntiAliasing = iota
	AntiAliasingOn
)

// NullTexture is a texture with a white texel at UV, used for untextured
// shapes so every primitive can be drawn with one shader.
type NullTexture struct {
	Texture Handle
	UV      math.Vec2
}

// ConvertConfig controls how Convert tessellates the frame.
type ConvertConfig struct {
	GlobalAlpha        float32
	LineAA             AntiAliasing
	ShapeAA            AntiAliasing
	CircleSegmentCount uint32
	ArcSegmentCount    uint32
	CurveSegmentCount  uint32
	NullTexture        NullTexture
	VertexLayout       []VertexLayoutElement
	VertexSize         uintptr
	VertexAlignment    uintptr
}

// DefaultConvertConfig returns a config with anti-aliasing on and 22
// segments per circle, arc and curve. The layout must still be filled in.
func DefaultConvertConfig() ConvertConfig {
	return ConvertConfig{
		GlobalAlpha:        1.0,
		LineAA:             AntiAliasingOn,
		ShapeAA:            AntiAliasingOn,
		CircleSegmentCount: 22,
		ArcSegmentCount:    22,
		CurveSegmentCount:  22,
	}
}
