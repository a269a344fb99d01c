package gui

import (
	"fmt"

	"github.com/spaghettifunk/cumulus/engine/gpu"
)

// shaderFormats in order of preference, with the entry point each format's
// compiler emits.
var shaderFormats = []struct {
	format     gpu.ShaderFormat
	entrypoint string
}{
	{gpu.ShaderFormatSPIRV, "main"},
	{gpu.ShaderFormatMSL, "main0"},
	{gpu.ShaderFormatDXIL, "main"},
}

func (b *Backend) createDeviceObjects() error {
	vs, fs, pipeline, err := b.buildPipeline()
	if err != nil {
		return err
	}
	b.vertexShader, b.fragmentShader, b.pipeline = vs, fs, pipeline

	addressMode := gpu.SamplerAddressModeRepeat
	if b.cfg.ClampSampler {
		addressMode = gpu.SamplerAddressModeClampToEdge
	}
	sampler, err := b.device.CreateSampler(gpu.SamplerCreateInfo{
		MinFilter:    gpu.FilterLinear,
		MagFilter:    gpu.FilterLinear,
		MipmapMode:   gpu.SamplerMipmapModeLinear,
		AddressModeU: addressMode,
		AddressModeV: addressMode,
		AddressModeW: addressMode,
	})
	if err != nil {
		return fmt.Errorf("failed to create sampler: %w", err)
	}
	b.sampler = sampler
	return nil
}

// buildPipeline loads both shader stages and links them into a pipeline.
// Nothing is left allocated when it fails.
func (b *Backend) buildPipeline() (vs, fs gpu.Shader, pipeline gpu.GraphicsPipeline, err error) {
	vs, err = b.loadShader(gpu.ShaderStageVertex, 0, 1)
	if err != nil {
		return nil, nil, nil, err
	}
	fs, err = b.loadShader(gpu.ShaderStageFragment, 1, 0)
	if err != nil {
		b.device.ReleaseShader(vs)
		return nil, nil, nil, err
	}

	pipeline, err = b.device.CreateGraphicsPipeline(gpu.GraphicsPipelineCreateInfo{
		VertexShader:   vs,
		FragmentShader: fs,
		VertexBuffers: []gpu.VertexBufferDescription{{
			Slot:      0,
			Pitch:     vertexSize,
			InputRate: gpu.VertexInputRateVertex,
		}},
		Attributes: []gpu.VertexAttribute{
			{Location: 0, BufferSlot: 0, Format: gpu.VertexElementFormatFloat2, Offset: uint32(b.convert.VertexLayout[0].Offset)},
			{Location: 1, BufferSlot: 0, Format: gpu.VertexElementFormatFloat2, Offset: uint32(b.convert.VertexLayout[1].Offset)},
			{Location: 2, BufferSlot: 0, Format: gpu.VertexElementFormatUByte4Norm, Offset: uint32(b.convert.VertexLayout[2].Offset)},
		},
		PrimitiveType: gpu.PrimitiveTypeTriangleList,
		ColorTargets: []gpu.ColorTargetDescription{{
			Format: b.colorFormat,
			BlendState: gpu.ColorTargetBlendState{
				Enable:              true,
				SrcColorBlendFactor: gpu.BlendFactorSrcAlpha,
				DstColorBlendFactor: gpu.BlendFactorOneMinusSrcAlpha,
				ColorBlendOp:        gpu.BlendOpAdd,
				SrcAlphaBlendFactor: gpu.BlendFactorOne,
				DstAlphaBlendFactor: gpu.BlendFactorOneMinusSrcAlpha,
				AlphaBlendOp:        gpu.BlendOpAdd,
			},
		}},
	})
	if err != nil {
		b.device.ReleaseShader(vs)
		b.device.ReleaseShader(fs)
		return nil, nil, nil, fmt.Errorf("failed to create ui pipeline: %w", err)
	}
	return vs, fs, pipeline, nil
}

func (b *Backend) loadShader(stage gpu.ShaderStage, samplers, uniforms uint32) (gpu.Shader, error) {
	supported := b.device.ShaderFormats()
	for _, sf := range shaderFormats {
		if !supported.Has(sf.format) {
			continue
		}
		code, err := b.cfg.Shaders.Shader(stage, sf.format)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s shader: %w", stage, err)
		}
		shader, err := b.device.CreateShader(gpu.ShaderCreateInfo{
			Code:              code,
			Entrypoint:        sf.entrypoint,
			Format:            sf.format,
			Stage:             stage,
			NumSamplers:       samplers,
			NumUniformBuffers: uniforms,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create %s shader: %w", stage, err)
		}
		return shader, nil
	}
	return nil, fmt.Errorf("%w: device accepts none of the shipped shader formats", gpu.ErrUnsupportedFormat)
}

// ReloadPipeline rebuilds the shaders and pipeline from the shader source.
// The running pipeline is kept when anything fails.
func (b *Backend) ReloadPipeline() error {
	if b.shutdown {
		return fmt.Errorf("gui: backend is shut down")
	}
	vs, fs, pipeline, err := b.buildPipeline()
	if err != nil {
		b.logger.Warn("shader reload failed, keeping the current pipeline", "err", err)
		return err
	}
	b.releasePipeline()
	b.vertexShader, b.fragmentShader, b.pipeline = vs, fs, pipeline
	b.logger.Info("ui pipeline reloaded")
	return nil
}

func (b *Backend) releasePipeline() {
	if b.pipeline != nil {
		b.device.ReleaseGraphicsPipeline(b.pipeline)
		b.pipeline = nil
	}
	if b.vertexShader != nil {
		b.device.ReleaseShader(b.vertexShader)
		b.vertexShader = nil
	}
	if b.fragmentShader != nil {
		b.device.ReleaseShader(b.fragmentShader)
		b.fragmentShader = nil
	}
}
