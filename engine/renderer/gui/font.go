package gui

import (
	"fmt"

	"github.com/spaghettifunk/cumulus/engine/gpu"
	"github.com/spaghettifunk/cumulus/engine/ui"
)

// FontStashBegin returns an empty atlas to add fonts to. FontStashEnd bakes
// and uploads it.
func (b *Backend) FontStashBegin() *ui.FontAtlas {
	b.atlas = ui.NewFontAtlas()
	b.atlas.Begin()
	return b.atlas
}

// FontStashEnd bakes the atlas, uploads it to a texture that lives until
// Shutdown, and makes the atlas' default font the context's font.
func (b *Backend) FontStashEnd() error {
	if b.atlas == nil {
		return fmt.Errorf("gui: FontStashEnd without FontStashBegin")
	}
	if b.fontTexture != nil {
		return fmt.Errorf("gui: font atlas already uploaded")
	}
	img, err := b.atlas.Bake()
	if err != nil {
		return fmt.Errorf("failed to bake font atlas: %w", err)
	}
	width, height := uint32(img.Bounds().Dx()), uint32(img.Bounds().Dy())

	texture, err := b.device.CreateTexture(gpu.TextureCreateInfo{
		Format: gpu.TextureFormatR8G8B8A8Unorm,
		Usage:  gpu.TextureUsageSampler,
		Width:  width,
		Height: height,
		Name:   "ui font atlas",
	})
	if err != nil {
		b.logger.Error("failed to create font atlas texture", "err", err)
		return fmt.Errorf("failed to create font atlas texture: %w", err)
	}
	if err := b.uploadTexture(texture, img.Pix, width, height); err != nil {
		b.device.ReleaseTexture(texture)
		b.logger.Error("failed to upload font atlas", "err", err)
		return err
	}

	handle := b.textures.register(texture)
	null, err := b.atlas.End(handle)
	if err != nil {
		b.textures.unregister(handle)
		b.device.ReleaseTexture(texture)
		return err
	}
	b.fontTexture = texture
	b.fontHandle = handle
	b.convert.NullTexture = null
	b.ctx.SetFont(b.atlas.DefaultFont())
	b.logger.Debug("font atlas uploaded", "width", width, "height", height, "fonts", len(b.atlas.Fonts()))
	return nil
}

// uploadTexture copies tightly packed RGBA8 pixels into texture with its own
// command buffer.
func (b *Backend) uploadTexture(texture gpu.Texture, pixels []byte, width, height uint32) error {
	size := width * height * 4
	transfer, err := b.device.CreateTransferBuffer(gpu.TransferBufferCreateInfo{
		Usage: gpu.TransferBufferUsageUpload,
		Size:  size,
	})
	if err != nil {
		return fmt.Errorf("failed to create transfer buffer: %w", err)
	}
	defer b.device.ReleaseTransferBuffer(transfer)

	mem, err := b.device.MapTransferBuffer(transfer, false)
	if err != nil {
		return fmt.Errorf("failed to map transfer buffer: %w", err)
	}
	copy(mem[:size], pixels)
	b.device.UnmapTransferBuffer(transfer)

	cmd, err := b.device.AcquireCommandBuffer()
	if err != nil {
		return fmt.Errorf("failed to acquire command buffer: %w", err)
	}
	pass, err := cmd.BeginCopyPass()
	if err != nil {
		return fmt.Errorf("failed to begin copy pass: %w", err)
	}
	pass.UploadToTexture(
		gpu.TextureTransferInfo{TransferBuffer: transfer, Offset: 0, PixelsPerRow: width, RowsPerLayer: height},
		gpu.TextureRegion{Texture: texture, W: width, H: height},
		false,
	)
	pass.End()
	if err := cmd.Submit(); err != nil {
		return fmt.Errorf("failed to submit font atlas upload: %w", err)
	}
	return nil
}
