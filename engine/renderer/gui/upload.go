package gui

import (
	"fmt"

	"github.com/spaghettifunk/cumulus/engine/gpu"
)

// RenderUpload converts the frame and copies its geometry to the GPU. It
// must be recorded on cmd before the render pass RenderDraw runs in.
//
// An empty frame records nothing. Failures are logged, leave nothing to
// draw, and wrap ErrFrameSkipped.
func (b *Backend) RenderUpload(cmd gpu.CommandBuffer) error {
	b.uploaded = false
	if b.shutdown {
		return nil
	}

	vertexBytes, indexBytes, err := b.convertFrame()
	if err != nil {
		return err
	}
	if vertexBytes == 0 || indexBytes == 0 {
		return nil
	}

	vb, err := b.buffers.ensureCapacity(roleVertex, vertexBytes)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFrameSkipped, err)
	}
	ib, err := b.buffers.ensureCapacity(roleIndex, indexBytes)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFrameSkipped, err)
	}

	if err := b.upload(cmd, vb, ib, vertexBytes, indexBytes); err != nil {
		b.logger.Error("failed to upload ui geometry", "err", err)
		return fmt.Errorf("%w: %w", ErrFrameSkipped, err)
	}
	b.uploaded = true
	return nil
}

// upload stages vertices at offset 0 and indices right after them in one
// transfer buffer, then copies both halves in a single copy pass.
func (b *Backend) upload(cmd gpu.CommandBuffer, vb, ib gpu.Buffer, vertexBytes, indexBytes uint32) error {
	transfer, err := b.device.CreateTransferBuffer(gpu.TransferBufferCreateInfo{
		Usage: gpu.TransferBufferUsageUpload,
		Size:  vertexBytes + indexBytes,
	})
	if err != nil {
		return fmt.Errorf("failed to create transfer buffer: %w", err)
	}
	defer b.device.ReleaseTransferBuffer(transfer)

	mem, err := b.device.MapTransferBuffer(transfer, true)
	if err != nil {
		return fmt.Errorf("failed to map transfer buffer: %w", err)
	}
	copy(mem[:vertexBytes], b.vertices.Bytes())
	copy(mem[vertexBytes:vertexBytes+indexBytes], b.elements.Bytes())
	b.device.UnmapTransferBuffer(transfer)

	pass, err := cmd.BeginCopyPass()
	if err != nil {
		return fmt.Errorf("failed to begin copy pass: %w", err)
	}
	pass.UploadToBuffer(
		gpu.TransferBufferLocation{TransferBuffer: transfer, Offset: 0},
		gpu.BufferRegion{Buffer: vb, Offset: 0, Size: vertexBytes},
		true,
	)
	pass.UploadToBuffer(
		gpu.TransferBufferLocation{TransferBuffer: transfer, Offset: vertexBytes},
		gpu.BufferRegion{Buffer: ib, Offset: 0, Size: indexBytes},
		true,
	)
	pass.End()
	return nil
}
