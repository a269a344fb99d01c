package gui

import (
	"errors"
	"fmt"

	"github.com/spaghettifunk/cumulus/engine/ui"
)

// convertFrame tessellates the context's recorded widgets into the staging
// arenas and returns how many vertex and index bytes were written. Zero in
// either means there is nothing to draw.
//
// Conversion clears the context, so the draw dispatcher never has to.
func (b *Backend) convertFrame() (vertexBytes, indexBytes uint32, err error) {
	b.vertices.Reset()
	b.elements.Reset()

	if err := b.ctx.Convert(b.list, b.vertices, b.elements, &b.convert); err != nil {
		if errors.Is(err, ui.ErrBufferOverflow) || errors.Is(err, ui.ErrIndexOverflow) {
			b.logger.Warn("ui geometry does not fit the staging buffers",
				"vertex_needed", b.vertices.Needed(), "vertex_available", b.vertices.Cap(),
				"index_needed", b.elements.Needed(), "index_available", b.elements.Cap(),
				"err", err)
		} else {
			b.logger.Error("failed to convert ui frame", "err", err)
		}
		return 0, 0, fmt.Errorf("%w: %w", ErrFrameSkipped, err)
	}
	return uint32(b.vertices.Len()), uint32(b.elements.Len()), nil
}
