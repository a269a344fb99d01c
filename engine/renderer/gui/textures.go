package gui

import (
	"fmt"

	"github.com/spaghettifunk/cumulus/engine/gpu"
	"github.com/spaghettifunk/cumulus/engine/ui"
)

// textureRegistry hands out ui.Handles for GPU textures. Handles are slot
// index plus one so the zero value stays ui.NoHandle; freed slots are reused.
type textureRegistry struct {
	slots []gpu.Texture
}

func newTextureRegistry() *textureRegistry {
	return &textureRegistry{slots: make([]gpu.Texture, 0, 16)}
}

func (r *textureRegistry) register(texture gpu.Texture) ui.Handle {
	for i, t := range r.slots {
		// Existing free spot. Take it.
		if t == nil {
			r.slots[i] = texture
			return ui.Handle(i + 1)
		}
	}
	r.slots = append(r.slots, texture)
	return ui.Handle(len(r.slots))
}

func (r *textureRegistry) unregister(h ui.Handle) error {
	if !h.Valid() || int(h) > len(r.slots) {
		return fmt.Errorf("texture handle %d out of range (max=%d)", h, len(r.slots))
	}
	r.slots[h-1] = nil
	return nil
}

func (r *textureRegistry) lookup(h ui.Handle) (gpu.Texture, bool) {
	if !h.Valid() || int(h) > len(r.slots) {
		return nil, false
	}
	t := r.slots[h-1]
	return t, t != nil
}

// RegisterTexture makes a caller-owned texture drawable by the toolkit, for
// example with Context.Image. The caller keeps ownership and must unregister
// it before releasing it.
func (b *Backend) RegisterTexture(texture gpu.Texture) ui.Handle {
	return b.textures.register(texture)
}

func (b *Backend) UnregisterTexture(h ui.Handle) error {
	if h == b.fontHandle {
		return fmt.Errorf("gui: the font atlas cannot be unregistered")
	}
	return b.textures.unregister(h)
}

// texture resolves the texture a draw command samples. NoHandle and handles
// that are no longer registered fall back to the font atlas.
func (b *Backend) texture(h ui.Handle) gpu.Texture {
	if t, ok := b.textures.lookup(h); ok {
		return t
	}
	return b.fontTexture
}
