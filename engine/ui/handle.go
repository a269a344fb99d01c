package ui

// Handle is an opaque reference to a texture owned by the renderer. The
// toolkit never looks inside it.
type Handle uint64

// NoHandle means "no texture": the renderer substitutes its font atlas.
const NoHandle Handle = 0

func (h Handle) Valid() bool {
	return h != NoHandle
}
