package ui

import (
	"iter"

	"github.com/spaghettifunk/cumulus/engine/math"
)

// DrawCommand is one batch of indexed triangles sharing a clip rectangle and
// a texture. ElemCount indices are consumed from the element buffer, in
// order, starting where the previous command stopped.
type DrawCommand struct {
	ClipRect  math.Rect
	ElemCount uint32
	Texture   Handle
}

// DrawList is the output of one Convert call.
type DrawList struct {
	Commands []DrawCommand
	// Frame is the Context frame that produced the list.
	Frame        uint64
	VertexCount  uint32
	ElementCount uint32
	consumed     bool
}

func NewDrawList() *DrawList {
	return &DrawList{}
}

// All yields the commands in submission order. Order matters: later
// commands paint over earlier ones.
func (l *DrawList) All() iter.Seq[DrawCommand] {
	return func(yield func(DrawCommand) bool) {
		for _, cmd := range l.Commands {
			if !yield(cmd) {
				return
			}
		}
	}
}

func (l *DrawList) Len() int {
	return len(l.Commands)
}

func (l *DrawList) Reset() {
	l.Commands = l.Commands[:0]
	l.VertexCount = 0
	l.ElementCount = 0
	l.consumed = false
}

// MarkConsumed records that the list has been drawn.
func (l *DrawList) MarkConsumed() {
	l.consumed = true
}

func (l *DrawList) Consumed() bool {
	return l.consumed
}
