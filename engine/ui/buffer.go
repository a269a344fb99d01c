package ui

// Buffer is a fixed-capacity arena the converter writes vertices or indices
// into. It never grows: an allocation that does not fit fails, the buffer is
// marked overflowed, and Needed keeps counting so callers can report how much
// memory the frame would have taken.
type Buffer struct {
	mem        []byte
	allocated  int
	needed     int
	overflowed bool
}

// NewFixedBuffer allocates a buffer of size bytes.
func NewFixedBuffer(size int) *Buffer {
	return &Buffer{mem: make([]byte, size)}
}

// NewBufferFrom wraps caller-owned memory.
func NewBufferFrom(mem []byte) *Buffer {
	return &Buffer{mem: mem}
}

// Reset discards the contents. Capacity is kept.
func (b *Buffer) Reset() {
	b.allocated = 0
	b.needed = 0
	b.overflowed = false
}

// Alloc reserves size bytes aligned to align and returns them, or nil when
// the buffer is full.
func (b *Buffer) Alloc(size, align int) []byte {
	if align < 1 {
		align = 1
	}
	start := alignUp(b.needed, align)
	b.needed = start + size
	if b.overflowed || b.needed > len(b.mem) {
		b.overflowed = true
		return nil
	}
	b.allocated = b.needed
	out := b.mem[start:b.needed]
	clear(out)
	return out
}

// Bytes returns the written part of the buffer.
func (b *Buffer) Bytes() []byte {
	return b.mem[:b.allocated]
}

func (b *Buffer) Len() int {
	return b.allocated
}

func (b *Buffer) Cap() int {
	return len(b.mem)
}

// Needed is the number of bytes the last frame asked for, including what did
// not fit.
func (b *Buffer) Needed() int {
	return b.needed
}

func (b *Buffer) Overflowed() bool {
	return b.overflowed
}

func alignUp(n, align int) int {
	return (n + align - 1) / align * align
}
