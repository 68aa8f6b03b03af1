package lum

import (
	"unsafe"

	"github.com/pkg/errors"
)

// DefaultChunkSize is the default chunk size for new arenas (64 KiB).
const DefaultChunkSize = 1 << 16

// chunk is one slab of arena memory.
type chunk struct {
	buf    []byte
	offset uintptr // next free byte in buf
}

// Arena is a chunked bump allocator. Free only counts the allocation as
// gone; memory comes back in bulk through Reset. Not goroutine-safe; use
// SafeArena for concurrent access.
type Arena struct {
	chunks    []chunk
	chunkSize int
	cur       int // index of the chunk being filled
	live      int
}

// NewArena creates an Arena with the given chunk size. If chunkSize <= 0,
// DefaultChunkSize is used.
func NewArena(chunkSize int) *Arena {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	a := &Arena{chunkSize: chunkSize}
	a.grow(chunkSize)
	return a
}

// Alloc implements Allocator.
func (a *Arena) Alloc(n int) []byte {
	b := a.AllocBytes(n)
	if b != nil {
		a.live++
	}
	return b
}

// Free implements Allocator.
func (a *Arena) Free(mem []byte) {
	a.panicIfReleased()
	if a.live == 0 {
		fail(errors.Wrapf(ErrForeignPointer, "arena free of %d bytes with no live allocations", len(mem)))
	}
	a.live--
}

// AllocBytes returns n bytes aligned to MinAlignment from the current chunk,
// growing the arena if it does not fit. The bytes are not counted as a live
// allocation and may hold stale data after Reset. Returns nil if n <= 0.
func (a *Arena) AllocBytes(n int) []byte {
	if n <= 0 {
		return nil
	}
	a.panicIfReleased()

	c := &a.chunks[a.cur]
	off := alignPtr(c.offset)
	if off+uintptr(n) > uintptr(len(c.buf)) {
		c = a.advance(n)
		off = 0
	}
	c.offset = off + uintptr(n)
	return unsafe.Slice(&c.buf[off], n)
}

// advance moves to the next chunk that can hold n bytes, reusing chunks
// rewound by Reset before growing.
func (a *Arena) advance(n int) *chunk {
	for a.cur+1 < len(a.chunks) {
		a.cur++
		if c := &a.chunks[a.cur]; c.offset == 0 && n <= len(c.buf) {
			return c
		}
	}
	a.grow(n)
	return &a.chunks[a.cur]
}

// EnsureCapacity makes sure the current chunk has at least n free bytes.
func (a *Arena) EnsureCapacity(n int) {
	a.panicIfReleased()
	c := &a.chunks[a.cur]
	if alignPtr(c.offset)+uintptr(n) > uintptr(len(c.buf)) {
		a.advance(n)
	}
}

// Reset rewinds every chunk for reuse. Resetting while allocations are
// live is a contract violation.
func (a *Arena) Reset() {
	a.panicIfReleased()
	if a.live > 0 {
		fail(errors.Wrapf(ErrArenaLive, "reset with %d live allocations", a.live))
	}
	for i := range a.chunks {
		a.chunks[i].offset = 0
	}
	a.cur = 0
}

// Release drops all chunks; the arena is unusable afterwards. Releasing
// while allocations are live is a contract violation.
func (a *Arena) Release() {
	if a.live > 0 {
		fail(errors.Wrapf(ErrArenaLive, "release with %d live allocations", a.live))
	}
	a.chunks = nil
	a.cur = 0
}

// grow appends a chunk of at least min bytes and makes it current.
func (a *Arena) grow(min int) {
	size := max(a.chunkSize, min)
	a.chunks = append(a.chunks, chunk{buf: make([]byte, size)})
	a.cur = len(a.chunks) - 1
}

func (a *Arena) panicIfReleased() {
	if a.chunks == nil {
		fail(errors.Wrap(ErrUseAfterRelease, "arena used after Release"))
	}
}

// alignPtr rounds off up to MinAlignment.
func alignPtr(off uintptr) uintptr {
	return alignForward(off, uintptr(MinAlignment))
}
