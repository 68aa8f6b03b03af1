package lum

import (
	"math"
	"sync/atomic"
	"unsafe"

	"github.com/pkg/errors"
)

// Block is the header written immediately before every payload handed out
// by Reserve. It is plain data so it can live inside raw allocator memory.
type Block struct {
	allocator uint32 // registry id of the producing allocator
	size      uint32 // usable payload bytes
	offset    uint32 // payload - base of the raw allocation
	refs      int32  // Shared holders; always 0 while Owned
	span      uint32 // length of the raw allocation
	magic     uint32
}

const blockMagic uint32 = 0x216d756c

// HeaderSize is the size of the Block header preceding every payload.
const HeaderSize = int(unsafe.Sizeof(Block{}))

// MinAlignment is the alignment every Allocator must guarantee for the
// memory it returns.
const MinAlignment = int(unsafe.Sizeof(uintptr(0)))

// Reserve allocates bytes of payload aligned to alignment from the
// allocator behind h and writes a Block immediately before it. The payload
// is not initialized. The block holds a reference on h until it is freed.
func Reserve(h Handle, bytes, alignment int) *Block {
	return reserve(h, bytes, 1, alignment)
}

// reserve is Reserve with at least room bytes behind the payload, so a
// typed pointer to an empty array still addresses memory it owns.
func reserve(h Handle, bytes, room, alignment int) *Block {
	if h.IsNull() {
		fail(errors.Wrap(ErrUseAfterRelease, "reserve on a null allocator handle"))
	}
	if alignment <= 0 || alignment&(alignment-1) != 0 {
		fail(errors.Wrapf(ErrBadAlignment, "alignment %d is not a power of two", alignment))
	}
	cushion := max(alignment, MinAlignment) - MinAlignment
	if bytes < 0 || uint64(max(bytes, room)) > math.MaxUint32-uint64(cushion+HeaderSize+1) {
		fail(errors.Wrapf(ErrAllocFailed, "invalid payload size %d", bytes))
	}

	n := cushion + HeaderSize + max(bytes, room, 1)
	raw := h.src.alloc.Alloc(n)
	if len(raw) < n {
		fail(errors.Wrapf(ErrAllocFailed, "%d bytes from %T", n, h.src.alloc))
	}

	base := unsafe.Pointer(unsafe.SliceData(raw))
	if uintptr(base)%uintptr(MinAlignment) != 0 {
		fail(errors.Wrapf(ErrBadAlignment, "%T returned memory at %#x", h.src.alloc, uintptr(base)))
	}
	payload := alignForward(uintptr(base)+uintptr(HeaderSize), uintptr(alignment))
	offset := int(payload - uintptr(base))

	b := (*Block)(unsafe.Add(base, offset-HeaderSize))
	*b = Block{
		allocator: h.src.id,
		size:      uint32(bytes),
		offset:    uint32(offset),
		span:      uint32(len(raw)),
		magic:     blockMagic,
	}
	h.src.acquire()
	return b
}

// Payload returns the address of the memory following the header.
func (b *Block) Payload() unsafe.Pointer {
	return unsafe.Add(unsafe.Pointer(b), HeaderSize)
}

// Size returns the usable payload size in bytes.
func (b *Block) Size() int {
	return int(b.size)
}

// Offset returns the distance from the raw allocation to the payload.
func (b *Block) Offset() int {
	return int(b.offset)
}

// Refs returns the current Shared reference count.
func (b *Block) Refs() int32 {
	return atomic.LoadInt32(&b.refs)
}

// Allocator returns a new reference to the allocator that produced the
// block. The caller releases it.
func (b *Block) Allocator() Handle {
	return Handle{src: allocators.lookup(b.allocator)}.Clone()
}

// Free hands the raw allocation back to its allocator. Freeing a block that
// is still referenced is a contract violation.
func (b *Block) Free() {
	if b.magic != blockMagic {
		fail(errors.Wrapf(ErrForeignPointer, "free of block at %p", b))
	}
	if refs := atomic.LoadInt32(&b.refs); refs != 0 {
		fail(errors.Wrapf(ErrBlockReferenced, "block at %p has %d references", b, refs))
	}

	src := allocators.lookup(b.allocator)
	base := unsafe.Add(unsafe.Pointer(b), HeaderSize-int(b.offset))
	mem := unsafe.Slice((*byte)(base), b.span)
	b.magic = 0

	src.alloc.Free(mem)
	src.release()
}

// blockOf steps back from a payload pointer to its header.
func blockOf(p unsafe.Pointer) *Block {
	b := (*Block)(unsafe.Add(p, -HeaderSize))
	if b.magic != blockMagic {
		fail(errors.Wrapf(ErrForeignPointer, "no block header before %p", p))
	}
	return b
}

// alignForward rounds addr up to a multiple of align (a power of two).
func alignForward(addr, align uintptr) uintptr {
	mask := align - 1
	return (addr + mask) &^ mask
}
