package lum

import (
	"unsafe"

	"github.com/pkg/errors"
)

// Buffer is a growable contiguous sequence of T backed by an Owned
// allocation. Indexing past the end grows it. Not goroutine-safe.
type Buffer[T any] struct {
	data   Owned[T]
	length int
}

// NewBuffer returns a buffer of length zeroed elements allocated through h.
func NewBuffer[T any](h Handle, length int) *Buffer[T] {
	return &Buffer[T]{data: MakeArray[T](h, length), length: length}
}

// Len returns the number of live elements.
func (b *Buffer[T]) Len() int {
	return b.length
}

// Cap returns how many elements fit before the next reallocation.
func (b *Buffer[T]) Cap() int {
	return b.data.Capacity()
}

// Start returns the address of element 0.
func (b *Buffer[T]) Start() uintptr {
	return uintptr(unsafe.Pointer(b.data.Raw()))
}

// End returns the address one past the last live element.
func (b *Buffer[T]) End() uintptr {
	return b.Start() + uintptr(b.length)*unsafe.Sizeof(*new(T))
}

// Slice returns the live elements. It is invalidated by growth.
func (b *Buffer[T]) Slice() []T {
	if b.length == 0 {
		return nil
	}
	return unsafe.Slice(b.data.Raw(), b.length)
}

// At returns element i, growing the buffer to i+1 elements first if
// needed. The pointer is invalidated by growth.
func (b *Buffer[T]) At(i int) *T {
	if i < 0 {
		fail(errors.Wrapf(ErrOutOfRange, "buffer index %d", i))
	}
	size := unsafe.Sizeof(*new(T))
	if i >= b.length {
		if size > 0 && i >= b.data.Capacity() {
			b.realloc(2*i + 1)
		}
		b.length = i + 1
	}
	return (*T)(unsafe.Add(unsafe.Pointer(b.data.Raw()), uintptr(i)*size))
}

// Get returns a copy of element i, growing like At.
func (b *Buffer[T]) Get(i int) T {
	return *b.At(i)
}

// Set stores v at i, growing like At.
func (b *Buffer[T]) Set(i int, v T) {
	*b.At(i) = v
}

// ForEach applies fn to every element in [lo, hi).
func (b *Buffer[T]) ForEach(lo, hi int, fn func(*T)) {
	if lo < 0 || hi > b.length {
		fail(errors.Wrapf(ErrOutOfRange, "range [%d, %d) of buffer with length %d", lo, hi, b.length))
	}
	elems := b.Slice()
	for i := lo; i < hi; i++ {
		fn(&elems[i])
	}
}

// Remove drops the last count elements. They are torn down and zeroed
// immediately; the memory stays with the buffer.
func (b *Buffer[T]) Remove(count int) {
	if count < 0 || count > b.length {
		fail(errors.Wrapf(ErrOutOfRange, "remove %d from buffer with length %d", count, b.length))
	}
	tail := b.Slice()[b.length-count:]
	destroyAll(tail)
	clear(tail)
	b.length -= count
}

// Release tears down the live elements and frees the backing block.
func (b *Buffer[T]) Release() {
	destroyAll(b.Slice())
	b.data.releaseRaw()
	b.length = 0
}

// realloc moves the live elements into a fresh block of at least capacity
// elements from the same allocator. Elements are moved, not copied: the
// old block is freed without running Destroy.
func (b *Buffer[T]) realloc(capacity int) {
	h := AllocatorOf(b.data.Ptr)
	defer h.Release()

	old := b.data.Move()
	b.data = MakeArray[T](h, max(capacity, b.length))
	if b.length > 0 {
		copy(b.data.Slice(), unsafe.Slice(old.Raw(), b.length))
	}
	old.releaseRaw()
}
