package lum

import (
	"math"
	"unsafe"

	"github.com/pkg/errors"
)

// Make reserves room for one T from the allocator behind h, zeroes it and
// runs init on it in place. init may be nil.
func Make[T any](h Handle, init func(*T)) Owned[T] {
	mustBePlain[T]()
	var zero T
	b := Reserve(h, int(unsafe.Sizeof(zero)), int(unsafe.Alignof(zero)))
	p := (*T)(b.Payload())
	*p = zero
	if init != nil {
		init(p)
	}
	return Owned[T]{Ptr: Ptr[T]{p}}
}

// MakeArray reserves n zeroed elements of T from the allocator behind h.
// A zero n still reserves a block, with capacity 0.
func MakeArray[T any](h Handle, n int) Owned[T] {
	mustBePlain[T]()
	var zero T
	size := int(unsafe.Sizeof(zero))
	if n < 0 || (size > 0 && uint64(n) > math.MaxUint32/uint64(size)) {
		fail(errors.Wrapf(ErrOutOfRange, "array of %d elements of %d bytes", n, size))
	}
	// an empty array still gets room for one element behind its *T
	b := reserve(h, n*size, size, int(unsafe.Alignof(zero)))
	p := (*T)(b.Payload())
	if n > 0 {
		clear(unsafe.Slice(p, n))
	}
	return Owned[T]{Ptr: Ptr[T]{p}}
}
