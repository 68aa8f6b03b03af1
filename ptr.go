package lum

import (
	"sync/atomic"
	"unsafe"

	"github.com/pkg/errors"
)

// Destroyer is implemented by payload types holding resources that need
// teardown. Destroy runs exactly once per element, where a destructor
// would: when an Owned is released, when the last Shared is released, when
// a Buffer truncates or releases an element, and when a Manager destroys
// an item.
type Destroyer interface {
	Destroy()
}

// Ptr is a non-owning view of a Block-backed payload of T elements.
type Ptr[T any] struct {
	p *T
}

// IsNull reports whether the pointer addresses nothing.
func (p Ptr[T]) IsNull() bool {
	return p.p == nil
}

// Raw returns the payload address.
func (p Ptr[T]) Raw() *T {
	return p.p
}

// Capacity returns how many T fit in the payload. It is 0 for a null
// pointer and for zero-sized T.
func (p Ptr[T]) Capacity() int {
	size := unsafe.Sizeof(*new(T))
	if p.p == nil || size == 0 {
		return 0
	}
	return p.Block().Size() / int(size)
}

// Slice returns the whole payload as Capacity elements.
func (p Ptr[T]) Slice() []T {
	n := p.Capacity()
	if n == 0 {
		return nil
	}
	return unsafe.Slice(p.p, n)
}

// Block returns the header preceding the payload, or nil.
func (p Ptr[T]) Block() *Block {
	if p.p == nil {
		return nil
	}
	return blockOf(unsafe.Pointer(p.p))
}

// AllocatorOf returns a new reference to the allocator that produced p's
// block, or a null Handle for a null pointer. The caller releases it.
func AllocatorOf[T any](p Ptr[T]) Handle {
	if p.IsNull() {
		return Handle{}
	}
	return p.Block().Allocator()
}

// Owned holds exclusive ownership of a payload. It must be moved, never
// copied: two copies released independently free the block twice.
type Owned[T any] struct {
	noCopy noCopy
	Ptr[T]
}

// Move transfers ownership to the returned value and leaves o null.
func (o *Owned[T]) Move() Owned[T] {
	p := o.Ptr
	o.p = nil
	return Owned[T]{Ptr: p}
}

// Release destroys every element, frees the block and leaves o null.
// Releasing a null Owned does nothing.
func (o *Owned[T]) Release() {
	if o.p == nil {
		return
	}
	destroyAll(o.Slice())
	o.releaseRaw()
}

// releaseRaw frees the block without tearing elements down; used when the
// elements were relocated elsewhere.
func (o *Owned[T]) releaseRaw() {
	if o.p == nil {
		return
	}
	b := o.Block()
	o.p = nil
	b.Free()
}

// Shared holds one counted reference to a payload. Copy it only through
// Clone; Clone and Release are safe from any number of goroutines.
type Shared[T any] struct {
	noCopy noCopy
	Ptr[T]
}

// Share consumes o and returns the first shared reference to its payload.
func Share[T any](o *Owned[T]) Shared[T] {
	p := o.Ptr
	o.p = nil
	acquire(p)
	return Shared[T]{Ptr: p}
}

// Clone returns another reference to the same payload.
func (s *Shared[T]) Clone() Shared[T] {
	acquire(s.Ptr)
	return Shared[T]{Ptr: s.Ptr}
}

// Refs returns the current reference count, or 0 for a null pointer.
func (s *Shared[T]) Refs() int32 {
	if s.p == nil {
		return 0
	}
	return s.Block().Refs()
}

// Release drops this reference and leaves s null. The last release
// destroys every element and frees the block.
func (s *Shared[T]) Release() {
	if s.p == nil {
		return
	}
	elems := s.Slice()
	b := s.Block()
	s.p = nil

	switch n := atomic.AddInt32(&b.refs, -1); {
	case n == 0:
		destroyAll(elems)
		b.Free()
	case n < 0:
		fail(errors.Wrapf(ErrUseAfterRelease, "block at %p released more times than shared", b))
	}
}

func acquire[T any](p Ptr[T]) {
	if p.p != nil {
		atomic.AddInt32(&p.Block().refs, 1)
	}
}

// UnsafeCastOwned reinterprets o's payload as U elements, consuming o. The
// block is kept; U and T must be layout compatible.
func UnsafeCastOwned[U, T any](o *Owned[T]) Owned[U] {
	mustBePlain[U]()
	p := o.p
	o.p = nil
	return Owned[U]{Ptr: Ptr[U]{(*U)(unsafe.Pointer(p))}}
}

// UnsafeCastShared returns a new reference to s's payload viewed as U
// elements. U and T must be layout compatible.
func UnsafeCastShared[U, T any](s *Shared[T]) Shared[U] {
	mustBePlain[U]()
	acquire(s.Ptr)
	return Shared[U]{Ptr: Ptr[U]{(*U)(unsafe.Pointer(s.p))}}
}

// noCopy makes go vet's copylocks check report Owned and Shared values
// copied by assignment or passed by value.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

func destroyAll[T any](elems []T) {
	if _, ok := any((*T)(nil)).(Destroyer); !ok {
		return
	}
	for i := range elems {
		any(&elems[i]).(Destroyer).Destroy()
	}
}

func destroyOne[T any](p *T) {
	if d, ok := any(p).(Destroyer); ok {
		d.Destroy()
	}
}
