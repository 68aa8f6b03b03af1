package lum

import (
	"sync"
	"sync/atomic"

	"github.com/michaelquigley/pfxlog"
	"github.com/pkg/errors"
)

// Allocator is the byte-allocation capability behind every Block.
// Alloc returns nil on failure and must return memory aligned to at least
// MinAlignment. Free receives exactly the slice Alloc returned.
type Allocator interface {
	Alloc(bytes int) []byte
	Free(mem []byte)
}

const (
	nullID   uint32 = 0
	globalID uint32 = 1
)

// source is one registered allocator. refs counts the Handle holders plus
// one per live Block.
type source struct {
	id    uint32
	alloc Allocator
	refs  atomic.Int32
}

func (s *source) acquire() {
	s.refs.Add(1)
}

func (s *source) release() {
	switch n := s.refs.Add(-1); {
	case n == 0:
		allocators.remove(s)
	case n < 0:
		fail(errors.Wrapf(ErrUseAfterRelease, "allocator [%d] released too many times", s.id))
	}
}

type registry struct {
	mu      sync.RWMutex
	sources []*source
	free    []uint32
	global  *source
}

// allocators is built during package initialization, before anything can
// reach Reserve. The global entry starts with a reference nobody owns, so
// it never drops to zero.
var allocators = bootstrap()

func bootstrap() *registry {
	g := &source{id: globalID, alloc: Heap{}}
	g.refs.Store(1)
	r := &registry{sources: make([]*source, globalID+1), global: g}
	r.sources[globalID] = g
	return r
}

func (r *registry) add(a Allocator) *source {
	s := &source{alloc: a}
	s.refs.Store(1)

	r.mu.Lock()
	if n := len(r.free); n > 0 {
		s.id = r.free[n-1]
		r.free = r.free[:n-1]
		r.sources[s.id] = s
	} else {
		s.id = uint32(len(r.sources))
		r.sources = append(r.sources, s)
	}
	r.mu.Unlock()
	return s
}

func (r *registry) remove(s *source) {
	r.mu.Lock()
	r.sources[s.id] = nil
	r.free = append(r.free, s.id)
	r.mu.Unlock()
	pfxlog.Logger().Debugf("unregistered allocator [%d] (%T)", s.id, s.alloc)
}

func (r *registry) lookup(id uint32) *source {
	r.mu.RLock()
	var s *source
	if id != nullID && int(id) < len(r.sources) {
		s = r.sources[id]
	}
	r.mu.RUnlock()
	if s == nil {
		fail(errors.Wrapf(ErrForeignPointer, "no allocator registered as [%d]", id))
	}
	return s
}

// Handle is a counted reference to a registered Allocator. The zero Handle
// is null.
type Handle struct {
	src *source
}

// Register adds a to the allocator registry and returns the first
// reference to it. The registration ends when the last Handle and the last
// Block produced through it are released.
func Register(a Allocator) Handle {
	if a == nil {
		fail(errors.Wrap(ErrAllocFailed, "register of a nil allocator"))
	}
	s := allocators.add(a)
	pfxlog.Logger().Debugf("registered allocator [%d] (%T)", s.id, a)
	return Handle{src: s}
}

// Global returns the process-wide allocator, a pass-through to the Go heap.
// Its registration is pinned: Clone and Release on it are no-ops.
func Global() Handle {
	return Handle{src: allocators.global}
}

// IsNull reports whether h refers to no allocator.
func (h Handle) IsNull() bool {
	return h.src == nil
}

// Allocator returns the registered allocator, or nil for a null handle.
func (h Handle) Allocator() Allocator {
	if h.src == nil {
		return nil
	}
	return h.src.alloc
}

// Refs returns the number of outstanding references, blocks included.
func (h Handle) Refs() int32 {
	if h.src == nil {
		return 0
	}
	return h.src.refs.Load()
}

// Clone returns another reference to the same allocator.
func (h Handle) Clone() Handle {
	if h.src != nil && h.src.id != globalID {
		h.src.acquire()
	}
	return h
}

// Release drops this reference.
func (h Handle) Release() {
	if h.src == nil || h.src.id == globalID {
		return
	}
	h.src.release()
}
