package lum

import (
	"sync"
	"unsafe"

	"github.com/emirpasic/gods/trees/btree"
	"github.com/pkg/errors"
)

const trackingOrder = 32

// Allocation describes one live allocation seen by a Tracking allocator.
type Allocation struct {
	Address uintptr
	Size    int
}

// Tracking wraps a parent allocator and records every live allocation,
// ordered by address. Safe for concurrent use if the parent is.
type Tracking struct {
	mu     sync.Mutex
	parent Allocator
	live   *btree.Tree
	stats  TrackingStats
}

// NewTracking returns a tracking allocator over parent, or over the Go heap
// if parent is nil.
func NewTracking(parent Allocator) *Tracking {
	if parent == nil {
		parent = Heap{}
	}
	return &Tracking{
		parent: parent,
		live:   btree.NewWith(trackingOrder, addressComparator),
	}
}

func addressComparator(a, b interface{}) int {
	x, y := a.(uintptr), b.(uintptr)
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	default:
		return 0
	}
}

// Alloc implements Allocator.
func (t *Tracking) Alloc(n int) []byte {
	mem := t.parent.Alloc(n)
	if mem == nil {
		return nil
	}

	t.mu.Lock()
	t.live.Put(addressOf(mem), len(mem))
	t.stats.Allocs++
	t.stats.Live++
	t.stats.LiveBytes += len(mem)
	t.stats.PeakBytes = max(t.stats.PeakBytes, t.stats.LiveBytes)
	t.mu.Unlock()
	return mem
}

// Free implements Allocator. Freeing memory this allocator did not hand
// out is a contract violation.
func (t *Tracking) Free(mem []byte) {
	if !t.forget(addressOf(mem)) {
		fail(errors.Wrapf(ErrForeignPointer, "tracking free of untracked memory at %#x", addressOf(mem)))
	}
	t.parent.Free(mem)
}

func (t *Tracking) forget(addr uintptr) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	size, found := t.live.Get(addr)
	if !found {
		return false
	}
	t.live.Remove(addr)
	t.stats.Frees++
	t.stats.Live--
	t.stats.LiveBytes -= size.(int)
	return true
}

// Stats returns a snapshot of allocation counters.
func (t *Tracking) Stats() TrackingStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats
}

// Leaks returns the allocations not yet freed, in address order.
func (t *Tracking) Leaks() []Allocation {
	t.mu.Lock()
	defer t.mu.Unlock()
	leaks := make([]Allocation, 0, t.live.Size())
	it := t.live.Iterator()
	for it.Next() {
		leaks = append(leaks, Allocation{Address: it.Key().(uintptr), Size: it.Value().(int)})
	}
	return leaks
}

func addressOf(mem []byte) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(mem)))
}
