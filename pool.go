package lum

import (
	"math/bits"
	"sync"
	"unsafe"
)

const (
	minPoolClass = 5  // 32 B
	maxPoolClass = 16 // 64 KiB
)

// Pool keeps freed memory on power-of-two size-class free lists and hands
// it out again. Requests above 64 KiB go straight to the parent. Pooled
// memory is not zeroed. Safe for concurrent use if the parent is.
type Pool struct {
	mu      sync.Mutex
	parent  Allocator
	classes [maxPoolClass - minPoolClass + 1][][]byte
	hits    uint64
	misses  uint64
	pooled  int
}

// NewPool returns a pool drawing fresh memory from parent, or from the Go
// heap if parent is nil.
func NewPool(parent Allocator) *Pool {
	if parent == nil {
		parent = Heap{}
	}
	return &Pool{parent: parent}
}

// classOf returns the power-of-two class that holds n bytes.
func classOf(n int) int {
	return max(bits.Len(uint(n-1)), minPoolClass)
}

// Alloc implements Allocator.
func (p *Pool) Alloc(n int) []byte {
	if n <= 0 {
		return nil
	}
	c := classOf(n)
	if c > maxPoolClass {
		return p.parent.Alloc(n)
	}

	p.mu.Lock()
	list := &p.classes[c-minPoolClass]
	if k := len(*list); k > 0 {
		mem := (*list)[k-1]
		(*list)[k-1] = nil
		*list = (*list)[:k-1]
		p.hits++
		p.pooled -= len(mem)
		p.mu.Unlock()
		return mem[:n]
	}
	p.misses++
	p.mu.Unlock()

	mem := p.parent.Alloc(1 << c)
	if mem == nil {
		return nil
	}
	return mem[:n]
}

// Free implements Allocator. The memory goes back on its class list.
func (p *Pool) Free(mem []byte) {
	c := classOf(len(mem))
	if c > maxPoolClass {
		p.parent.Free(mem)
		return
	}
	full := unsafe.Slice(unsafe.SliceData(mem), 1<<c)

	p.mu.Lock()
	p.classes[c-minPoolClass] = append(p.classes[c-minPoolClass], full)
	p.pooled += len(full)
	p.mu.Unlock()
}

// Drain returns every pooled slab to the parent.
func (p *Pool) Drain() {
	p.mu.Lock()
	var slabs [][]byte
	for i := range p.classes {
		slabs = append(slabs, p.classes[i]...)
		p.classes[i] = nil
	}
	p.pooled = 0
	p.mu.Unlock()

	for _, mem := range slabs {
		p.parent.Free(mem)
	}
}

// Metrics returns a snapshot of pool statistics.
func (p *Pool) Metrics() PoolMetrics {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PoolMetrics{Hits: p.hits, Misses: p.misses, PooledBytes: p.pooled}
}
