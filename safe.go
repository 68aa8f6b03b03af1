package lum

import (
	"sync"
)

// SafeArena is a mutex-protected Arena, usable as a goroutine-safe Allocator.
type SafeArena struct {
	mu sync.Mutex
	a  *Arena
}

// NewSafeArena creates a goroutine-safe arena with the given chunk size.
// If chunkSize <= 0, DefaultChunkSize is used.
func NewSafeArena(chunkSize int) *SafeArena {
	return &SafeArena{a: NewArena(chunkSize)}
}

// Alloc implements Allocator.
func (s *SafeArena) Alloc(n int) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Alloc(n)
}

// Free implements Allocator.
func (s *SafeArena) Free(mem []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.a.Free(mem)
}

// EnsureCapacity makes sure the current chunk has at least n free bytes.
func (s *SafeArena) EnsureCapacity(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.a.EnsureCapacity(n)
}

// Reset rewinds the arena; see Arena.Reset.
func (s *SafeArena) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.a.Reset()
}

// Release drops the arena's chunks; see Arena.Release.
func (s *SafeArena) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.a.Release()
}

// Metrics returns a snapshot of arena statistics.
func (s *SafeArena) Metrics() ArenaMetrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Metrics()
}

type lockedAllocator struct {
	mu sync.Mutex
	a  Allocator
}

// Synchronized wraps a so that Alloc and Free are serialized by a mutex.
func Synchronized(a Allocator) Allocator {
	return &lockedAllocator{a: a}
}

func (l *lockedAllocator) Alloc(n int) []byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.a.Alloc(n)
}

func (l *lockedAllocator) Free(mem []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.a.Free(mem)
}

// SafeManager is a Manager guarded by a read/write lock. Values are only
// reachable inside callbacks, so no pointer outlives the lock.
type SafeManager[T any] struct {
	mu sync.RWMutex
	m  *Manager[T]
}

// NewSafeManager returns an empty goroutine-safe manager.
func NewSafeManager[T any](h Handle) *SafeManager[T] {
	return &SafeManager[T]{m: NewManager[T](h)}
}

// Create adds an item, constructs it with init (which may be nil) and
// returns its Uid.
func (s *SafeManager[T]) Create(init func(*T)) Uid {
	s.mu.Lock()
	defer s.mu.Unlock()
	uid, p := s.m.Create()
	if init != nil {
		init(p)
	}
	return uid
}

// With runs fn on the value named by uid under the write lock. It reports
// false, without calling fn, if uid is not live.
func (s *SafeManager[T]) With(uid Uid, fn func(*T)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.m.Fetch(uid)
	if ok {
		fn(p)
	}
	return ok
}

// Contains reports whether uid names a live item.
func (s *SafeManager[T]) Contains(uid Uid) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.m.Fetch(uid)
	return ok
}

// Destroy tears down and removes the item named by uid; see Manager.Destroy.
func (s *SafeManager[T]) Destroy(uid Uid) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m.Destroy(uid)
}

// Len returns the number of live items.
func (s *SafeManager[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.m.Len()
}

// Release destroys every item and frees the manager's storage.
func (s *SafeManager[T]) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m.Release()
}
