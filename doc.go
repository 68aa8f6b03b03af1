// Package lum is a manual memory-management layer: a pluggable byte
// allocator, exclusive and reference-counted ownership handles built on it,
// a growable contiguous buffer, and a generational handle table for naming
// pooled objects by 64-bit identifiers instead of addresses.
//
// # Blocks
//
// Every allocation made through Reserve is preceded in memory by a Block
// header recording the allocator that produced it, the usable payload size,
// the distance back to the start of the raw allocation and a reference
// count. Owned and Shared handles carry only the payload pointer; capacity,
// the owning allocator and the reference count are recovered by stepping
// back HeaderSize bytes.
//
// Payload memory is raw bytes the garbage collector does not scan, so
// payload types must be plain data: no pointers, strings, slices, maps,
// channels, funcs or interfaces. Make, MakeArray, NewBuffer and NewManager
// check this once per type.
//
// # Basic Usage
//
//	h := lum.Global()
//
//	owned := lum.Make(h, func(p *Point) { p.X, p.Y = 1, 2 })
//	shared := lum.Share(&owned) // owned is now null
//	other := shared.Clone()
//	shared.Release()
//	other.Release() // last reference: the block is freed here
//
//	buf := lum.NewBuffer[int](h, 0)
//	defer buf.Release()
//	buf.Set(41, 7) // grows to 42 elements
//
//	m := lum.NewManager[Point](h)
//	defer m.Release()
//	uid, p := m.Create()
//	p.X = 3
//	if q, ok := m.Fetch(uid); ok {
//		_ = q.X
//	}
//	m.Destroy(uid)
//
// # Allocators
//
// Global returns a handle to the process-wide pass-through allocator over
// the Go heap. Other allocators (Arena, SafeArena, Pool, Tracking, Mmap or
// any Allocator implementation) are registered with Register and passed
// around as Handle values.
//
// # Thread Safety
//
// Clone and Release on Shared handles are atomic and may race freely.
// Buffer and Manager are not synchronized; SafeManager wraps a Manager in
// a lock. Heap, Pool, Tracking, SafeArena, Mmap and Synchronized
// allocators are safe for concurrent use; Arena is not.
//
// # Contract Violations
//
// Out-of-range access, stale Uid removal, freeing a referenced block and
// allocation failure are programming errors. They are logged and handed to
// the fail hook, which panics by default (see SetFailHook). Fetch on a
// stale Uid is not an error: it reports ok == false.
package lum
