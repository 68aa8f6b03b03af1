//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package lum

// Mmap falls back to the Go heap where anonymous mappings are unavailable.
type Mmap struct{}

// Alloc implements Allocator.
func (Mmap) Alloc(n int) []byte {
	return Heap{}.Alloc(n)
}

// Free implements Allocator.
func (Mmap) Free(mem []byte) {
	Heap{}.Free(mem)
}
