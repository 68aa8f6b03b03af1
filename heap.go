package lum

// Heap forwards to the Go heap. Free leaves the memory to the garbage
// collector. Safe for concurrent use.
type Heap struct{}

// Alloc returns n zeroed bytes, or nil if n <= 0.
func (Heap) Alloc(n int) []byte {
	if n <= 0 {
		return nil
	}
	return make([]byte, n)
}

// Free is a no-op.
func (Heap) Free([]byte) {}
