package lum

// ArenaMetrics contains statistical information about an arena.
type ArenaMetrics struct {
	SizeInUse   int     // Bytes handed out, including alignment padding
	Capacity    int     // Total chunk bytes
	NumChunks   int     // Number of chunks
	ChunkSize   int     // Default chunk size
	Live        int     // Allocations not yet freed
	Utilization float64 // SizeInUse / Capacity (0.0-1.0)
}

// PoolMetrics contains statistical information about a Pool.
type PoolMetrics struct {
	Hits        uint64 // Allocations served from a free list
	Misses      uint64 // Allocations that went to the parent
	PooledBytes int    // Bytes sitting on free lists
}

// TrackingStats contains the counters kept by a Tracking allocator.
type TrackingStats struct {
	Allocs    uint64 `json:"allocs"`
	Frees     uint64 `json:"frees"`
	Live      int    `json:"live"`
	LiveBytes int    `json:"live_bytes"`
	PeakBytes int    `json:"peak_bytes"`
}

// SizeInUse returns the bytes handed out across all chunks.
func (a *Arena) SizeInUse() int {
	sum := 0
	for _, c := range a.chunks {
		sum += int(c.offset)
	}
	return sum
}

// NumChunks returns the number of chunks, 0 after Release.
func (a *Arena) NumChunks() int {
	return len(a.chunks)
}

// Capacity returns the total bytes of all chunks.
func (a *Arena) Capacity() int {
	sum := 0
	for _, c := range a.chunks {
		sum += len(c.buf)
	}
	return sum
}

// Utilization returns SizeInUse / Capacity, or 0 without capacity.
func (a *Arena) Utilization() float64 {
	capacity := a.Capacity()
	if capacity == 0 {
		return 0
	}
	return float64(a.SizeInUse()) / float64(capacity)
}

// ChunkSize returns the default chunk size used by this arena.
func (a *Arena) ChunkSize() int {
	return a.chunkSize
}

// Live returns the number of allocations handed out through Alloc and not
// yet freed.
func (a *Arena) Live() int {
	return a.live
}

// Metrics returns a snapshot of arena statistics.
func (a *Arena) Metrics() ArenaMetrics {
	return ArenaMetrics{
		SizeInUse:   a.SizeInUse(),
		Capacity:    a.Capacity(),
		NumChunks:   a.NumChunks(),
		ChunkSize:   a.ChunkSize(),
		Live:        a.Live(),
		Utilization: a.Utilization(),
	}
}
