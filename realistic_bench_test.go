package lum

import (
	"runtime"
	"testing"
)

type record struct {
	ID   int64
	Data [56]byte
}

// BenchmarkRealisticUsage compares the allocator variants on patterns where
// block ownership matters.
func BenchmarkRealisticUsage(b *testing.B) {
	b.Run("ManySmallBlocks/Arena", func(b *testing.B) {
		a := NewArena(64 * 1024)
		h := Register(a)
		defer h.Release()
		owners := make([]Owned[record], 100)
		b.ResetTimer()

		for i := 0; i < b.N; i++ {
			for j := range owners {
				owners[j] = Make(h, func(r *record) { r.ID = int64(j) })
			}
			for j := range owners {
				owners[j].Release()
			}
			a.Reset()
		}
	})

	b.Run("ManySmallBlocks/Pool", func(b *testing.B) {
		p := NewPool(nil)
		h := Register(p)
		defer h.Release()
		defer p.Drain()
		owners := make([]Owned[record], 100)
		b.ResetTimer()

		for i := 0; i < b.N; i++ {
			for j := range owners {
				owners[j] = Make(h, func(r *record) { r.ID = int64(j) })
			}
			for j := range owners {
				owners[j].Release()
			}
		}
	})

	b.Run("ManySmallBlocks/Builtin", func(b *testing.B) {
		records := make([]*record, 100)
		b.ResetTimer()

		for i := 0; i < b.N; i++ {
			for j := range records {
				records[j] = &record{ID: int64(j)}
			}
			if i%10 == 0 {
				runtime.GC()
			}
		}
	})

	b.Run("BufferGrowth/Heap", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			buf := NewBuffer[int64](Global(), 0)
			for j := 0; j < 1000; j++ {
				buf.Set(j, int64(j))
			}
			buf.Release()
		}
	})

	b.Run("BufferGrowth/Pool", func(b *testing.B) {
		p := NewPool(nil)
		h := Register(p)
		defer h.Release()
		defer p.Drain()
		b.ResetTimer()

		for i := 0; i < b.N; i++ {
			buf := NewBuffer[int64](h, 0)
			for j := 0; j < 1000; j++ {
				buf.Set(j, int64(j))
			}
			buf.Release()
		}
	})

	b.Run("ManagerChurn", func(b *testing.B) {
		m := NewManager[record](Global())
		defer m.Release()
		ring := make([]Uid, 256)
		for j := range ring {
			ring[j], _ = m.Create()
		}
		b.ResetTimer()

		for i := 0; i < b.N; i++ {
			slot := i % len(ring)
			m.Destroy(ring[slot])
			var r *record
			ring[slot], r = m.Create()
			r.ID = int64(i)
		}
	})

	b.Run("SharedClone", func(b *testing.B) {
		o := Make[record](Global(), nil)
		s := Share(&o)
		defer s.Release()
		b.ResetTimer()

		for i := 0; i < b.N; i++ {
			c := s.Clone()
			c.Release()
		}
	})
}
