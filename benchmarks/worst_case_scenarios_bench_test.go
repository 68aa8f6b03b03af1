package lum_test

import (
	"testing"

	"github.com/pavanmanishd/lum"
)

// BenchmarkWorstCaseScenarios covers patterns where the block header or a
// backend's strategy costs more than it saves
func BenchmarkWorstCaseScenarios(b *testing.B) {
	// every tiny payload carries a full header
	b.Run("TinyPayloads", func(b *testing.B) {
		b.Run("Block_1B", func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				o := lum.Make[byte](lum.Global(), nil)
				o.Release()
			}
		})
		b.Run("Builtin_1B", func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				_ = make([]byte, 1)
			}
		})
	})

	// large alignments pay a cushion on every block
	b.Run("OverAligned", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			lum.Reserve(lum.Global(), 64, 4096).Free()
		}
	})

	// alternating sizes defeat arena chunk packing
	b.Run("ArenaFragmentation", func(b *testing.B) {
		a := lum.NewArena(64 * 1024)
		h := lum.Register(a)
		defer h.Release()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			big := lum.MakeArray[byte](h, 40*1024)
			small := lum.MakeArray[byte](h, 16)
			big.Release()
			small.Release()
			if i%64 == 63 {
				a.Reset()
			}
		}
		b.ReportMetric(a.Utilization(), "utilization")
	})

	// each byte-at-a-time write past capacity on a fresh buffer reallocates
	b.Run("BufferGrowthFromEmpty", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			buf := lum.NewBuffer[byte](lum.Global(), 0)
			for j := 0; j < 4096; j++ {
				buf.Set(j, byte(j))
			}
			buf.Release()
		}
	})

	// requests above the largest class always miss the pool
	b.Run("PoolOversize", func(b *testing.B) {
		p := lum.NewPool(nil)
		h := lum.Register(p)
		defer h.Release()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			o := lum.MakeArray[byte](h, 128*1024)
			o.Release()
		}
	})

	// a manager holding one item per key, all generations bumped
	b.Run("ManagerScatteredFetch", func(b *testing.B) {
		m := lum.NewManager[int64](lum.Global())
		defer m.Release()
		uids := make([]lum.Uid, 0, 4096)
		for i := 0; i < 8192; i++ {
			uid, _ := m.Create()
			if i%2 == 0 {
				m.Destroy(uid)
				continue
			}
			uids = append(uids, uid)
		}
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if _, ok := m.Fetch(uids[(i*7919)%len(uids)]); !ok {
				b.Fatal("live uid lost")
			}
		}
	})
}
