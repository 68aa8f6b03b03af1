package lum

import (
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestNewSafeArena(t *testing.T) {
	s := NewSafeArena(2048)
	if s.a == nil {
		t.Fatal("NewSafeArena() returned SafeArena with nil arena")
	}
	if got := s.Metrics().ChunkSize; got != 2048 {
		t.Errorf("ChunkSize = %d, want 2048", got)
	}
}

func TestSafeArenaConcurrency(t *testing.T) {
	s := NewSafeArena(1024)
	h := Register(s)
	defer h.Release()

	const numGoroutines = 10
	const numAllocsPerGoroutine = 100

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < numAllocsPerGoroutine; j++ {
				switch j % 3 {
				case 0:
					o := Make(h, func(p *point) { p.X = int64(id) })
					if o.Raw().X != int64(id) {
						t.Errorf("goroutine %d saw %d", id, o.Raw().X)
					}
					o.Release()
				case 1:
					o := MakeArray[byte](h, 32)
					o.Release()
				case 2:
					s.EnsureCapacity(128)
				}
			}
		}(i)
	}
	wg.Wait()

	m := s.Metrics()
	assert.Zero(t, m.Live)
	assert.NotZero(t, m.SizeInUse)
	s.Reset()
	assert.Zero(t, s.Metrics().SizeInUse)
}

func TestSafeArenaConcurrentResetMetrics(t *testing.T) {
	s := NewSafeArena(1024)
	h := Register(s)
	defer h.Release()

	var g errgroup.Group
	for i := 0; i < 3; i++ {
		g.Go(func() error {
			for j := 0; j < 50; j++ {
				o := Make[wide](h, nil)
				o.Release()
				runtime.Gosched()
			}
			return nil
		})
	}
	g.Go(func() error {
		for i := 0; i < 20; i++ {
			_ = s.Metrics()
			runtime.Gosched()
		}
		return nil
	})
	require.NoError(t, g.Wait())

	s.Reset()
	s.Release()
	requireViolation(t, ErrUseAfterRelease, func() { s.Alloc(8) })
}

func TestSynchronized(t *testing.T) {
	a := NewArena(4096)
	h := Register(Synchronized(a))
	defer h.Release()

	var g errgroup.Group
	for w := 0; w < 8; w++ {
		g.Go(func() error {
			for i := 0; i < 200; i++ {
				o := MakeArray[int64](h, 4)
				o.Release()
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Zero(t, a.Live())
}

func TestSafeManager(t *testing.T) {
	resetDestroyed()
	m := NewSafeManager[tracked](Global())

	uid := m.Create(func(v *tracked) { v.ID = 70 })
	assert.True(t, m.Contains(uid))
	assert.Equal(t, 1, m.Len())

	var seen int32
	ok := m.With(uid, func(v *tracked) { seen = v.ID })
	assert.True(t, ok)
	assert.Equal(t, int32(70), seen)

	m.Destroy(uid)
	assert.Equal(t, int32(1), destroyed[70].Load())
	assert.False(t, m.Contains(uid))
	assert.False(t, m.With(uid, func(*tracked) { t.Fatal("called for a stale uid") }))
	requireViolation(t, ErrStaleUid, func() { m.Destroy(uid) })

	m.Create(func(v *tracked) { v.ID = 71 })
	m.Create(nil)
	m.Release()
	assert.Equal(t, int32(1), destroyed[71].Load())
}

func TestSafeManagerConcurrent(t *testing.T) {
	m := NewSafeManager[point](Global())
	defer m.Release()

	const workers = 8
	const perWorker = 500
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		worker := int64(w)
		g.Go(func() error {
			mine := make([]Uid, 0, perWorker)
			for i := 0; i < perWorker; i++ {
				mine = append(mine, m.Create(func(p *point) { p.X, p.Y = worker, int64(i) }))
				if i%3 == 0 {
					victim := mine[len(mine)/2]
					m.Destroy(victim)
					mine = append(mine[:len(mine)/2], mine[len(mine)/2+1:]...)
				}
			}
			for _, uid := range mine {
				var got int64 = -1
				if !m.With(uid, func(p *point) { got = p.X }) || got != worker {
					return assert.AnError
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, workers*(perWorker-perWorker/3-1), m.Len())
}
