package metrics

import (
	"strings"
	"testing"

	"github.com/pavanmanishd/lum"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gather(t *testing.T, c prometheus.Collector) map[string]float64 {
	t.Helper()
	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(c))
	families, err := reg.Gather()
	require.NoError(t, err)

	values := make(map[string]float64)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				values[mf.GetName()] = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				values[mf.GetName()] = m.GetGauge().GetValue()
			}
		}
	}
	return values
}

func TestCollectorTracking(t *testing.T) {
	tr := lum.NewTracking(nil)
	h := lum.Register(tr)
	defer h.Release()

	kept := lum.Make[int64](h, nil)
	defer kept.Release()
	dropped := lum.MakeArray[int64](h, 8)
	dropped.Release()

	values := gather(t, NewCollector("lum", tr, nil))
	assert.Equal(t, map[string]float64{
		"lum_allocator_allocs_total": 2,
		"lum_allocator_frees_total":  1,
		"lum_allocator_live":         1,
		"lum_allocator_live_bytes":   float64(lum.HeaderSize + 8),
		"lum_allocator_peak_bytes":   float64(2*lum.HeaderSize + 8 + 64),
	}, values)
}

func TestCollectorPool(t *testing.T) {
	p := lum.NewPool(nil)
	h := lum.Register(p)
	defer h.Release()
	defer p.Drain()

	for i := 0; i < 3; i++ {
		o := lum.Make[[16]byte](h, nil)
		o.Release()
	}

	values := gather(t, NewCollector("lum", nil, p))
	assert.Equal(t, 2.0, values["lum_pool_hits_total"])
	assert.Equal(t, 1.0, values["lum_pool_misses_total"])
	assert.Equal(t, 64.0, values["lum_pool_pooled_bytes"])
	assert.Len(t, values, 3)
}

func TestCollectorCounts(t *testing.T) {
	tr := lum.NewTracking(nil)
	p := lum.NewPool(tr)

	assert.Equal(t, 8, testutil.CollectAndCount(NewCollector("lum", tr, p)))
	assert.Equal(t, 5, testutil.CollectAndCount(NewCollector("lum", tr, nil)))
	assert.Equal(t, 0, testutil.CollectAndCount(NewCollector("lum", nil, nil)))
}

func TestCollectorExposition(t *testing.T) {
	p := lum.NewPool(nil)
	expected := `
# HELP lum_pool_misses_total Allocations the pool passed to its parent
# TYPE lum_pool_misses_total counter
lum_pool_misses_total 1
`
	mem := p.Alloc(100)
	p.Free(mem)
	require.NoError(t, testutil.CollectAndCompare(NewCollector("lum", nil, p), strings.NewReader(expected), "lum_pool_misses_total"))
}
