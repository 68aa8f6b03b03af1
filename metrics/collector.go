// Package metrics exports lum allocator statistics to Prometheus.
package metrics

import (
	"github.com/pavanmanishd/lum"
	"github.com/prometheus/client_golang/prometheus"
)

// Collector reads Tracking and Pool counters at scrape time.
type Collector struct {
	tracking *lum.Tracking
	pool     *lum.Pool

	allocs    *prometheus.Desc
	frees     *prometheus.Desc
	live      *prometheus.Desc
	liveBytes *prometheus.Desc
	peakBytes *prometheus.Desc
	hits      *prometheus.Desc
	misses    *prometheus.Desc
	pooled    *prometheus.Desc
}

// NewCollector returns a collector for t and p; either may be nil.
func NewCollector(namespace string, t *lum.Tracking, p *lum.Pool) *Collector {
	desc := func(subsystem, name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystem, name), help, nil, nil)
	}
	return &Collector{
		tracking:  t,
		pool:      p,
		allocs:    desc("allocator", "allocs_total", "Total allocations handed out"),
		frees:     desc("allocator", "frees_total", "Total allocations freed"),
		live:      desc("allocator", "live", "Allocations not yet freed"),
		liveBytes: desc("allocator", "live_bytes", "Bytes in allocations not yet freed"),
		peakBytes: desc("allocator", "peak_bytes", "Highest live byte count observed"),
		hits:      desc("pool", "hits_total", "Allocations served from a pool free list"),
		misses:    desc("pool", "misses_total", "Allocations the pool passed to its parent"),
		pooled:    desc("pool", "pooled_bytes", "Bytes sitting on pool free lists"),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	if c.tracking != nil {
		ch <- c.allocs
		ch <- c.frees
		ch <- c.live
		ch <- c.liveBytes
		ch <- c.peakBytes
	}
	if c.pool != nil {
		ch <- c.hits
		ch <- c.misses
		ch <- c.pooled
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	if c.tracking != nil {
		s := c.tracking.Stats()
		ch <- prometheus.MustNewConstMetric(c.allocs, prometheus.CounterValue, float64(s.Allocs))
		ch <- prometheus.MustNewConstMetric(c.frees, prometheus.CounterValue, float64(s.Frees))
		ch <- prometheus.MustNewConstMetric(c.live, prometheus.GaugeValue, float64(s.Live))
		ch <- prometheus.MustNewConstMetric(c.liveBytes, prometheus.GaugeValue, float64(s.LiveBytes))
		ch <- prometheus.MustNewConstMetric(c.peakBytes, prometheus.GaugeValue, float64(s.PeakBytes))
	}
	if c.pool != nil {
		m := c.pool.Metrics()
		ch <- prometheus.MustNewConstMetric(c.hits, prometheus.CounterValue, float64(m.Hits))
		ch <- prometheus.MustNewConstMetric(c.misses, prometheus.CounterValue, float64(m.Misses))
		ch <- prometheus.MustNewConstMetric(c.pooled, prometheus.GaugeValue, float64(m.PooledBytes))
	}
}
