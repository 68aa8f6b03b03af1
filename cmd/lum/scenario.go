package main

import (
	"context"

	"github.com/michaelquigley/pfxlog"
	"github.com/pavanmanishd/lum"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// backend is the allocator stack selected by a Config.
type backend struct {
	name     string
	handle   lum.Handle
	arena    *lum.SafeArena
	pool     *lum.Pool
	tracking *lum.Tracking
}

func newBackend(cfg *Config) (*backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	b := &backend{name: cfg.Allocator}
	var a lum.Allocator
	switch cfg.Allocator {
	case "heap":
		a = lum.Heap{}
	case "arena":
		b.arena = lum.NewSafeArena(cfg.ArenaChunkSize)
		a = b.arena
	case "pool":
		b.pool = lum.NewPool(nil)
		a = b.pool
	case "mmap":
		a = lum.Mmap{}
	}
	if cfg.Track {
		b.tracking = lum.NewTracking(a)
		a = b.tracking
	}
	b.handle = lum.Register(a)
	return b, nil
}

// close drops the registration and returns pooled or arena memory. Every
// block allocated through the backend must be freed first.
func (b *backend) close() {
	b.handle.Release()
	if b.pool != nil {
		b.pool.Drain()
	}
	if b.arena != nil {
		b.arena.Release()
	}
}

// round runs one churn and then rewinds an arena backend, so a long-running
// serve reuses the same chunks instead of growing a new one per round.
func (b *backend) round(ctx context.Context, cfg *Config) error {
	if err := churn(ctx, cfg, b); err != nil {
		return err
	}
	if b.arena != nil {
		b.arena.Reset()
	}
	return nil
}

// report is the summary printed after a run.
type report struct {
	Allocator string             `json:"allocator"`
	Tracking  *lum.TrackingStats `json:"tracking,omitempty"`
	Pool      *lum.PoolMetrics   `json:"pool,omitempty"`
	Arena     *lum.ArenaMetrics  `json:"arena,omitempty"`
	Leaks     int                `json:"leaks"`
}

func (b *backend) report() *report {
	r := &report{Allocator: b.name}
	if b.tracking != nil {
		s := b.tracking.Stats()
		r.Tracking = &s
		r.Leaks = len(b.tracking.Leaks())
	}
	if b.pool != nil {
		m := b.pool.Metrics()
		r.Pool = &m
	}
	if b.arena != nil {
		m := b.arena.Metrics()
		r.Arena = &m
	}
	return r
}

// particle is the payload the churn workers pool in their managers.
type particle struct {
	X, Y, Z  float32
	Worker   int32
	Sequence int64
}

// tally is the payload shared by all workers.
type tally struct {
	Workers int32
}

// churn runs cfg.Workers goroutines. Each clones and releases a Shared
// tally every iteration and cycles cfg.Items particles through its own
// Manager, checking that destroyed Uids stop resolving.
func churn(ctx context.Context, cfg *Config, b *backend) error {
	owned := lum.Make(b.handle, func(t *tally) { t.Workers = int32(cfg.Workers) })
	shared := lum.Share(&owned)
	defer shared.Release()

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < cfg.Workers; w++ {
		worker := int32(w)
		ref := shared.Clone()
		g.Go(func() error {
			defer ref.Release()
			return churnWorker(ctx, cfg, b.handle, &ref, worker)
		})
	}
	return g.Wait()
}

func churnWorker(ctx context.Context, cfg *Config, h lum.Handle, shared *lum.Shared[tally], worker int32) error {
	m := lum.NewManager[particle](h)
	defer m.Release()

	uids := make([]lum.Uid, 0, cfg.Items)
	for i := 0; i < cfg.Iterations; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		ref := shared.Clone()
		if ref.Raw().Workers != int32(cfg.Workers) {
			ref.Release()
			return errors.Errorf("worker %d: shared tally corrupted", worker)
		}
		ref.Release()

		if len(uids) == cfg.Items {
			victim := uids[i%cfg.Items]
			m.Destroy(victim)
			if _, ok := m.Fetch(victim); ok {
				return errors.Errorf("worker %d: destroyed %v still resolves", worker, victim)
			}
			uid, p := m.Create()
			*p = particle{Worker: worker, Sequence: int64(i)}
			uids[i%cfg.Items] = uid
			continue
		}
		uid, p := m.Create()
		*p = particle{Worker: worker, Sequence: int64(i)}
		uids = append(uids, uid)
	}

	for _, uid := range uids {
		p, ok := m.Fetch(uid)
		if !ok || p.Worker != worker {
			return errors.Errorf("worker %d: live %v lost", worker, uid)
		}
	}
	pfxlog.Logger().Debugf("worker %d done with %d live particles", worker, m.Len())
	return nil
}
