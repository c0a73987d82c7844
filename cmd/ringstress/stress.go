package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aradilov/lockfree/ringbuffer"
	"github.com/aradilov/lockfree/ringbuffer/ringmetrics"
	"github.com/aradilov/lockfree/sharedptr"
)

var (
	ErrConservation = errors.New("queue lost or duplicated items")
	ErrLifetime     = errors.New("shared value lifetime violated")
)

type queueReport struct {
	Items   int
	Elapsed time.Duration
	Stats   ringbuffer.Stats
}

type sharedReport struct {
	Clones  int64
	Stores  int64
	Loads   int64
	Elapsed time.Duration
}

func run(ctx context.Context, cfg *Config, logger *slog.Logger) error {
	q, err := ringbuffer.NewBoundedQueue[int](cfg.Capacity)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	if _, err := ringmetrics.Register(registry, "stress", q); err != nil {
		return err
	}

	logger.Info("queue stress starting",
		"capacity", cfg.Capacity,
		"producers", cfg.Producers,
		"consumers", cfg.Consumers,
		"items", cfg.Items)

	qr, err := stressQueue(ctx, q, cfg)
	if err != nil {
		return err
	}
	logger.Info("queue stress passed",
		"items", qr.Items,
		"elapsed", qr.Elapsed,
		"ops_per_sec", opsPerSec(int64(qr.Items), qr.Elapsed),
		"enqueue_full", qr.Stats.EnqueueFull,
		"enqueue_contended", qr.Stats.EnqueueContended,
		"dequeue_empty", qr.Stats.DequeueEmpty,
		"dequeue_contended", qr.Stats.DequeueContended)
	logMetrics(logger, registry)

	sr, err := stressShared(ctx, cfg)
	if err != nil {
		return err
	}
	logger.Info("shared pointer stress passed",
		"clones", sr.Clones,
		"stores", sr.Stores,
		"loads", sr.Loads,
		"elapsed", sr.Elapsed)

	return nil
}

// stressQueue pushes Producers*Items distinct values through q and checks
// every value comes out exactly once.
func stressQueue(ctx context.Context, q *ringbuffer.BoundedQueue[int], cfg *Config) (queueReport, error) {
	total := cfg.Producers * cfg.Items
	seen := make([]int32, total)

	var (
		received atomic.Int64
		pg, cg   sync.WaitGroup
	)
	start := time.Now()

	cg.Add(cfg.Consumers)
	for c := 0; c < cfg.Consumers; c++ {
		go func() {
			defer cg.Done()
			var bo ringbuffer.Backoff
			for received.Load() < int64(total) && ctx.Err() == nil {
				v, ok := q.Dequeue()
				if !ok {
					bo.Wait()
					continue
				}
				bo.Reset()
				if v >= 0 && v < total {
					atomic.AddInt32(&seen[v], 1)
				}
				received.Add(1)
			}
		}()
	}

	pg.Add(cfg.Producers)
	for p := 0; p < cfg.Producers; p++ {
		go func(from int) {
			defer pg.Done()
			var bo ringbuffer.Backoff
			for i := from; i < from+cfg.Items; i++ {
				for !q.Enqueue(i) {
					if ctx.Err() != nil {
						return
					}
					bo.Wait()
				}
				bo.Reset()
			}
		}(p * cfg.Items)
	}

	pg.Wait()
	cg.Wait()

	report := queueReport{Items: total, Elapsed: time.Since(start), Stats: q.Stats()}
	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("queue stress interrupted: %w", err)
	}

	var missing, duplicated int
	for _, n := range seen {
		switch {
		case n == 0:
			missing++
		case n > 1:
			duplicated++
		}
	}
	if missing > 0 || duplicated > 0 || received.Load() != int64(total) {
		return report, fmt.Errorf("%w: %d missing, %d duplicated, %d received of %d",
			ErrConservation, missing, duplicated, received.Load(), total)
	}
	return report, nil
}

// tracked is a shared value that counts how often it was closed.
type tracked struct {
	closed atomic.Int32
}

func (t *tracked) Close() error {
	t.closed.Add(1)
	return nil
}

// stressShared races clones and releases of one handle, then stores and loads
// through an Atomic slot, and checks every value was closed exactly once and
// never observed after being closed.
func stressShared(ctx context.Context, cfg *Config) (sharedReport, error) {
	var (
		report     sharedReport
		violations atomic.Int64
		mu         sync.Mutex
		values     []*tracked
	)
	newTracked := func() *tracked {
		v := &tracked{}
		mu.Lock()
		values = append(values, v)
		mu.Unlock()
		return v
	}
	start := time.Now()

	base := sharedptr.New(newTracked())
	var clones atomic.Int64
	var wg sync.WaitGroup
	workers := cfg.Producers + cfg.Consumers
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := 0; i < cfg.Items && ctx.Err() == nil; i++ {
				c := base.Clone()
				if c.Deref().closed.Load() != 0 {
					violations.Add(1)
				}
				_ = c.Release()
				clones.Add(1)
			}
		}()
	}
	wg.Wait()
	if base.RefCount() != 1 {
		violations.Add(1)
	}

	slot := sharedptr.NewAtomic(&base)
	var (
		stores, loads atomic.Int64
		stop          atomic.Bool
		rg            sync.WaitGroup
	)
	rg.Add(cfg.Consumers)
	for r := 0; r < cfg.Consumers; r++ {
		go func() {
			defer rg.Done()
			for !stop.Load() && ctx.Err() == nil {
				p := slot.Load()
				if v := p.Get(); v == nil || v.closed.Load() != 0 {
					violations.Add(1)
				}
				_ = p.Release()
				loads.Add(1)
			}
		}()
	}

	swaps := cfg.Items/16 + 1
	wg.Add(cfg.Producers)
	for p := 0; p < cfg.Producers; p++ {
		go func() {
			defer wg.Done()
			for i := 0; i < swaps && ctx.Err() == nil; i++ {
				next := sharedptr.New(newTracked())
				_ = slot.Store(&next)
				stores.Add(1)
			}
		}()
	}
	wg.Wait()
	stop.Store(true)
	rg.Wait()
	_ = slot.Release()

	report.Clones = clones.Load()
	report.Stores = stores.Load()
	report.Loads = loads.Load()
	report.Elapsed = time.Since(start)

	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("shared pointer stress interrupted: %w", err)
	}
	for _, v := range values {
		if v.closed.Load() != 1 {
			violations.Add(1)
		}
	}
	if n := violations.Load(); n > 0 {
		return report, fmt.Errorf("%w: %d violations", ErrLifetime, n)
	}
	return report, nil
}

func logMetrics(logger *slog.Logger, registry *prometheus.Registry) {
	mfs, err := registry.Gather()
	if err != nil {
		logger.Warn("failed to gather ring metrics", "error", err)
		return
	}
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			attrs := []any{"metric", mf.GetName()}
			for _, lp := range m.GetLabel() {
				attrs = append(attrs, lp.GetName(), lp.GetValue())
			}
			var value float64
			if c := m.GetCounter(); c != nil {
				value = c.GetValue()
			} else if g := m.GetGauge(); g != nil {
				value = g.GetValue()
			}
			attrs = append(attrs, "value", value)
			logger.Debug("ring metric", attrs...)
		}
	}
}

func opsPerSec(n int64, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(n) / d.Seconds()
}
