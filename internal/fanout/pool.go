// Package fanout dispatches a query to every eligible provider concurrently
// and collects their results with per-task timeout and cancellation.
package fanout

import (
	"sync/atomic"

	"github.com/gammazero/workerpool"
	"github.com/panjf2000/ants/v2"
	conc "github.com/sourcegraph/conc/pool"

	"github.com/ambit-search/ambit/internal/safeutil"
)

// Pool is the common interface every concurrency backend is adapted to, so
// the executor never depends on a specific pool library directly.
type Pool interface {
	Go(f func())
}

var defaultPool atomic.Value

func init() {
	defaultPool.Store(GoroutinePool())
}

// DefaultPool returns the process-wide default pool (an unbounded goroutine
// pool) used when a request has no pool configured.
func DefaultPool() Pool {
	return defaultPool.Load().(Pool)
}

// SetDefaultPool replaces the process-wide default pool. A nil pool is
// ignored.
func SetDefaultPool(pool Pool) {
	if pool == nil {
		return
	}
	defaultPool.Store(pool)
}

type poolFunc func(f func())

func (p poolFunc) Go(f func()) { p(f) }

// GoroutinePool launches one goroutine per task, unbounded, with panic
// recovery so a broken adapter can't take down the process.
func GoroutinePool() Pool {
	return poolFunc(func(f func()) {
		safeutil.Go(f)
	})
}

// ConcPool adapts a sourcegraph/conc pool.
func ConcPool(pool *conc.Pool) Pool {
	if pool == nil {
		panic("fanout: conc pool is nil")
	}
	return poolFunc(func(f func()) {
		pool.Go(f)
	})
}

// AntsPool adapts a panjf2000/ants pool, bounding the number of concurrent
// provider requests in flight.
func AntsPool(pool *ants.Pool) Pool {
	if pool == nil {
		panic("fanout: ants pool is nil")
	}
	return poolFunc(func(f func()) {
		_ = pool.Submit(f)
	})
}

// WorkerPool adapts a gammazero/workerpool queue.
func WorkerPool(pool *workerpool.WorkerPool) Pool {
	if pool == nil {
		panic("fanout: worker pool is nil")
	}
	return poolFunc(func(f func()) {
		pool.Submit(f)
	})
}
