package fanout

import (
	"sync"
	"testing"

	"github.com/gammazero/workerpool"
	"github.com/panjf2000/ants/v2"
	conc "github.com/sourcegraph/conc/pool"
	"github.com/stretchr/testify/assert"
)

func TestGoroutinePool_RunsTask(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(1)
	ran := false
	GoroutinePool().Go(func() {
		defer wg.Done()
		ran = true
	})
	wg.Wait()
	assert.True(t, ran)
}

func TestGoroutinePool_RecoversPanics(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(1)
	assert.NotPanics(t, func() {
		GoroutinePool().Go(func() {
			defer wg.Done()
			panic("boom")
		})
		wg.Wait()
	})
}

func TestConcPool_PanicsOnNil(t *testing.T) {
	assert.Panics(t, func() { ConcPool(nil) })
}

func TestAntsPool_PanicsOnNil(t *testing.T) {
	assert.Panics(t, func() { AntsPool(nil) })
}

func TestWorkerPool_PanicsOnNil(t *testing.T) {
	assert.Panics(t, func() { WorkerPool(nil) })
}

func TestConcPool_RunsTask(t *testing.T) {
	p := conc.New().WithMaxGoroutines(2)
	var wg sync.WaitGroup
	wg.Add(1)
	ran := false
	ConcPool(p).Go(func() {
		defer wg.Done()
		ran = true
	})
	wg.Wait()
	assert.True(t, ran)
}

func TestAntsPool_RunsTask(t *testing.T) {
	pool, err := ants.NewPool(4)
	assert.NoError(t, err)
	defer pool.Release()

	var wg sync.WaitGroup
	wg.Add(1)
	ran := false
	AntsPool(pool).Go(func() {
		defer wg.Done()
		ran = true
	})
	wg.Wait()
	assert.True(t, ran)
}

func TestWorkerPool_RunsTask(t *testing.T) {
	wp := workerpool.New(2)
	defer wp.StopWait()

	var wg sync.WaitGroup
	wg.Add(1)
	ran := false
	WorkerPool(wp).Go(func() {
		defer wg.Done()
		ran = true
	})
	wg.Wait()
	assert.True(t, ran)
}

func TestDefaultPool_SetAndGet(t *testing.T) {
	original := DefaultPool()
	defer SetDefaultPool(original)

	custom := GoroutinePool()
	SetDefaultPool(custom)
	assert.NotNil(t, DefaultPool())

	SetDefaultPool(nil)
	assert.NotNil(t, DefaultPool())
}
