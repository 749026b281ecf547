package fillworker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startPool(t *testing.T, workers, queue int) *Pool {
	t.Helper()
	pool := NewPool(workers, queue)
	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)
	t.Cleanup(func() {
		cancel()
		pool.Stop()
	})
	return pool
}

func TestPool_DoReturnsHandlerResult(t *testing.T) {
	pool := startPool(t, 2, 10)

	require.NoError(t, pool.Do(context.Background(), "AP240101.GR9", time.Second, func(ctx context.Context) error {
		return nil
	}))

	boom := errors.New("boom")
	err := pool.Do(context.Background(), "AP240101.GR9", time.Second, func(ctx context.Context) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestPool_SameKeyNeverOverlaps(t *testing.T) {
	pool := startPool(t, 4, 100)

	var running, maxRunning, runs int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = pool.Do(context.Background(), "AP240101.G15", 5*time.Second, func(ctx context.Context) error {
				n := atomic.AddInt32(&running, 1)
				for {
					m := atomic.LoadInt32(&maxRunning)
					if n <= m || atomic.CompareAndSwapInt32(&maxRunning, m, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt32(&runs, 1)
				atomic.AddInt32(&running, -1)
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&maxRunning), "fills for one key must be serialized")
	assert.Equal(t, int32(10), atomic.LoadInt32(&runs))
}

func TestPool_DifferentKeysRunInParallel(t *testing.T) {
	pool := startPool(t, 8, 10)

	// Pick two keys that hash to different workers.
	a, b := "AP240101.GR9", ""
	for _, k := range []string{"AP240102.GR9", "AP240103.GR9", "AP240104.GR9", "AP240105.GR9", "AP240106.GR9"} {
		if pool.shardForKey(k) != pool.shardForKey(a) {
			b = k
			break
		}
	}
	require.NotEmpty(t, b)

	release := make(chan struct{})
	started := make(chan struct{}, 2)
	var wg sync.WaitGroup
	for _, key := range []string{a, b} {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			_ = pool.Do(context.Background(), key, 5*time.Second, func(ctx context.Context) error {
				started <- struct{}{}
				<-release
				return nil
			})
		}(key)
	}

	for i := 0; i < 2; i++ {
		select {
		case <-started:
		case <-time.After(time.Second):
			t.Fatal("fills for distinct shards should start concurrently")
		}
	}
	close(release)
	wg.Wait()
}

func TestPool_WaitTimeout(t *testing.T) {
	pool := startPool(t, 1, 10)

	release := make(chan struct{})
	go func() {
		_ = pool.Do(context.Background(), "k", time.Second, func(ctx context.Context) error {
			<-release
			return nil
		})
	}()
	time.Sleep(20 * time.Millisecond)

	var ran int32
	err := pool.Do(context.Background(), "k", 30*time.Millisecond, func(ctx context.Context) error {
		atomic.StoreInt32(&ran, 1)
		return nil
	})
	assert.ErrorIs(t, err, ErrWaitTimeout)

	close(release)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&ran), "abandoned fill must be skipped")
	assert.Equal(t, int64(1), pool.GetStats().TotalAbandoned)
}

func TestPool_PanicBecomesError(t *testing.T) {
	pool := startPool(t, 1, 10)

	err := pool.Do(context.Background(), "k", time.Second, func(ctx context.Context) error {
		panic("converter exploded")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "converter exploded")
	assert.Equal(t, int64(1), pool.GetStats().TotalErrors)
}

func TestPool_StoppedRejects(t *testing.T) {
	pool := NewPool(1, 1)
	pool.Start(context.Background())
	pool.Stop()

	err := pool.Do(context.Background(), "k", time.Second, func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrPoolStopped)
}

func TestPool_CancelledContextRejects(t *testing.T) {
	pool := NewPool(2, 4)
	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)
	t.Cleanup(pool.Stop)
	cancel()

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&pool.stopped) == 1
	}, time.Second, 5*time.Millisecond)

	err := pool.Do(context.Background(), "AP240101.GR9", 0, func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrPoolStopped)
}

func TestPool_DoReturnsWhenWorkerExitsAfterDispatch(t *testing.T) {
	// A worker whose context is done but which has not drained yet: the
	// queued job is never read.
	pool := NewPool(1, 4)
	workerCtx, cancel := context.WithCancel(context.Background())
	cancel()
	pool.workers[0] = &worker{id: 0, jobQueue: make(chan *Job, 4), ctx: workerCtx, cancel: cancel, pool: pool}

	result := make(chan error, 1)
	go func() {
		result <- pool.Do(context.Background(), "AP240101.GR9", 0, func(ctx context.Context) error { return nil })
	}()

	select {
	case err := <-result:
		assert.ErrorIs(t, err, ErrPoolStopped)
	case <-time.After(2 * time.Second):
		t.Fatal("Do did not return after its worker exited")
	}
}

func TestPool_Stats(t *testing.T) {
	pool := startPool(t, 3, 7)
	require.NoError(t, pool.Do(context.Background(), "k", time.Second, func(ctx context.Context) error { return nil }))

	stats := pool.GetStats()
	assert.Equal(t, 3, stats.NumWorkers)
	assert.Equal(t, 7, stats.QueueSize)
	assert.Len(t, stats.WorkerStats, 3)
	assert.Equal(t, int64(1), stats.TotalDispatched)
	assert.Equal(t, int64(1), stats.TotalProcessed)
	assert.Empty(t, stats.ActiveKeys)
}
