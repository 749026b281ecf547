package fillworker

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	ErrPoolStopped = errors.New("fill pool stopped")
	ErrQueueFull   = errors.New("fill queue full")
	ErrWaitTimeout = errors.New("timed out waiting for fill")
)

// Job is one cache fill. Jobs with the same Key always land on the same
// worker, so they run one after another and never overlap.
type Job struct {
	Key     string
	Handler func(ctx context.Context) error

	ctx       context.Context
	done      chan error
	abandoned int32
}

// PoolStats is a real-time snapshot of the pool.
type PoolStats struct {
	NumWorkers      int            `json:"num_workers"`
	QueueSize       int            `json:"queue_size"`
	ActiveWorkers   int            `json:"active_workers"`
	TotalDispatched int64          `json:"total_dispatched"`
	TotalProcessed  int64          `json:"total_processed"`
	TotalDropped    int64          `json:"total_dropped"`
	TotalErrors     int64          `json:"total_errors"`
	TotalAbandoned  int64          `json:"total_abandoned"`
	WorkerStats     []WorkerStats  `json:"worker_stats"`
	ActiveKeys      map[string]int `json:"active_keys"` // key -> worker_id
}

type WorkerStats struct {
	WorkerID      int   `json:"worker_id"`
	QueueDepth    int   `json:"queue_depth"`
	IsProcessing  bool  `json:"is_processing"`
	JobsProcessed int64 `json:"jobs_processed"`
}

// Pool shards fills across a fixed set of workers by key.
type Pool struct {
	numWorkers int
	queueSize  int
	workers    []*worker
	wg         sync.WaitGroup
	stopOnce   sync.Once
	stopped    int32

	totalDispatched int64
	totalProcessed  int64
	totalDropped    int64
	totalErrors     int64
	totalAbandoned  int64
	activeKeysMu    sync.RWMutex
	activeKeys      map[string]int

	// Hooks for external monitoring
	OnWorkerStart func(workerID int, key string)
	OnWorkerEnd   func(workerID int, key string)
}

type worker struct {
	id            int
	jobQueue      chan *Job
	ctx           context.Context
	cancel        context.CancelFunc
	isProcessing  int32
	jobsProcessed int64
	pool          *Pool
}

// NewPool creates a pool; call Start before submitting work.
func NewPool(numWorkers, queueSize int) *Pool {
	if numWorkers <= 0 {
		numWorkers = 4
	}
	if queueSize <= 0 {
		queueSize = 64
	}

	return &Pool{
		numWorkers: numWorkers,
		queueSize:  queueSize,
		workers:    make([]*worker, numWorkers),
		activeKeys: make(map[string]int),
	}
}

// Start launches the workers. Cancelling ctx drains and stops them.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.numWorkers; i++ {
		workerCtx, cancel := context.WithCancel(ctx)
		w := &worker{
			id:       i,
			jobQueue: make(chan *Job, p.queueSize),
			ctx:      workerCtx,
			cancel:   cancel,
			pool:     p,
		}
		p.workers[i] = w

		p.wg.Add(1)
		go w.run(&p.wg)
	}

	logrus.Infof("[FILL_POOL] Started with %d workers, queue size: %d", p.numWorkers, p.queueSize)
}

// Do queues fn under key and waits for it to finish. It gives up after wait
// (or when ctx ends) and the queued job is then skipped if it has not
// started yet.
func (p *Pool) Do(ctx context.Context, key string, wait time.Duration, fn func(ctx context.Context) error) error {
	job := &Job{
		Key:     key,
		Handler: fn,
		ctx:     ctx,
		done:    make(chan error, 1),
	}
	if atomic.LoadInt32(&p.stopped) == 1 {
		return ErrPoolStopped
	}
	if !p.TryDispatch(job) {
		return ErrQueueFull
	}
	workerDone := p.workers[p.shardForKey(key)].ctx.Done()

	var timeout <-chan time.Time
	if wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case err := <-job.done:
		return err
	case <-ctx.Done():
		atomic.StoreInt32(&job.abandoned, 1)
		return ctx.Err()
	case <-timeout:
		atomic.StoreInt32(&job.abandoned, 1)
		return fmt.Errorf("%w after %s (%s)", ErrWaitTimeout, wait, key)
	case <-workerDone:
		// The worker may have finished the job just before exiting.
		select {
		case err := <-job.done:
			return err
		default:
		}
		atomic.StoreInt32(&job.abandoned, 1)
		return ErrPoolStopped
	}
}

// TryDispatch enqueues a job without blocking and reports whether it was accepted.
func (p *Pool) TryDispatch(job *Job) bool {
	if atomic.LoadInt32(&p.stopped) == 1 {
		atomic.AddInt64(&p.totalDropped, 1)
		return false
	}
	if job.ctx == nil {
		job.ctx = context.Background()
	}
	if job.done == nil {
		job.done = make(chan error, 1)
	}

	shard := p.shardForKey(job.Key)
	atomic.AddInt64(&p.totalDispatched, 1)

	sent := func() (ok bool) {
		defer func() {
			if r := recover(); r != nil {
				ok = false
			}
		}()
		select {
		case p.workers[shard].jobQueue <- job:
			return true
		default:
			return false
		}
	}()

	if sent {
		return true
	}

	atomic.AddInt64(&p.totalDropped, 1)
	logrus.Warnf("[FILL_POOL] Worker %d queue full (or stopped), dropping fill for %s", shard, job.Key)
	return false
}

// Stop shuts the pool down gracefully.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		atomic.StoreInt32(&p.stopped, 1)
		logrus.Info("[FILL_POOL] Stopping workers...")

		for _, w := range p.workers {
			if w == nil {
				continue
			}
			w.cancel()
			close(w.jobQueue)
		}

		p.wg.Wait()

		logrus.Info("[FILL_POOL] All workers stopped")
	})
}

func (p *Pool) shardForKey(key string) int {
	h := fnv.New32a()
	h.Write([]byte(key))
	return int(h.Sum32() % uint32(p.numWorkers))
}

// GetStats returns real-time pool statistics.
func (p *Pool) GetStats() PoolStats {
	workerStats := make([]WorkerStats, 0, len(p.workers))
	activeWorkers := 0

	for _, w := range p.workers {
		if w == nil {
			continue
		}
		isProcessing := atomic.LoadInt32(&w.isProcessing) == 1
		if isProcessing {
			activeWorkers++
		}
		workerStats = append(workerStats, WorkerStats{
			WorkerID:      w.id,
			QueueDepth:    len(w.jobQueue),
			IsProcessing:  isProcessing,
			JobsProcessed: atomic.LoadInt64(&w.jobsProcessed),
		})
	}

	p.activeKeysMu.RLock()
	activeKeys := make(map[string]int, len(p.activeKeys))
	for k, v := range p.activeKeys {
		activeKeys[k] = v
	}
	p.activeKeysMu.RUnlock()

	return PoolStats{
		NumWorkers:      p.numWorkers,
		QueueSize:       p.queueSize,
		ActiveWorkers:   activeWorkers,
		TotalDispatched: atomic.LoadInt64(&p.totalDispatched),
		TotalProcessed:  atomic.LoadInt64(&p.totalProcessed),
		TotalDropped:    atomic.LoadInt64(&p.totalDropped),
		TotalErrors:     atomic.LoadInt64(&p.totalErrors),
		TotalAbandoned:  atomic.LoadInt64(&p.totalAbandoned),
		WorkerStats:     workerStats,
		ActiveKeys:      activeKeys,
	}
}

func (w *worker) run(wg *sync.WaitGroup) {
	defer wg.Done()

	logrus.Debugf("[FILL_POOL] Worker %d started", w.id)

	for {
		select {
		case job, ok := <-w.jobQueue:
			if !ok {
				logrus.Debugf("[FILL_POOL] Worker %d shutting down", w.id)
				return
			}
			w.process(job)

		case <-w.ctx.Done():
			logrus.Debugf("[FILL_POOL] Worker %d context cancelled, draining queue...", w.id)
			atomic.StoreInt32(&w.pool.stopped, 1)
			w.drainQueue()
			return
		}
	}
}

func (w *worker) process(job *Job) {
	if atomic.LoadInt32(&job.abandoned) == 1 || job.ctx.Err() != nil {
		atomic.AddInt64(&w.pool.totalAbandoned, 1)
		job.done <- context.Canceled
		return
	}

	w.pool.activeKeysMu.Lock()
	w.pool.activeKeys[job.Key] = w.id
	w.pool.activeKeysMu.Unlock()

	if w.pool.OnWorkerStart != nil {
		w.pool.OnWorkerStart(w.id, job.Key)
	}
	atomic.StoreInt32(&w.isProcessing, 1)

	var err error
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("fill panic for %s: %v", job.Key, r)
			logrus.Errorf("[FILL_POOL] Worker %d panic for %s: %v", w.id, job.Key, r)
		}
		if err != nil {
			atomic.AddInt64(&w.pool.totalErrors, 1)
		}

		w.pool.activeKeysMu.Lock()
		delete(w.pool.activeKeys, job.Key)
		w.pool.activeKeysMu.Unlock()

		if w.pool.OnWorkerEnd != nil {
			w.pool.OnWorkerEnd(w.id, job.Key)
		}
		atomic.StoreInt32(&w.isProcessing, 0)
		atomic.AddInt64(&w.jobsProcessed, 1)
		atomic.AddInt64(&w.pool.totalProcessed, 1)
		job.done <- err
	}()

	err = job.Handler(job.ctx)
	if err != nil {
		logrus.WithError(err).Warnf("[FILL_POOL] Worker %d fill failed for %s", w.id, job.Key)
	}
}

// drainQueue fails pending jobs on shutdown so no caller waits forever.
func (w *worker) drainQueue() {
	for {
		select {
		case job, ok := <-w.jobQueue:
			if !ok {
				return
			}
			job.done <- ErrPoolStopped
		default:
			return
		}
	}
}
