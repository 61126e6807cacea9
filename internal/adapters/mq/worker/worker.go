// Package worker runs queued scrape tasks on a bounded pool of goroutines.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ffbrank/ffbrank/internal/adapters/mq/queue"
	"github.com/ffbrank/ffbrank/internal/domain/model"
	"github.com/ffbrank/ffbrank/pkg/logger"
	"github.com/ffbrank/ffbrank/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()
	poolShutdownTimeout     = 30 * time.Second
)

// Task outcomes used in metrics and Stats.
const (
	OutcomeOK    = "ok"
	OutcomeEmpty = "empty"
	OutcomeError = "error"
)

// Queue defines how workers receive tasks.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Task
}

// Worker runs tasks from a queue.
type Worker interface {
	// Run processes tasks until the queue is drained or ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker after its current task.
	Shutdown(ctx context.Context) error
}

// Stats counts task outcomes.
type Stats struct {
	OK     int64
	Empty  int64
	Failed int64
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue Queue
	name  string
	stats *counters

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

type counters struct {
	ok, empty, failed atomic.Int64
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		name:     "worker",
		stats:    &counters{},
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	tasks := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case t, ok := <-tasks:
			if !ok {
				return
			}
			w.process(ctx, t)
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Stats returns the outcome counts of this worker.
func (w *InMemoryWorker) Stats() Stats {
	return w.stats.snapshot()
}

func (w *InMemoryWorker) process(ctx context.Context, t queue.Task) {
	start := time.Now()
	err := run(ctx, t)
	ms := float64(time.Since(start).Milliseconds())

	switch {
	case err == nil:
		w.stats.ok.Add(1)
		metrics.RecordTaskProcessed(OutcomeOK, ms)
	case errors.Is(err, model.ErrEmptyResult):
		w.stats.empty.Add(1)
		metrics.RecordTaskProcessed(OutcomeEmpty, ms)
		w.logger.Info(ctx, "task produced no data", logger.String("task", t.Name), logger.Error(err))
	default:
		w.stats.failed.Add(1)
		metrics.RecordTaskProcessed(OutcomeError, ms)
		metrics.RecordErrorByComponent("worker", "task_error")
		w.logger.Error(ctx, "task failed", logger.String("task", t.Name), logger.Error(err))
	}
}

// run calls the task, turning a panic into an error.
func run(ctx context.Context, t queue.Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task %s panicked: %v", t.Name, r)
		}
	}()
	if t.Run == nil {
		return fmt.Errorf("task %s has no body", t.Name)
	}
	return t.Run(ctx)
}

func (c *counters) snapshot() Stats {
	return Stats{OK: c.ok.Load(), Empty: c.empty.Load(), Failed: c.failed.Load()}
}

// Pool manages multiple workers sharing one queue and one set of counters.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	stats   *counters
	active  atomic.Int64
	wg      sync.WaitGroup
	logger  logger.Logger
}

// NewPool creates a new worker pool. workerCount < 1 selects a default
// based on the CPU count.
func NewPool(workerCount int, q Queue, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		stats:   &counters{},
		logger:  logger.Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		w := NewInMemoryWorker(q, append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)...)
		w.stats = pool.stats
		pool.workers[i] = w
	}
	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		p.wg.Add(1)
		metrics.UpdateWorkerActiveCount(int(p.active.Add(1)))
		go func(w *InMemoryWorker) {
			defer p.wg.Done()
			defer func() { metrics.UpdateWorkerActiveCount(int(p.active.Add(-1))) }()
			w.Run(ctx)
		}(w)
	}
}

// Wait blocks until every worker returned, which happens once the queue is
// closed and drained or the start context ends.
func (p *Pool) Wait() Stats {
	p.wg.Wait()
	return p.stats.snapshot()
}

// Stats returns the outcome counts so far.
func (p *Pool) Stats() Stats {
	return p.stats.snapshot()
}

// Shutdown closes the queue if it can be closed and stops every worker.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var errs []error
	for i, w := range p.workers {
		if err := w.Shutdown(shutdownCtx); err != nil {
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
