// Package worker runs recompute jobs off the queue.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/appraisal/internal/adapters/mq/queue"
	"github.com/okian/appraisal/pkg/logger"
	"github.com/okian/appraisal/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Recomputer recomputes and stores the results of one subject.
type Recomputer interface {
	Recompute(ctx context.Context, periodID, subjectID string) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker processes recompute jobs.
type Worker interface {
	// Run starts the worker loop until ctx is canceled, the queue is
	// drained and closed, or Shutdown is called.
	Run(ctx context.Context)

	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue      Queue
	recomputer Recomputer
	name       string

	// onDone is called after every job with its outcome.
	onDone func(err error)

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker.
func NewInMemoryWorker(q Queue, r Recomputer, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:      q,
		recomputer: r,
		name:       "worker",
		onDone:     func(error) {},
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
		logger:     logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			err := w.process(ctx, job)
			if err != nil {
				w.logger.Error(ctx, "recompute failed",
					logger.String("job_id", job.JobID),
					logger.String("period", job.PeriodID),
					logger.String("subject", job.SubjectID),
					logger.Error(err),
				)
			}
			w.onDone(err)
		}
	}
}

// Shutdown stops the worker without waiting for the queue to drain.
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

func (w *InMemoryWorker) process(ctx context.Context, job queue.Job) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if err := w.recomputer.Recompute(ctx, job.PeriodID, job.SubjectID); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "recompute_error")
		return fmt.Errorf("job %s: %w", job.JobID, err)
	}
	w.logger.Debug(ctx, "recomputed",
		logger.String("job_id", job.JobID),
		logger.String("subject", job.SubjectID),
		logger.String("reason", job.Reason),
	)
	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	started   atomic.Bool
	active    atomic.Int64
	processed atomic.Int64
	failed    atomic.Int64

	logger logger.Logger
}

// NewPool creates a worker pool. workerCount < 1 means one worker per CPU.
func NewPool(workerCount int, q Queue, r Recomputer) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range p.workers {
		p.workers[i] = NewInMemoryWorker(q, countingRecomputer{p, r},
			WithName("worker-"+strconv.Itoa(i)),
			withOnDone(p.record),
		)
	}
	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateWorkerActiveCount(0)
	return p
}

// countingRecomputer tracks how many workers are busy.
type countingRecomputer struct {
	p *Pool
	r Recomputer
}

func (c countingRecomputer) Recompute(ctx context.Context, periodID, subjectID string) error {
	metrics.UpdateWorkerActiveCount(int(c.p.active.Add(1)))
	defer func() { metrics.UpdateWorkerActiveCount(int(c.p.active.Add(-1))) }()
	return c.r.Recompute(ctx, periodID, subjectID)
}

func (p *Pool) record(err error) {
	if err != nil {
		p.failed.Add(1)
		return
	}
	p.processed.Add(1)
}

// Start starts all workers.
func (p *Pool) Start(ctx context.Context) {
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Processed returns how many jobs succeeded.
func (p *Pool) Processed() int64 { return p.processed.Load() }

// Failed returns how many jobs failed.
func (p *Pool) Failed() int64 { return p.failed.Load() }

// Shutdown closes the queue and lets the workers drain it. Workers still
// busy when ctx (or the pool timeout) expires are stopped.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}
	if !p.started.Load() {
		return nil
	}

	drainCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-drainCtx.Done():
			p.logger.Warn(ctx, "worker did not drain in time", logger.Int("worker_id", i))
			_ = w.Shutdown(context.Background())
		}
	}
	metrics.UpdateWorkerCount(0)
	return nil
}
