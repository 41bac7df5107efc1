// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"hash/fnv"
	"runtime"
	"sync"

	"github.com/okian/appraisal/internal/adapters/cache"
	"github.com/okian/appraisal/internal/adapters/mq/queue"
	"github.com/okian/appraisal/internal/adapters/mq/worker"
	"github.com/okian/appraisal/internal/adapters/repository"
	"github.com/okian/appraisal/internal/domain/dedupe"
	"github.com/okian/appraisal/internal/domain/instrument"
	"github.com/okian/appraisal/internal/domain/model"
	"github.com/okian/appraisal/internal/domain/scoring"
	"github.com/okian/appraisal/pkg/logger"
	"github.com/okian/appraisal/pkg/metrics"
)

const (
	defaultQueueSize           = 10_000
	defaultDedupeSize          = 50_000
	defaultCacheSize           = 4096
	defaultMaxLeaderboardLimit = 100

	// subjectStripes is the number of locks serializing result computation.
	subjectStripes = 64
)

// Service implements the API dependencies for the appraisal engine.
type Service struct {
	mu sync.RWMutex

	// Core components
	store   repository.Store
	catalog *instrument.Catalog
	engine  *scoring.Engine
	results *cache.ResultCache
	deduper dedupe.Deduper
	queue   *queue.InMemoryQueue
	pool    *worker.Pool
	cancel  context.CancelFunc

	// Results of one subject are computed and stored under one stripe so an
	// older computation never overwrites a newer one.
	stripes [subjectStripes]sync.Mutex

	// Configuration
	workerCount          int
	queueSize            int
	dedupeSize           int
	cacheSize            int
	maxLimit             int
	recomputeConcurrency int
	weights              model.EvaluatorWeights

	// State
	started bool

	// Logging
	logger logger.Logger
}

var _ worker.Recomputer = (*Service)(nil)

// New constructs a Service. Storage, scoring and caching are usable right
// away; the recompute workers run only between Start and Shutdown.
func New(opts ...Option) (*Service, error) {
	s := &Service{
		workerCount:          runtime.NumCPU(),
		queueSize:            defaultQueueSize,
		dedupeSize:           defaultDedupeSize,
		cacheSize:            defaultCacheSize,
		maxLimit:             defaultMaxLeaderboardLimit,
		recomputeConcurrency: runtime.NumCPU() * 2,
		weights:              model.DefaultEvaluatorWeights(),
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.catalog == nil {
		c, err := instrument.Default()
		if err != nil {
			return nil, fmt.Errorf("default instruments: %w", err)
		}
		s.catalog = c
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}

	engine, err := scoring.NewEngine(scoring.WithEvaluatorWeights(s.weights))
	if err != nil {
		return nil, fmt.Errorf("scoring engine: %w", err)
	}
	s.engine = engine

	rc, err := cache.New(cache.WithSize(s.cacheSize))
	if err != nil {
		return nil, fmt.Errorf("result cache: %w", err)
	}
	s.results = rc

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	return s, nil
}

// Start starts the recompute queue and workers. Workers outlive ctx; they
// stop on Shutdown.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting appraisal service...")

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.queue, s)
	s.pool.Start(runCtx)
	s.cancel = cancel

	s.started = true
	s.logger.Info(ctx, "appraisal service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("cacheSize", s.cacheSize),
		logger.Int("instruments", s.catalog.Len()),
	)

	return nil
}

// Shutdown stops accepting recompute jobs, drains the queue and stops the
// workers. Calling it on a stopped service is a no-op.
func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	pool, cancel := s.pool, s.cancel
	s.started = false
	s.mu.Unlock()

	s.logger.Info(ctx, "stopping appraisal service...")
	err := pool.Shutdown(ctx)
	cancel()
	s.logger.Info(ctx, "appraisal service stopped",
		logger.Int64("processed", pool.Processed()),
		logger.Int64("failed", pool.Failed()),
	)
	return err
}

// scheduleRecompute hands a subject to the workers, or recomputes it in
// place when the service is not running or the queue refuses the job.
func (s *Service) scheduleRecompute(ctx context.Context, periodID, subjectID, reason string) {
	s.mu.RLock()
	q, started := s.queue, s.started
	s.mu.RUnlock()

	if started {
		err := q.Enqueue(ctx, queue.NewJob(periodID, subjectID, reason))
		if err == nil {
			return
		}
		s.logger.Warn(ctx, "recompute not queued, running inline",
			logger.String("period", periodID),
			logger.String("subject", subjectID),
			logger.Error(err),
		)
	}
	if err := s.Recompute(ctx, periodID, subjectID); err != nil {
		s.logger.Error(ctx, "recompute failed",
			logger.String("period", periodID),
			logger.String("subject", subjectID),
			logger.Error(err),
		)
	}
}

func (s *Service) stripe(periodID, subjectID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(periodID))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(subjectID))
	return &s.stripes[h.Sum32()%subjectStripes]
}

// Instrument returns the instrument of a job level.
func (s *Service) Instrument(level string) (instrument.Instrument, error) {
	return s.catalog.Lookup(level)
}

// Levels lists the job levels that have an instrument.
func (s *Service) Levels() []string { return s.catalog.Levels() }

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":          s.started,
		"workerCount":      s.workerCount,
		"queueSize":        s.queueSize,
		"dedupeSize":       s.dedupeSize,
		"dedupeEntries":    s.deduper.Size(),
		"cacheSize":        s.cacheSize,
		"cachedResults":    s.results.Len(),
		"instruments":      s.catalog.Len(),
		"subjects":         len(s.store.Subjects(ctx)),
		"supervisorWeight": s.weights.Supervisor,
		"selfWeight":       s.weights.Self,
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		stats["queueLength"] = queueLen
		stats["processedJobs"] = s.pool.Processed()
		stats["failedJobs"] = s.pool.Failed()

		metrics.UpdateQueueSize(queueLen)
	}

	return stats
}
