package service

import (
	"github.com/okian/appraisal/internal/adapters/repository"
	"github.com/okian/appraisal/internal/domain/instrument"
	"github.com/okian/appraisal/internal/domain/model"
	"github.com/okian/appraisal/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of recompute workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the recompute queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many submission ids are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithCacheSize sets how many computed results are memoized.
func WithCacheSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.cacheSize = size
		}
	}
}

// WithMaxLeaderboardLimit caps the n accepted by TopN.
func WithMaxLeaderboardLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.maxLimit = limit
		}
	}
}

// WithRecomputeConcurrency bounds the fan-out of RecomputePeriod.
func WithRecomputeConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.recomputeConcurrency = n
		}
	}
}

// WithEvaluatorWeights sets the default supervisor/self split. Instruments
// may still override it.
func WithEvaluatorWeights(w model.EvaluatorWeights) Option {
	return func(s *Service) {
		s.weights = w
	}
}

// WithCatalog sets the instrument catalog. The embedded default catalog is
// used otherwise.
func WithCatalog(c *instrument.Catalog) Option {
	return func(s *Service) {
		if c != nil {
			s.catalog = c
		}
	}
}

// WithStore sets the storage backend.
func WithStore(st repository.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.store = st
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
