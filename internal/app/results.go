package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/appraisal/internal/adapters/cache"
	"github.com/okian/appraisal/internal/adapters/repository"
	"github.com/okian/appraisal/internal/domain/consolidate"
	"github.com/okian/appraisal/internal/domain/instrument"
	"github.com/okian/appraisal/internal/domain/model"
	"github.com/okian/appraisal/internal/domain/ninebox"
	"github.com/okian/appraisal/internal/domain/scoring"
	"github.com/okian/appraisal/pkg/logger"
	"github.com/okian/appraisal/pkg/metrics"
)

// Results returns the current results of a subject in a period: one
// evaluation per assigned supervisor in assignment order (a single
// self-only evaluation when none is assigned) and their consolidation once
// a supervisor has submitted. Fresh results are stored and re-ranked.
//
// It fails with scoring.ErrInsufficientData until a response set carrying
// performance ratings has been submitted; any results stored earlier are
// then dropped along with the subject's dashboard row.
func (s *Service) Results(ctx context.Context, periodID, subjectID string) (repository.Results, error) {
	mu := s.stripe(periodID, subjectID)
	mu.Lock()
	defer mu.Unlock()

	sub, in, err := s.subjectInstrument(ctx, subjectID)
	if err != nil {
		return repository.Results{}, err
	}
	sets := s.store.SubjectResponses(ctx, periodID, subjectID)
	key := cache.Fingerprint(sub, in.ID, in.Weights(s.engine.Weights()), periodID, sets)
	if r, ok := s.results.Get(key); ok {
		return r, nil
	}

	start := time.Now()
	r, err := s.evaluate(sub, in, periodID, sets)
	if errors.Is(err, scoring.ErrInsufficientData) {
		// Whatever was stored before no longer applies.
		if derr := s.store.DeleteResults(ctx, periodID, subjectID); derr != nil {
			return repository.Results{}, errors.Join(err, derr)
		}
		return repository.Results{}, err
	}
	if err != nil {
		return repository.Results{}, err
	}
	metrics.RecordEvaluationLatency(float64(time.Since(start).Microseconds()) / 1000)

	if err := s.store.PutResults(ctx, r); err != nil {
		return repository.Results{}, err
	}
	s.results.Add(key, r)
	return r, nil
}

// evaluate builds the results of one subject from its submitted sets.
func (s *Service) evaluate(sub model.Subject, in instrument.Instrument, periodID string, sets []*model.ResponseSet) (repository.Results, error) {
	var self *model.ResponseSet
	submitted := make(map[string]*model.ResponseSet)
	for _, rs := range sets {
		if !rs.Submitted {
			continue
		}
		switch rs.Role {
		case model.RoleSelf:
			self = rs
		case model.RoleSupervisor:
			submitted[rs.EvaluatorID] = rs
		}
	}

	supervisors := make([]consolidate.Supervisor, 0, len(sub.Supervisors))
	for _, a := range sub.Supervisors {
		supervisors = append(supervisors, consolidate.Supervisor{Assignment: a, Set: submitted[a.EvaluatorID]})
	}

	a, err := consolidate.Appraise(s.engine, in, sub.ID, periodID, self, supervisors)
	for range a.Skipped {
		metrics.RecordInsufficientData()
	}
	if err != nil {
		return repository.Results{}, err
	}
	for _, res := range a.Evaluations {
		recordEvaluation(res)
	}
	if a.Consolidated != nil {
		metrics.RecordConsolidation()
	}
	return repository.Results{
		SubjectID:    sub.ID,
		PeriodID:     periodID,
		Evaluations:  a.Evaluations,
		Consolidated: a.Consolidated,
		ComputedAt:   time.Now(),
	}, nil
}

func recordEvaluation(res model.FinalResult) {
	metrics.RecordEvaluation()
	if res.Cell != nil {
		metrics.RecordClassification(res.Cell.String())
		return
	}
	metrics.RecordUnclassified()
}

// Consolidated returns the consolidation of a subject's supervisor results.
// It fails with consolidate.ErrEmptyConsolidationSet while no assigned
// supervisor has submitted.
func (s *Service) Consolidated(ctx context.Context, periodID, subjectID string) (model.ConsolidatedResult, error) {
	r, err := s.Results(ctx, periodID, subjectID)
	if err != nil {
		return model.ConsolidatedResult{}, err
	}
	if r.Consolidated == nil {
		return model.ConsolidatedResult{}, fmt.Errorf("%s/%s: %w", periodID, subjectID, consolidate.ErrEmptyConsolidationSet)
	}
	return *r.Consolidated, nil
}

// Recompute refreshes the stored results of a subject. A subject that has
// nothing to score yet is not an error.
func (s *Service) Recompute(ctx context.Context, periodID, subjectID string) error {
	_, err := s.Results(ctx, periodID, subjectID)
	if errors.Is(err, scoring.ErrInsufficientData) {
		return nil
	}
	return err
}

// RecomputePeriod recomputes every subject for a period with bounded
// concurrency and returns how many subjects were processed. It stops at the
// first failure.
func (s *Service) RecomputePeriod(ctx context.Context, periodID string) (int, error) {
	subjects := s.store.Subjects(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.recomputeConcurrency)

	var done atomic.Int64
	for _, sub := range subjects {
		g.Go(func() error {
			if err := s.Recompute(gctx, periodID, sub.ID); err != nil {
				return fmt.Errorf("recompute %s/%s: %w", periodID, sub.ID, err)
			}
			done.Add(1)
			return nil
		})
	}
	err := g.Wait()

	s.logger.Info(ctx, "period recomputed",
		logger.String("period", periodID),
		logger.Int("subjects", len(subjects)),
		logger.Int64("processed", done.Load()),
	)
	return int(done.Load()), err
}

// Grid places every subject with stored results for a period in the
// nine-box grid. Subjects without a cell are listed as excluded.
func (s *Service) Grid(ctx context.Context, periodID string) *ninebox.Grid {
	g := ninebox.NewGrid()
	for _, r := range s.store.PeriodResults(ctx, periodID) {
		perf, pot, cell, ok := r.Headline()
		if !ok {
			continue
		}
		g.Add(r.SubjectID, perf, pot, cell)
	}
	return g
}

// TopN returns the dashboard ranking of a period. n is capped at the
// configured leaderboard limit.
func (s *Service) TopN(ctx context.Context, periodID string, n int) ([]repository.Entry, error) {
	if n > s.maxLimit {
		n = s.maxLimit
	}
	return s.store.TopN(ctx, periodID, n)
}

// Rank returns one subject's dashboard row.
func (s *Service) Rank(ctx context.Context, periodID, subjectID string) (repository.Entry, error) {
	return s.store.Rank(ctx, periodID, subjectID)
}

// Periods lists the periods with stored results.
func (s *Service) Periods(ctx context.Context) []string {
	return s.store.Periods(ctx)
}
