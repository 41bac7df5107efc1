package service

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/okian/appraisal/internal/adapters/repository"
	"github.com/okian/appraisal/internal/domain/instrument"
	"github.com/okian/appraisal/internal/domain/model"
	"github.com/okian/appraisal/internal/domain/progress"
	"github.com/okian/appraisal/internal/domain/types"
	"github.com/okian/appraisal/pkg/logger"
	"github.com/okian/appraisal/pkg/metrics"
)

// PutSubject creates or replaces a subject. Its level must have an
// instrument. Existing results of the subject are recomputed since the
// supervisor assignments may have changed.
func (s *Service) PutSubject(ctx context.Context, sub model.Subject) error {
	if err := sub.Validate(); err != nil {
		return err
	}
	if _, err := s.catalog.Lookup(sub.Level); err != nil {
		return fmt.Errorf("subject %s: %w", sub.ID, err)
	}
	if err := s.store.PutSubject(ctx, sub); err != nil {
		return err
	}

	for _, periodID := range s.store.Periods(ctx) {
		if _, err := s.store.Results(ctx, periodID, sub.ID); err == nil {
			s.scheduleRecompute(ctx, periodID, sub.ID, "subject_updated")
		}
	}
	return nil
}

// Subject returns a subject.
func (s *Service) Subject(ctx context.Context, id string) (model.Subject, error) {
	return s.store.Subject(ctx, id)
}

// Subjects returns every subject ordered by id.
func (s *Service) Subjects(ctx context.Context) []model.Subject {
	return s.store.Subjects(ctx)
}

func (s *Service) subjectInstrument(ctx context.Context, subjectID string) (model.Subject, instrument.Instrument, error) {
	sub, err := s.store.Subject(ctx, subjectID)
	if err != nil {
		return model.Subject{}, instrument.Instrument{}, err
	}
	in, err := s.catalog.Lookup(sub.Level)
	if err != nil {
		return model.Subject{}, instrument.Instrument{}, fmt.Errorf("subject %s: %w", sub.ID, err)
	}
	return sub, in, nil
}

// normalizeKey validates key and drops the redundant evaluator id of a
// self-evaluation so both spellings address the same set.
func normalizeKey(key model.ResponseKey) (model.ResponseKey, error) {
	key.Role = model.Role(strings.ToLower(strings.TrimSpace(string(key.Role))))
	if err := key.Validate(); err != nil {
		return model.ResponseKey{}, err
	}
	if key.Role == model.RoleSelf {
		key.EvaluatorID = ""
	}
	return key, nil
}

// relationship returns the assignment relationship of a supervisor key.
func relationship(sub model.Subject, key model.ResponseKey) (model.Relationship, error) {
	if key.Role != model.RoleSupervisor {
		return "", nil
	}
	a, ok := sub.Assignment(key.EvaluatorID)
	if !ok {
		return "", fmt.Errorf("%s: %w", key, ErrNotAssigned)
	}
	return a.Relationship, nil
}

func validateRatings(in instrument.Instrument, ratings map[string]int, comments map[string]string) error {
	for _, id := range slices.Sorted(maps.Keys(ratings)) {
		if !in.HasItem(id) {
			return fmt.Errorf("%q in %s: %w", id, in.ID, ErrUnknownItem)
		}
		if v := ratings[id]; !in.Scale.Contains(v) {
			return fmt.Errorf("%q rated %d, scale %d..%d: %w", id, v, in.Scale.Min, in.Scale.Max, ErrRatingOutOfScale)
		}
	}
	for _, id := range slices.Sorted(maps.Keys(comments)) {
		if !in.HasItem(id) {
			return fmt.Errorf("comment on %q in %s: %w", id, in.ID, ErrUnknownItem)
		}
	}
	return nil
}

// SaveResponses merges ratings and comments into the set at key. Ratings
// must address items of the subject's instrument and lie on its scale.
// Saving never triggers scoring; only submitted sets feed results.
func (s *Service) SaveResponses(ctx context.Context, key model.ResponseKey, ratings map[string]int, comments map[string]string) (types.Saved, error) {
	key, err := normalizeKey(key)
	if err != nil {
		return types.Saved{}, err
	}
	sub, in, err := s.subjectInstrument(ctx, key.SubjectID)
	if err != nil {
		return types.Saved{}, err
	}
	rel, err := relationship(sub, key)
	if err != nil {
		return types.Saved{}, err
	}
	if err := validateRatings(in, ratings, comments); err != nil {
		return types.Saved{}, err
	}

	rs, err := s.store.SaveResponses(ctx, key, rel, ratings, comments)
	if err != nil {
		return types.Saved{}, err
	}
	return types.Saved{Set: rs, Progress: progress.CheckSet(rs, in)}, nil
}

// Responses returns the set at key.
func (s *Service) Responses(ctx context.Context, key model.ResponseKey) (*model.ResponseSet, error) {
	key, err := normalizeKey(key)
	if err != nil {
		return nil, err
	}
	return s.store.Responses(ctx, key)
}

// Progress reports how much of the instrument the set at key covers. A set
// that was never saved has answered nothing.
func (s *Service) Progress(ctx context.Context, key model.ResponseKey) (progress.Report, error) {
	key, err := normalizeKey(key)
	if err != nil {
		return progress.Report{}, err
	}
	_, in, err := s.subjectInstrument(ctx, key.SubjectID)
	if err != nil {
		return progress.Report{}, err
	}
	rs, err := s.store.Responses(ctx, key)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return progress.Report{}, err
	}
	return progress.CheckSet(rs, in), nil
}

// Submit freezes the set at key and schedules the subject's results to be
// recomputed. Only complete sets can be submitted. Repeating a call with
// the same submission id and key is a no-op reported as Duplicate; the same
// id sent for another key is a separate submission. An empty id gets a
// fresh one.
func (s *Service) Submit(ctx context.Context, key model.ResponseKey, submissionID string) (types.Submission, error) {
	key, err := normalizeKey(key)
	if err != nil {
		return types.Submission{}, err
	}
	if submissionID == "" {
		submissionID = uuid.NewString()
	}

	dedupeKey := submissionID + "|" + key.String()
	if s.deduper.SeenAndRecord(ctx, dedupeKey) {
		metrics.RecordSubmissionDuplicate()
		s.logger.Debug(ctx, "duplicate submission, skipping",
			logger.String("submissionID", submissionID),
			logger.String("key", key.String()),
		)
		rs, err := s.store.Responses(ctx, key)
		if err != nil {
			return types.Submission{}, err
		}
		return types.Submission{SubmissionID: submissionID, Set: rs, Duplicate: true}, nil
	}

	rs, err := s.submit(ctx, key)
	if err != nil {
		// Let the client retry with the same id once the problem is fixed.
		s.deduper.Unrecord(ctx, dedupeKey)
		return types.Submission{}, err
	}

	metrics.RecordSubmission(string(key.Role))
	s.logger.Info(ctx, "response set submitted",
		logger.String("submissionID", submissionID),
		logger.String("key", key.String()),
		logger.Int64("revision", rs.Revision),
	)
	s.scheduleRecompute(ctx, key.PeriodID, key.SubjectID, "submission")
	return types.Submission{SubmissionID: submissionID, Set: rs}, nil
}

func (s *Service) submit(ctx context.Context, key model.ResponseKey) (*model.ResponseSet, error) {
	sub, in, err := s.subjectInstrument(ctx, key.SubjectID)
	if err != nil {
		return nil, err
	}
	if _, err := relationship(sub, key); err != nil {
		return nil, err
	}
	rs, err := s.store.Responses(ctx, key)
	if err != nil {
		return nil, err
	}
	if rs.Submitted {
		return nil, fmt.Errorf("%s: %w", key, repository.ErrSubmitted)
	}
	if rep := progress.CheckSet(rs, in); !rep.Complete() {
		return nil, fmt.Errorf("%s: %w: %d of %d items answered, missing in %s",
			key, ErrIncomplete, rep.AnsweredItems, rep.TotalItems,
			strings.Join(rep.IncompleteDimensions(), ", "))
	}
	return s.store.Submit(ctx, key)
}
