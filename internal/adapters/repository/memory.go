package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/okian/appraisal/internal/domain/model"
	"github.com/okian/appraisal/pkg/metrics"
)

type periodSubject struct {
	periodID  string
	subjectID string
}

// MemoryStore is an in-memory Store. All methods are safe for concurrent
// use; writers to the same response set are serialized by one RWMutex.
type MemoryStore struct {
	mu        sync.RWMutex
	subjects  map[string]model.Subject
	responses map[model.ResponseKey]*model.ResponseSet
	results   map[periodSubject]Results
	boards    map[string]*board
	now       func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore constructs an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		subjects:  make(map[string]model.Subject),
		responses: make(map[model.ResponseKey]*model.ResponseSet),
		results:   make(map[periodSubject]Results),
		boards:    make(map[string]*board),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func observeUpdate(start time.Time) {
	metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Microseconds()) / 1000)
}

func observeQuery(start time.Time) {
	metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
}

// PutSubject creates or replaces a subject.
func (s *MemoryStore) PutSubject(_ context.Context, sub model.Subject) error {
	defer observeUpdate(time.Now())
	if err := sub.Validate(); err != nil {
		return err
	}
	sub.Supervisors = append([]model.Assignment(nil), sub.Supervisors...)

	s.mu.Lock()
	s.subjects[sub.ID] = sub
	n := len(s.subjects)
	s.mu.Unlock()

	metrics.UpdateRepositoryRecords("subjects", n)
	return nil
}

// Subject returns a subject. ErrNotFound if unknown.
func (s *MemoryStore) Subject(_ context.Context, id string) (model.Subject, error) {
	defer observeQuery(time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.subjects[id]
	if !ok {
		return model.Subject{}, fmt.Errorf("subject %q: %w", id, ErrNotFound)
	}
	sub.Supervisors = append([]model.Assignment(nil), sub.Supervisors...)
	return sub, nil
}

// Subjects returns every subject ordered by id.
func (s *MemoryStore) Subjects(_ context.Context) []model.Subject {
	s.mu.RLock()
	out := make([]model.Subject, 0, len(s.subjects))
	for _, sub := range s.subjects {
		sub.Supervisors = append([]model.Assignment(nil), sub.Supervisors...)
		out = append(out, sub)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SaveResponses merges ratings and comments into a set.
func (s *MemoryStore) SaveResponses(_ context.Context, key model.ResponseKey, rel model.Relationship, ratings map[string]int, comments map[string]string) (*model.ResponseSet, error) {
	defer observeUpdate(time.Now())
	if err := key.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rs, ok := s.responses[key]
	if !ok {
		rs = &model.ResponseSet{ResponseKey: key, Ratings: map[string]int{}}
		s.responses[key] = rs
		metrics.UpdateRepositoryRecords("response_sets", len(s.responses))
	}
	if rs.Submitted {
		return nil, fmt.Errorf("%s: %w", key, ErrSubmitted)
	}
	if rel != "" {
		rs.Relationship = rel
	}
	for id, v := range ratings {
		rs.Ratings[id] = v
	}
	for id, c := range comments {
		if rs.Comments == nil {
			rs.Comments = map[string]string{}
		}
		rs.Comments[id] = c
	}
	rs.Revision++
	rs.UpdatedAt = s.now()
	return rs.Clone(), nil
}

// Responses returns a snapshot of one set. ErrNotFound if it was never
// saved.
func (s *MemoryStore) Responses(_ context.Context, key model.ResponseKey) (*model.ResponseSet, error) {
	defer observeQuery(time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()

	rs, ok := s.responses[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	return rs.Clone(), nil
}

// SubjectResponses returns snapshots of every set of a subject in a period,
// self first, then supervisors by evaluator id.
func (s *MemoryStore) SubjectResponses(_ context.Context, periodID, subjectID string) []*model.ResponseSet {
	defer observeQuery(time.Now())
	s.mu.RLock()
	var out []*model.ResponseSet
	for k, rs := range s.responses {
		if k.PeriodID == periodID && k.SubjectID == subjectID {
			out = append(out, rs.Clone())
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Role != out[j].Role {
			return out[i].Role == model.RoleSelf
		}
		return out[i].EvaluatorID < out[j].EvaluatorID
	})
	return out
}

// Submit freezes a set. ErrNotFound if it was never saved, ErrSubmitted if
// it is already frozen.
func (s *MemoryStore) Submit(_ context.Context, key model.ResponseKey) (*model.ResponseSet, error) {
	defer observeUpdate(time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()

	rs, ok := s.responses[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	if rs.Submitted {
		return nil, fmt.Errorf("%s: %w", key, ErrSubmitted)
	}
	rs.Submitted = true
	rs.SubmittedAt = s.now()
	rs.Revision++
	return rs.Clone(), nil
}

// PutResults replaces the results of a subject and re-ranks it. A subject
// whose results carry no headline figure leaves the ranking.
func (s *MemoryStore) PutResults(_ context.Context, r Results) error {
	defer observeUpdate(time.Now())
	if r.PeriodID == "" || r.SubjectID == "" {
		return fmt.Errorf("%w: results need subject and period", model.ErrInvalidKey)
	}
	if r.ComputedAt.IsZero() {
		r.ComputedAt = s.now()
	}

	s.mu.Lock()
	s.results[periodSubject{r.PeriodID, r.SubjectID}] = cloneResults(r)
	b, ok := s.boards[r.PeriodID]
	if !ok {
		b = newBoard()
		s.boards[r.PeriodID] = b
	}
	if perf, _, _, ok := r.Headline(); ok {
		b.upsert(r.SubjectID, perf)
	} else {
		b.remove(r.SubjectID)
	}
	total := s.rankedLocked()
	s.mu.Unlock()

	metrics.UpdateLeaderboardEntries(total)
	return nil
}

// DeleteResults drops a subject's results and its ranking row. Deleting
// results that do not exist is a no-op.
func (s *MemoryStore) DeleteResults(_ context.Context, periodID, subjectID string) error {
	defer observeUpdate(time.Now())

	s.mu.Lock()
	delete(s.results, periodSubject{periodID, subjectID})
	if b, ok := s.boards[periodID]; ok {
		b.remove(subjectID)
	}
	total := s.rankedLocked()
	s.mu.Unlock()

	metrics.UpdateLeaderboardEntries(total)
	return nil
}

// rankedLocked counts ranked subjects across periods.
func (s *MemoryStore) rankedLocked() int {
	total := 0
	for _, b := range s.boards {
		total += b.count()
	}
	return total
}

// Results returns the last computed results. ErrNotFound if none.
func (s *MemoryStore) Results(_ context.Context, periodID, subjectID string) (Results, error) {
	defer observeQuery(time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.results[periodSubject{periodID, subjectID}]
	if !ok {
		return Results{}, fmt.Errorf("results %s/%s: %w", periodID, subjectID, ErrNotFound)
	}
	return cloneResults(r), nil
}

// PeriodResults returns all results of a period ordered by subject id.
func (s *MemoryStore) PeriodResults(_ context.Context, periodID string) []Results {
	defer observeQuery(time.Now())
	s.mu.RLock()
	var out []Results
	for k, r := range s.results {
		if k.periodID == periodID {
			out = append(out, cloneResults(r))
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].SubjectID < out[j].SubjectID })
	return out
}

// Periods lists the periods that have results.
func (s *MemoryStore) Periods(_ context.Context) []string {
	s.mu.RLock()
	out := make([]string, 0, len(s.boards))
	for p := range s.boards {
		out = append(out, p)
	}
	s.mu.RUnlock()

	sort.Strings(out)
	return out
}

// TopN returns the top n dashboard rows of a period.
func (s *MemoryStore) TopN(_ context.Context, periodID string, n int) ([]Entry, error) {
	defer observeQuery(time.Now())
	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.boards[periodID]
	if !ok {
		return []Entry{}, nil
	}
	rows := b.top(n)
	out := make([]Entry, len(rows))
	for i, row := range rows {
		out[i] = s.entryLocked(periodID, row)
	}
	return out, nil
}

// Rank returns one subject's dashboard row.
func (s *MemoryStore) Rank(_ context.Context, periodID, subjectID string) (Entry, error) {
	defer observeQuery(time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.boards[periodID]
	if !ok {
		return Entry{}, fmt.Errorf("rank %s/%s: %w", periodID, subjectID, ErrNotFound)
	}
	rank, score, ok := b.rank(subjectID)
	if !ok {
		return Entry{}, fmt.Errorf("rank %s/%s: %w", periodID, subjectID, ErrNotFound)
	}
	return s.entryLocked(periodID, rankedRow{id: subjectID, score: score, rank: rank}), nil
}

// Count returns how many subjects of a period are ranked.
func (s *MemoryStore) Count(_ context.Context, periodID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if b, ok := s.boards[periodID]; ok {
		return b.count()
	}
	return 0
}

func (s *MemoryStore) entryLocked(periodID string, row rankedRow) Entry {
	e := Entry{Rank: row.rank, SubjectID: row.id, Performance: row.score}
	if r, ok := s.results[periodSubject{periodID, row.id}]; ok {
		_, pot, cell, _ := r.Headline()
		if pot != nil {
			v := *pot
			e.Potential = &v
		}
		if cell != nil {
			k := *cell
			e.Cell = &k
		}
	}
	return e
}

// cloneResults copies the slices; the FinalResults themselves are never
// modified once computed.
func cloneResults(r Results) Results {
	r.Evaluations = append([]model.FinalResult(nil), r.Evaluations...)
	if r.Consolidated != nil {
		c := *r.Consolidated
		c.Evaluators = append([]string(nil), c.Evaluators...)
		c.Excluded = append([]string(nil), c.Excluded...)
		r.Consolidated = &c
	}
	return r
}
