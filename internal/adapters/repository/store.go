// Package repository stores subjects, response sets and computed results,
// and ranks subjects per period for dashboards.
package repository

import (
	"context"
	"time"

	"github.com/okian/appraisal/internal/domain/model"
	"github.com/okian/appraisal/internal/domain/ninebox"
)

// Entry is one dashboard row.
type Entry struct {
	Rank        int          `json:"rank"`
	SubjectID   string       `json:"subject_id"`
	Performance float64      `json:"performance"`
	Potential   *float64     `json:"potential,omitempty"`
	Cell        *ninebox.Key `json:"cell,omitempty"`
}

// Results is what was last computed for one subject in one period.
type Results struct {
	SubjectID string `json:"subject_id"`
	PeriodID  string `json:"period_id"`
	// Evaluations holds one result per supervisor in assignment order, or a
	// single self-only result when no supervisor is assigned.
	Evaluations  []model.FinalResult       `json:"evaluations"`
	Consolidated *model.ConsolidatedResult `json:"consolidated,omitempty"`
	ComputedAt   time.Time                 `json:"computed_at"`
}

// Headline returns the figures a dashboard shows for the subject: the
// consolidated ones when several supervisors submitted, otherwise the
// single authoritative result. With no supervisor submitted it falls back
// to the self-only figures.
func (r Results) Headline() (perf float64, pot *float64, cell *ninebox.Key, ok bool) {
	if c := r.Consolidated; c != nil && c.EvaluatorCount > 1 {
		return c.MeanPerformance, c.MeanPotential, c.ModalCell, true
	}
	for _, e := range r.Evaluations {
		if e.SupervisorPending && len(r.Evaluations) > 1 {
			continue
		}
		return e.Performance, e.Potential, e.Cell, true
	}
	if len(r.Evaluations) > 0 {
		e := r.Evaluations[0]
		return e.Performance, e.Potential, e.Cell, true
	}
	return 0, nil, nil, false
}

// SubjectStore holds evaluated people and their supervisor assignments.
type SubjectStore interface {
	PutSubject(ctx context.Context, s model.Subject) error
	Subject(ctx context.Context, id string) (model.Subject, error)
	Subjects(ctx context.Context) []model.Subject
}

// ResponseStore holds response sets. Returned sets are snapshots the caller
// may keep; they never change under it.
type ResponseStore interface {
	// SaveResponses merges ratings and comments into the set at key,
	// creating it when missing. It fails with ErrSubmitted once the set is
	// frozen.
	SaveResponses(ctx context.Context, key model.ResponseKey, rel model.Relationship, ratings map[string]int, comments map[string]string) (*model.ResponseSet, error)
	Responses(ctx context.Context, key model.ResponseKey) (*model.ResponseSet, error)
	// SubjectResponses returns every set of a subject in a period.
	SubjectResponses(ctx context.Context, periodID, subjectID string) []*model.ResponseSet
	// Submit freezes the set at key.
	Submit(ctx context.Context, key model.ResponseKey) (*model.ResponseSet, error)
}

// ResultStore holds computed results and the ranking derived from them.
type ResultStore interface {
	PutResults(ctx context.Context, r Results) error
	// DeleteResults drops a subject's results and ranking row, used when
	// the subject can no longer be scored.
	DeleteResults(ctx context.Context, periodID, subjectID string) error
	Results(ctx context.Context, periodID, subjectID string) (Results, error)
	PeriodResults(ctx context.Context, periodID string) []Results
	Periods(ctx context.Context) []string

	// TopN returns the top n subjects of a period by performance desc,
	// subject id asc.
	TopN(ctx context.Context, periodID string, n int) ([]Entry, error)
	// Rank returns one subject's row. ErrNotFound if it has no result.
	Rank(ctx context.Context, periodID, subjectID string) (Entry, error)
	Count(ctx context.Context, periodID string) int
}

// Store is the full storage surface used by the service.
type Store interface {
	SubjectStore
	ResponseStore
	ResultStore
}
