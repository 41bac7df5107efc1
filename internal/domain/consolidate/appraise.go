package consolidate

import (
	"errors"
	"fmt"

	"github.com/okian/appraisal/internal/domain/instrument"
	"github.com/okian/appraisal/internal/domain/model"
	"github.com/okian/appraisal/internal/domain/scoring"
)

// Supervisor pairs an assignment with the set its evaluator submitted, nil
// while nothing was submitted.
type Supervisor struct {
	Assignment model.Assignment
	Set        *model.ResponseSet
}

// Appraisal is the full outcome for one subject in one period.
type Appraisal struct {
	Evaluations  []model.FinalResult
	Consolidated *model.ConsolidatedResult

	// Skipped counts the pairings left out for lack of performance data.
	Skipped int
}

// Appraise evaluates the self set against each supervisor in assignment
// order, or on its own when no supervisor is assigned, and consolidates
// the evaluations once a supervisor has submitted. Pairings without any
// performance data are skipped; if none remains it fails with
// scoring.ErrInsufficientData. Skipped is set even when it fails.
func Appraise(e *scoring.Engine, in instrument.Instrument, subjectID, periodID string,
	self *model.ResponseSet, supervisors []Supervisor,
) (Appraisal, error) {
	out := Appraisal{Evaluations: []model.FinalResult{}}

	if len(supervisors) == 0 {
		res, err := e.Evaluate(in, self, nil)
		if err != nil {
			if errors.Is(err, scoring.ErrInsufficientData) {
				out.Skipped++
			}
			return out, fmt.Errorf("%s/%s: %w", periodID, subjectID, err)
		}
		res.SubjectID, res.PeriodID = subjectID, periodID
		out.Evaluations = append(out.Evaluations, res)
		return out, nil
	}

	for _, s := range supervisors {
		a := s.Assignment
		res, err := e.Evaluate(in, self, s.Set)
		if errors.Is(err, scoring.ErrInsufficientData) {
			out.Skipped++
			continue
		}
		if err != nil {
			return out, fmt.Errorf("%s/%s by %s: %w", periodID, subjectID, a.EvaluatorID, err)
		}
		res.SubjectID, res.PeriodID = subjectID, periodID
		res.EvaluatorID, res.Relationship = a.EvaluatorID, a.Relationship
		out.Evaluations = append(out.Evaluations, res)
	}
	if len(out.Evaluations) == 0 {
		return out, fmt.Errorf("%s/%s: %w", periodID, subjectID, scoring.ErrInsufficientData)
	}

	c, err := Consolidate(out.Evaluations)
	switch {
	case err == nil:
		out.Consolidated = &c
	case errors.Is(err, ErrEmptyConsolidationSet):
		// no supervisor has submitted yet
	default:
		return out, err
	}
	return out, nil
}
