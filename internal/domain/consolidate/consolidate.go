// Package consolidate merges the results of several supervisors who
// evaluated the same subject in the same period.
//
// Continuous scores are averaged before rounding. The nine-box cell is the mode of the
// cells each evaluator's result was classified into on its own; the mean
// scores are never re-classified.
package consolidate

import (
	"fmt"

	"github.com/okian/appraisal/internal/domain/model"
	"github.com/okian/appraisal/internal/domain/ninebox"
	"github.com/okian/appraisal/internal/domain/scoring"
)

// tally counts the votes for one cell.
type tally struct {
	key     ninebox.Key
	count   int
	bestRel int // highest relationship rank among the voters
	first   int // input position of the earliest voter
}

// Consolidate merges per-supervisor results in assignment order. Results
// whose supervisor has not submitted yet are excluded and listed in
// Excluded. It fails with ErrEmptyConsolidationSet when nothing remains and
// with ErrMixedResults when the inputs span subjects or periods.
//
// The mean fields do not depend on input order. The modal cell is chosen by
// vote count, then strategic importance, then retention priority, then the
// strongest supervisor relationship, then the earliest assignment.
func Consolidate(results []model.FinalResult) (model.ConsolidatedResult, error) {
	if len(results) == 0 {
		return model.ConsolidatedResult{}, ErrEmptyConsolidationSet
	}
	out := model.ConsolidatedResult{
		SubjectID:  results[0].SubjectID,
		PeriodID:   results[0].PeriodID,
		Evaluators: []string{},
	}

	var perf, pot []float64
	votes := make(map[ninebox.Key]*tally)
	for i, r := range results {
		if r.SubjectID != out.SubjectID || r.PeriodID != out.PeriodID {
			return model.ConsolidatedResult{}, fmt.Errorf("%w: %s/%s and %s/%s",
				ErrMixedResults, out.PeriodID, out.SubjectID, r.PeriodID, r.SubjectID)
		}
		if r.SupervisorPending || r.EvaluatorID == "" {
			if r.EvaluatorID != "" {
				out.Excluded = append(out.Excluded, r.EvaluatorID)
			}
			continue
		}
		out.Evaluators = append(out.Evaluators, r.EvaluatorID)
		perf = append(perf, r.ExactPerformance())
		if p := r.ExactPotential(); p != nil {
			pot = append(pot, *p)
		}
		if r.Cell != nil {
			t, ok := votes[*r.Cell]
			if !ok {
				t = &tally{key: *r.Cell, first: i, bestRel: -1}
				votes[*r.Cell] = t
			}
			t.count++
			if rank := r.Relationship.Rank(); rank > t.bestRel {
				t.bestRel = rank
			}
		}
	}

	if len(out.Evaluators) == 0 {
		return model.ConsolidatedResult{}, fmt.Errorf("%w: no submitted supervisor result for %s/%s",
			ErrEmptyConsolidationSet, out.PeriodID, out.SubjectID)
	}
	out.EvaluatorCount = len(out.Evaluators)

	m, _ := scoring.Mean(perf)
	out.MeanPerformance = scoring.Round(m)
	if m, ok := scoring.Mean(pot); ok {
		v := scoring.Round(m)
		out.MeanPotential = &v
	}
	if best := modal(votes); best != nil {
		k := best.key
		out.ModalCell = &k
	}
	return out, nil
}

func modal(votes map[ninebox.Key]*tally) *tally {
	var best *tally
	for _, t := range votes {
		if best == nil || beats(t, best) {
			best = t
		}
	}
	return best
}

// beats reports whether a wins the mode against b.
func beats(a, b *tally) bool {
	if a.count != b.count {
		return a.count > b.count
	}
	ca, cb := ninebox.Lookup(a.key), ninebox.Lookup(b.key)
	if ca.Outranks(cb) {
		return true
	}
	if cb.Outranks(ca) {
		return false
	}
	if a.bestRel != b.bestRel {
		return a.bestRel > b.bestRel
	}
	return a.first < b.first
}
