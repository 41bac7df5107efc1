// Package types contains common types used across the application
package types

import (
	"github.com/okian/appraisal/internal/domain/model"
	"github.com/okian/appraisal/internal/domain/ninebox"
	"github.com/okian/appraisal/internal/domain/progress"
)

// Saved is the outcome of saving responses: the set as stored and how much
// of the instrument it now covers.
type Saved struct {
	Set      *model.ResponseSet `json:"response_set"`
	Progress progress.Report    `json:"progress"`
}

// Submission is the outcome of a submit call.
type Submission struct {
	SubmissionID string             `json:"submission_id"`
	Set          *model.ResponseSet `json:"response_set"`
	// Duplicate is set when the submission id was already processed; the
	// call then changed nothing.
	Duplicate bool `json:"duplicate"`
}

// GridSummary is the read shape of a period's nine-box grid.
type GridSummary struct {
	PeriodID string         `json:"period_id"`
	Slots    []ninebox.Slot `json:"slots"`
	Total    int            `json:"total"`
	Excluded []string       `json:"excluded"`
}

// NewGridSummary snapshots g.
func NewGridSummary(periodID string, g *ninebox.Grid) GridSummary {
	return GridSummary{
		PeriodID: periodID,
		Slots:    g.Slots(),
		Total:    g.Total(),
		Excluded: g.Excluded(),
	}
}

// Classification is the answer to an ad hoc classify request.
type Classification struct {
	Performance float64      `json:"performance"`
	Potential   float64      `json:"potential"`
	Cell        ninebox.Key  `json:"cell"`
	Details     ninebox.Cell `json:"details"`
}

// Classify places a performance/potential pair in the grid.
func Classify(performance, potential float64) (Classification, error) {
	k, err := ninebox.Classify(performance, &potential)
	if err != nil {
		return Classification{}, err
	}
	return Classification{
		Performance: performance,
		Potential:   potential,
		Cell:        k,
		Details:     ninebox.Lookup(k),
	}, nil
}
