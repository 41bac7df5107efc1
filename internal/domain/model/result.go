package model

import "github.com/okian/appraisal/internal/domain/ninebox"

// Half names one of the two independently weighted dimension sets.
type Half string

// Halves.
const (
	HalfPerformance Half = "performance"
	HalfPotential   Half = "potential"
)

// DimensionScore reports one dimension of a blended evaluation.
type DimensionScore struct {
	DimensionID string  `json:"dimension_id"`
	Name        string  `json:"name"`
	Half        Half    `json:"half"`
	Weight      float64 `json:"weight"`
	Average     float64 `json:"average"`
	Percentage  float64 `json:"percentage"`
	Answered    int     `json:"answered"`
	Total       int     `json:"total"`
	Scored      bool    `json:"scored"`
}

// ItemScore is the finest-grain blend, kept for reporting.
type ItemScore struct {
	ItemID     string  `json:"item_id"`
	Self       *int    `json:"self,omitempty"`
	Supervisor *int    `json:"supervisor,omitempty"`
	Blended    float64 `json:"blended"`
}

// FinalResult is the blended outcome of one supervisor's evaluation and the
// subject's self-evaluation. Reported percentages are rounded to one
// decimal; the cell is classified from the unrounded scores. It is derived
// data and never edited directly.
type FinalResult struct {
	SubjectID    string       `json:"subject_id"`
	PeriodID     string       `json:"period_id"`
	InstrumentID string       `json:"instrument_id"`
	EvaluatorID  string       `json:"evaluator_id,omitempty"`
	Relationship Relationship `json:"relationship,omitempty"`

	SelfScore       *float64     `json:"self_score,omitempty"`
	SupervisorScore *float64     `json:"supervisor_score,omitempty"`
	Performance     float64      `json:"performance"`
	Potential       *float64     `json:"potential,omitempty"`
	Cell            *ninebox.Key `json:"cell,omitempty"`

	// Unrounded Performance and Potential.
	RawPerformance float64  `json:"-"`
	RawPotential   *float64 `json:"-"`

	SelfPending       bool `json:"self_pending"`
	SupervisorPending bool `json:"supervisor_pending"`

	Dimensions []DimensionScore `json:"dimensions,omitempty"`
	Items      []ItemScore      `json:"items,omitempty"`
}

// Classified reports whether the result has a nine-box cell.
func (r FinalResult) Classified() bool { return r.Cell != nil }

// ExactPerformance returns the unrounded performance, falling back to the
// rounded one for results built without it.
func (r FinalResult) ExactPerformance() float64 {
	if r.RawPerformance == 0 {
		return r.Performance
	}
	return r.RawPerformance
}

// ExactPotential is ExactPerformance for potential.
func (r FinalResult) ExactPotential() *float64 {
	if r.RawPotential == nil {
		return r.Potential
	}
	return r.RawPotential
}

// ConsolidatedResult merges the results of several supervisors.
type ConsolidatedResult struct {
	SubjectID       string       `json:"subject_id"`
	PeriodID        string       `json:"period_id"`
	MeanPerformance float64      `json:"mean_performance"`
	MeanPotential   *float64     `json:"mean_potential,omitempty"`
	ModalCell       *ninebox.Key `json:"modal_cell,omitempty"`
	EvaluatorCount  int          `json:"evaluator_count"`
	Evaluators      []string     `json:"evaluators"`
	Excluded        []string     `json:"excluded,omitempty"`
}
