package model

import (
	"fmt"
	"math"
)

// WeightTolerance bounds how far a weight total may drift from 1.0.
const WeightTolerance = 1e-6

// Default evaluator blend.
const (
	DefaultSupervisorWeight = 0.70
	DefaultSelfWeight       = 0.30
)

// EvaluatorWeights blends supervisor and self evaluations.
type EvaluatorWeights struct {
	Supervisor float64 `json:"supervisor" koanf:"supervisor"`
	Self       float64 `json:"self" koanf:"self"`
}

// DefaultEvaluatorWeights returns the 70/30 supervisor/self blend.
func DefaultEvaluatorWeights() EvaluatorWeights {
	return EvaluatorWeights{Supervisor: DefaultSupervisorWeight, Self: DefaultSelfWeight}
}

// Validate requires non-negative weights summing to 1.0.
func (w EvaluatorWeights) Validate() error {
	if w.Supervisor < 0 || w.Self < 0 || math.IsNaN(w.Supervisor) || math.IsNaN(w.Self) {
		return fmt.Errorf("%w: evaluator weights must be non-negative (supervisor=%v self=%v)",
			ErrInconsistentWeights, w.Supervisor, w.Self)
	}
	if !SumsToOne(w.Supervisor + w.Self) {
		return fmt.Errorf("%w: evaluator weights sum to %v, want 1.0",
			ErrInconsistentWeights, w.Supervisor+w.Self)
	}
	return nil
}

// SumsToOne reports whether total is 1.0 within WeightTolerance.
func SumsToOne(total float64) bool {
	return math.Abs(total-1.0) <= WeightTolerance
}
