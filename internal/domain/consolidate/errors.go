package consolidate

import "errors"

// Sentinel kinds for consolidation errors.
var (
	ErrEmptyConsolidationSet = errors.New("no evaluator results to consolidate")
	ErrMixedResults          = errors.New("results belong to different subjects or periods")
)
