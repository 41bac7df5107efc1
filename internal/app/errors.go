package service

import "errors"

// Sentinel error kinds returned by the service. Store and engine errors are
// passed through wrapped, so callers match those with errors.Is as well.
var (
	ErrIncomplete       = errors.New("response set is incomplete")
	ErrUnknownItem      = errors.New("item is not part of the instrument")
	ErrRatingOutOfScale = errors.New("rating outside the instrument scale")
	ErrNotAssigned      = errors.New("evaluator is not assigned to the subject")
)
