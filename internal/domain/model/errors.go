package model

import "errors"

// Sentinel kinds shared across the domain.
var (
	ErrInconsistentWeights = errors.New("inconsistent weights")
	ErrUnknownRole         = errors.New("unknown evaluator role")
	ErrInvalidKey          = errors.New("invalid response key")
	ErrInvalidSubject      = errors.New("invalid subject")
)
