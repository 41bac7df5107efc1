package ninebox

import "errors"

// Sentinel kinds for classification errors.
var (
	ErrMissingPotential = errors.New("potential score missing; subject excluded from nine-box")
	ErrUnknownTier      = errors.New("unknown tier")
)
