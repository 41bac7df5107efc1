package scoring

import "errors"

// Sentinel kinds for scoring errors.
var (
	// ErrInsufficientData means no dimension has an answered item, so no
	// score can be produced. It never means zero.
	ErrInsufficientData = errors.New("insufficient data to compute a score")
)
