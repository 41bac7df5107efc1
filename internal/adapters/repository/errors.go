package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound     = errors.New("not found")
	ErrSubmitted    = errors.New("response set already submitted")
	ErrInvalidLimit = errors.New("invalid leaderboard limit")
)
