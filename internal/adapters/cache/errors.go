package cache

import "errors"

// Sentinel kinds for cache errors.
var (
	ErrInvalidSize = errors.New("cache size must be positive")
)
