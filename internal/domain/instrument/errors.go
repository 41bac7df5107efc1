package instrument

import "errors"

// Sentinel kinds for instrument errors.
var (
	ErrInvalidInstrument = errors.New("invalid instrument")
	ErrUnknownLevel      = errors.New("no instrument for level")
	ErrLoadCatalog       = errors.New("load instrument catalog failed")
)
