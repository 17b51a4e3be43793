package scoring

import "errors"

// Domain errors for the scoring package.
var (
	// ErrInvalidConfig is returned when a calibration fails validation.
	ErrInvalidConfig = errors.New("scoring: invalid config")
)
