package trend

import "errors"

// Validation errors returned by the public operations. All of them are
// detected before any scanning starts; once a scan begins the algorithms
// always produce output.
var (
	// ErrEmptyInput is returned when a price series has no usable points.
	ErrEmptyInput = errors.New("empty input")

	// ErrInvalidPeriod is returned when a look-around period is zero or
	// does not fit inside the series.
	ErrInvalidPeriod = errors.New("invalid period")

	// ErrInvalidConfig is returned when a BreakdownConfig field is outside
	// its valid domain for the given series.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrMismatchedLength is returned by multi-series operations when the
	// inputs disagree on length. Single-series calls never return it; it is
	// exported for sibling packages that share this error taxonomy.
	ErrMismatchedLength = errors.New("mismatched length")
)
