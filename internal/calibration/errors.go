package calibration

import "errors"

// Domain errors for calibration data.
var (
	// ErrTooFewPoints is returned when a key has fewer than two distinct
	// uncalibrated values, so no curve can be fitted.
	ErrTooFewPoints = errors.New("calibration: too few distinct points to fit a curve")

	// ErrSingular is returned when the normal equations cannot be solved.
	ErrSingular = errors.New("calibration: singular system")
)
