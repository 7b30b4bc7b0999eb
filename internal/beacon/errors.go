package beacon

import "errors"

// Domain errors for advertisement parsing.
var (
	// ErrNotIBeacon is returned when manufacturer data does not carry the
	// iBeacon type and length prefix.
	ErrNotIBeacon = errors.New("beacon: manufacturer data is not an iBeacon frame")

	// ErrShortFrame is returned when an iBeacon frame is truncated.
	ErrShortFrame = errors.New("beacon: iBeacon frame too short")

	// ErrUnknownColor is returned when a colour name has no Tilt UUID.
	ErrUnknownColor = errors.New("beacon: unknown Tilt colour")
)
