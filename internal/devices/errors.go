package devices

import "errors"

// Domain errors for device identity.
var (
	// ErrInvalidAddress is returned when a MAC is not in normalised form.
	ErrInvalidAddress = errors.New("devices: not a normalized device MAC address")

	// ErrInvalidName is returned when a display name contains disallowed characters.
	ErrInvalidName = errors.New("devices: invalid device name")

	// ErrNameInUse is returned when a display name already belongs to another device.
	ErrNameInUse = errors.New("devices: name already in use")

	// ErrInvalidOverrides is returned when a name override payload is not a JSON object.
	ErrInvalidOverrides = errors.New("devices: name overrides must be a JSON object")
)
