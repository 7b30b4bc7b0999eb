package sighting

import "errors"

// ErrNotFound is returned when no sighting exists for a MAC.
var ErrNotFound = errors.New("sighting: not found")
