// Package beacon decodes Tilt hydrometer iBeacon advertisements.
//
// A Tilt encodes its colour in the iBeacon proximity UUID, the temperature
// in the major field and the specific gravity in the minor field. Tilt Pro
// devices send ten times the resolution and are recognised by a minor value
// above 5000.
//
// The decoder is pure: it does no I/O and holds no mutable state, so one
// Decoder may be shared between goroutines.
package beacon
