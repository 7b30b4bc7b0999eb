// Package calibration fits per-device correction curves to Tilt readings.
//
// Calibration files are plain CSV, one `key, raw, calibrated` point per
// line. The key is either a device MAC or its display name. Points sharing
// a key are fitted with a least-squares polynomial of degree three, or
// lower when fewer distinct raw values are available.
package calibration
