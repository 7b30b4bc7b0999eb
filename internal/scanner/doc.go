// Package scanner produces batches of Tilt beacon events.
//
// Two sources exist. Collector accumulates advertisements pushed to it by
// a Bluetooth host (a gateway posting to the HTTP API, or any other
// adapter) and hands out the latest event per device on every scan.
// Simulator fabricates drifting readings for a configured set of colours
// and is used when no radio is available.
package scanner
