// Package pipeline turns raw Tilt beacon events into publishable messages.
//
// For every event the pipeline decodes the advertisement, resolves the
// device's display name, applies temperature and gravity calibration,
// derives °C and °Plato, and attaches the sync targets configured for
// the device. A batch of events costs at most one write of the devices file.
package pipeline
