// Package sighting records when each Tilt was first and last decoded,
// together with its most recent values.
//
// The table backs the /api/v1/sightings endpoint and survives restarts,
// unlike the per-process "Tilt detected" log of the pipeline.
package sighting
