// Package broadcaster runs the scan → decode → publish cycle of the bridge.
//
// Each cycle scans for beacon events, hands them to the pipeline as one
// batch and publishes the result on the Brewblox event bus:
//
//   - retained service presence, every cycle, even with no Tilts in range
//   - one history message keyed by device name
//   - retained per-device state, so a Tilt that goes quiet keeps its last value
//   - a Spark block patch for every TempSensorExternal sync target
//
// The wait between cycles adapts: the active interval while the number of
// Tilts in range holds or grows, the inactive interval when it drops or is
// zero. The first cycle starts after one second.
//
// Name overrides received on the names topic go straight to the pipeline.
package broadcaster
