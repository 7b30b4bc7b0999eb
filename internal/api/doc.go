// Package api provides the HTTP API of the Tilt bridge.
//
// Endpoints (all under /api/v1):
//
//	GET  /health                 liveness plus component checks
//	GET  /devices                known Tilts with their names and sync targets
//	GET  /devices/{mac}          one device
//	PUT  /devices/names          apply a JSON object of MAC → name overrides
//	GET  /sightings              persisted first/last seen per device
//	GET  /sightings/{mac}        one sighting
//	POST /advertisements         feed raw BLE advertisements from an external scanner
//	GET  /ws                     WebSocket stream of device states (channel "tilt.state")
//
// The server follows the same lifecycle as the other components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
package api
