package broadcaster

import (
	"github.com/nerrad567/gray-logic-tilt/internal/pipeline"
)

// Message types understood by the Brewblox UI.
const (
	TypeServiceState = "Tilt.state.service"
	TypeDeviceState  = "Tilt.state"

	// SyncTempSensorExternal is the only sync target type acted on.
	SyncTempSensorExternal = "TempSensorExternal"
)

// ServiceState is the retained presence message of the service.
type ServiceState struct {
	Key       string `json:"key"`
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
}

// History carries the data of every device seen in one cycle, keyed by name.
type History struct {
	Key  string                   `json:"key"`
	Data map[string]pipeline.Data `json:"data"`
}

// DeviceState is the retained state of one Tilt.
type DeviceState struct {
	Key       string        `json:"key"`
	Type      string        `json:"type"`
	Timestamp int64         `json:"timestamp"`
	Color     string        `json:"color"`
	MAC       string        `json:"mac"`
	Name      string        `json:"name"`
	Data      pipeline.Data `json:"data"`
}

// BlockPatch sets the temperature of an external sensor block on a Spark.
type BlockPatch struct {
	ID        string             `json:"id"`
	ServiceID string             `json:"serviceId"`
	Type      string             `json:"type"`
	Data      map[string]float64 `json:"data"`
}

func newBlockPatch(block, service string, tempC float64) BlockPatch {
	return BlockPatch{
		ID:        block,
		ServiceID: service,
		Type:      SyncTempSensorExternal,
		Data:      map[string]float64{"setting[degC]": tempC},
	}
}
