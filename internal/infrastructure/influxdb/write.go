package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/gray-logic-tilt/internal/pipeline"
)

// MeasurementTilt is the measurement every Tilt reading is written to.
const MeasurementTilt = "tilt"

// NewTiltPoint builds the point for one message.
//
// Tags identify the device (service, name, color, mac); fields carry the
// same keys as the published data, uncalibrated values included when set.
func NewTiltPoint(service string, m pipeline.Message, at time.Time) *write.Point {
	return write.NewPoint(
		MeasurementTilt,
		map[string]string{
			"service": service,
			"name":    m.Name,
			"color":   m.Color,
			"mac":     m.MAC,
		},
		m.Data.Fields(),
		at,
	)
}

// WriteTilt queues one point per message, all stamped with at.
// Does nothing when the client is not connected.
func (c *Client) WriteTilt(service string, messages []pipeline.Message, at time.Time) {
	if !c.IsConnected() {
		return
	}
	for _, m := range messages {
		c.writeAPI.WritePoint(NewTiltPoint(service, m, at))
	}
}
