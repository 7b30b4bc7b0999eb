package pipeline

import (
	"github.com/nerrad567/gray-logic-tilt/internal/devices"
)

// Data holds the measured values of one reading.
//
// When a calibration curve applied, the primary fields carry the
// calibrated value and the matching Uncalibrated field the raw one.
type Data struct {
	TemperatureF    float64 `json:"temperature[degF]"`
	TemperatureC    float64 `json:"temperature[degC]"`
	SpecificGravity float64 `json:"specificGravity"`
	Plato           float64 `json:"plato[degP]"`
	RSSI            int     `json:"rssi[dBm]"`

	UncalibratedTemperatureF    *float64 `json:"uncalibratedTemperature[degF],omitempty"`
	UncalibratedTemperatureC    *float64 `json:"uncalibratedTemperature[degC],omitempty"`
	UncalibratedSpecificGravity *float64 `json:"uncalibratedSpecificGravity,omitempty"`
	UncalibratedPlato           *float64 `json:"uncalibratedPlato[degP],omitempty"`
}

// Fields returns the data keyed by its published field names.
// Absent uncalibrated values are left out.
func (d Data) Fields() map[string]any {
	out := map[string]any{
		"temperature[degF]": d.TemperatureF,
		"temperature[degC]": d.TemperatureC,
		"specificGravity":   d.SpecificGravity,
		"plato[degP]":       d.Plato,
		"rssi[dBm]":         d.RSSI,
	}
	optional := map[string]*float64{
		"uncalibratedTemperature[degF]": d.UncalibratedTemperatureF,
		"uncalibratedTemperature[degC]": d.UncalibratedTemperatureC,
		"uncalibratedSpecificGravity":   d.UncalibratedSpecificGravity,
		"uncalibratedPlato[degP]":       d.UncalibratedPlato,
	}
	for k, v := range optional {
		if v != nil {
			out[k] = *v
		}
	}
	return out
}

// Calibrated reports whether any calibration curve applied.
func (d Data) Calibrated() bool {
	return d.UncalibratedTemperatureF != nil || d.UncalibratedSpecificGravity != nil
}

// Message is the composed per-device record handed to publishers.
type Message struct {
	Name  string               `json:"name"`
	MAC   string               `json:"mac"`
	Color string               `json:"color"`
	Data  Data                 `json:"data"`
	Sync  []devices.SyncTarget `json:"sync"`
}
