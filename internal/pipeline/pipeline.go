package pipeline

import (
	"errors"
	"fmt"
	"sync"

	"github.com/nerrad567/gray-logic-tilt/internal/beacon"
	"github.com/nerrad567/gray-logic-tilt/internal/calibration"
	"github.com/nerrad567/gray-logic-tilt/internal/devices"
)

// ErrMissingDependency is returned by New when a required collaborator is nil.
var ErrMissingDependency = errors.New("pipeline: missing dependency")

// Logger defines the logging interface used by the pipeline.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry is the device identity store used by the pipeline.
type Registry interface {
	Lookup(mac, color string) (string, error)
	ApplyCustomNames(overrides []devices.NameOverride) int
	SyncTargets(name string) []devices.SyncTarget
	Commit() error
	Autocommit(fn func() error) error
}

// Calibrator maps a raw value through the curve of the first matching key.
type Calibrator interface {
	Value(keys []string, raw float64, digits int) (float64, bool)
}

// Options configures a Pipeline. Decoder and Registry are required.
type Options struct {
	Decoder        *beacon.Decoder
	Registry       Registry
	TempCalibrator Calibrator
	SGCalibrator   Calibrator
	Logger         Logger
}

// Pipeline composes messages from beacon events.
type Pipeline struct {
	decoder  *beacon.Decoder
	registry Registry
	tempCal  Calibrator
	sgCal    Calibrator
	logger   Logger

	seenMu sync.Mutex
	seen   map[string]struct{} // MACs seen by this process
}

// New creates a pipeline from opts.
func New(opts Options) (*Pipeline, error) {
	if opts.Decoder == nil || opts.Registry == nil {
		return nil, ErrMissingDependency
	}
	p := &Pipeline{
		decoder:  opts.Decoder,
		registry: opts.Registry,
		tempCal:  opts.TempCalibrator,
		sgCal:    opts.SGCalibrator,
		logger:   opts.Logger,
		seen:     make(map[string]struct{}),
	}
	if p.logger == nil {
		p.logger = noopLogger{}
	}
	return p, nil
}

// ProcessOne composes a message for a single event.
//
// It returns nil without error when the event is discarded by the decoder.
// The registry is not committed; use ProcessBatch or commit separately.
func (p *Pipeline) ProcessOne(evt beacon.Event) (*Message, error) {
	reading, ok := p.decoder.Decode(evt)
	if !ok {
		return nil, nil
	}

	mac := devices.NormalizeMAC(evt.MAC)
	color := string(reading.Color)
	name, err := p.registry.Lookup(mac, color)
	if err != nil {
		return nil, fmt.Errorf("resolving device name: %w", err)
	}
	p.markSeen(mac, color, name)

	tempDigits, sgDigits := calibration.TempDigitsStandard, calibration.SGDigitsStandard
	if reading.Variant == beacon.Pro {
		tempDigits, sgDigits = calibration.TempDigitsPro, calibration.SGDigitsPro
	}
	keys := []string{mac, name}

	rawTempF := reading.TemperatureF
	rawTempC := FahrenheitToCelsius(rawTempF)
	rawSG := reading.SpecificGravity
	rawPlato := SGToPlato(rawSG)

	data := Data{
		TemperatureF:    rawTempF,
		TemperatureC:    rawTempC,
		SpecificGravity: rawSG,
		Plato:           rawPlato,
		RSSI:            evt.RSSI,
	}

	if calTempF, ok := calibrate(p.tempCal, keys, rawTempF, tempDigits); ok {
		data.TemperatureF = calTempF
		data.TemperatureC = FahrenheitToCelsius(calTempF)
		data.UncalibratedTemperatureF = &rawTempF
		data.UncalibratedTemperatureC = &rawTempC
	}
	if calSG, ok := calibrate(p.sgCal, keys, rawSG, sgDigits); ok {
		data.SpecificGravity = calSG
		data.Plato = SGToPlato(calSG)
		data.UncalibratedSpecificGravity = &rawSG
		data.UncalibratedPlato = &rawPlato
	}

	targets := p.registry.SyncTargets(name)
	if targets == nil {
		targets = []devices.SyncTarget{}
	}

	return &Message{
		Name:  name,
		MAC:   mac,
		Color: color,
		Data:  data,
		Sync:  targets,
	}, nil
}

// calibrate applies c when it is configured.
func calibrate(c Calibrator, keys []string, raw float64, digits int) (float64, bool) {
	if c == nil {
		return 0, false
	}
	return c.Value(keys, raw, digits)
}

// markSeen logs the first sighting of a device in this process.
func (p *Pipeline) markSeen(mac, color, name string) {
	p.seenMu.Lock()
	_, seen := p.seen[mac]
	p.seen[mac] = struct{}{}
	p.seenMu.Unlock()

	if !seen {
		p.logger.Info("Tilt detected", "mac", mac, "color", color, "name", name)
	}
}

// ProcessBatch composes messages for events in order, dropping discards.
// All name assignments in the batch are committed with a single write.
func (p *Pipeline) ProcessBatch(events []beacon.Event) ([]Message, error) {
	messages := make([]Message, 0, len(events))
	err := p.registry.Autocommit(func() error {
		for _, evt := range events {
			msg, err := p.ProcessOne(evt)
			if err != nil {
				return err
			}
			if msg != nil {
				messages = append(messages, *msg)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// ApplyNameOverrides applies explicit renames and commits immediately.
func (p *Pipeline) ApplyNameOverrides(overrides []devices.NameOverride) error {
	applied := p.registry.ApplyCustomNames(overrides)
	p.logger.Debug("name overrides applied", "applied", applied, "received", len(overrides))
	return p.registry.Commit()
}

// Seen returns how many distinct devices this process has reported.
func (p *Pipeline) Seen() int {
	p.seenMu.Lock()
	defer p.seenMu.Unlock()
	return len(p.seen)
}
