package broadcaster

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-tilt/internal/beacon"
	"github.com/nerrad567/gray-logic-tilt/internal/devices"
	"github.com/nerrad567/gray-logic-tilt/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-tilt/internal/pipeline"
	"github.com/nerrad567/gray-logic-tilt/internal/scanner"
)

// initialInterval is the wait before the first scan.
const initialInterval = time.Second

// Logger is the logging interface used by the broadcaster.
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

// Bus publishes to and subscribes on the event bus.
// Implemented by *mqtt.Client.
type Bus interface {
	PublishJSON(topic string, v any, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
}

// Processor turns beacon events into messages and applies name overrides.
// Implemented by *pipeline.Pipeline.
type Processor interface {
	ProcessBatch(events []beacon.Event) ([]pipeline.Message, error)
	ApplyNameOverrides(overrides []devices.NameOverride) error
}

// HistoryWriter stores published messages as time series.
// Implemented by *influxdb.Client.
type HistoryWriter interface {
	WriteTilt(service string, messages []pipeline.Message, at time.Time)
}

// SightingRecorder keeps the last known state of each device.
// Implemented by *sighting.SQLiteRepository.
type SightingRecorder interface {
	Record(ctx context.Context, messages []pipeline.Message, at time.Time) error
}

// StateListener receives the device states of every cycle after they are
// published. Implemented by *api.Hub.
type StateListener interface {
	HandleDeviceStates(states []DeviceState)
}

// Options configures a Broadcaster.
type Options struct {
	Topics    mqtt.Topics
	Bus       Bus
	Scanner   scanner.Scanner
	Processor Processor

	// History, Sightings and Listener are optional.
	History   HistoryWriter
	Sightings SightingRecorder
	Listener  StateListener

	// ScanDuration bounds each scan; the intervals are the waits between scans.
	ScanDuration     time.Duration
	ActiveInterval   time.Duration
	InactiveInterval time.Duration

	// QoS for the names subscription.
	QoS byte

	Logger Logger

	// Now defaults to time.Now.
	Now func() time.Time
}

// Status summarises the last completed cycle.
type Status struct {
	Running  bool          `json:"running"`
	LastScan time.Time     `json:"lastScan"`
	Messages int           `json:"messages"`
	Interval time.Duration `json:"interval"`
	Cycles   int64         `json:"cycles"`
}

// Broadcaster runs the scan loop and publishes results.
type Broadcaster struct {
	topics    mqtt.Topics
	bus       Bus
	scanner   scanner.Scanner
	processor Processor
	history   HistoryWriter
	sightings SightingRecorder
	listener  StateListener
	logger    Logger
	now       func() time.Time
	qos       byte

	scanDuration     time.Duration
	activeInterval   time.Duration
	inactiveInterval time.Duration

	mu           sync.RWMutex
	interval     time.Duration
	prevMessages int
	lastScan     time.Time
	cycles       int64
	running      bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Broadcaster. Call Start to begin scanning.
func New(opts Options) (*Broadcaster, error) {
	switch {
	case opts.Bus == nil:
		return nil, fmt.Errorf("%w: bus", ErrMissingDependency)
	case opts.Scanner == nil:
		return nil, fmt.Errorf("%w: scanner", ErrMissingDependency)
	case opts.Processor == nil:
		return nil, fmt.Errorf("%w: processor", ErrMissingDependency)
	}

	b := &Broadcaster{
		topics:           opts.Topics,
		bus:              opts.Bus,
		scanner:          opts.Scanner,
		processor:        opts.Processor,
		history:          opts.History,
		sightings:        opts.Sightings,
		listener:         opts.Listener,
		logger:           opts.Logger,
		now:              opts.Now,
		qos:              opts.QoS,
		scanDuration:     max(opts.ScanDuration, time.Second),
		activeInterval:   max(opts.ActiveInterval, 0),
		inactiveInterval: max(opts.InactiveInterval, 0),
		interval:         initialInterval,
	}
	if b.logger == nil {
		b.logger = noopLogger{}
	}
	if b.now == nil {
		b.now = time.Now
	}
	return b, nil
}

// Start subscribes to name overrides and starts the scan loop.
// The loop stops when ctx is cancelled or Stop is called.
func (b *Broadcaster) Start(ctx context.Context) error {
	b.mu.Lock()
	if b.running {
		b.mu.Unlock()
		return ErrAlreadyStarted
	}
	b.running = true
	ctx, b.cancel = context.WithCancel(ctx)
	b.mu.Unlock()

	if err := b.bus.Subscribe(b.topics.Names(), b.qos, b.HandleNames); err != nil {
		b.cancel()
		b.mu.Lock()
		b.running = false
		b.mu.Unlock()
		return fmt.Errorf("subscribing to names: %w", err)
	}

	b.wg.Add(1)
	go b.loop(ctx)

	b.logger.Info("broadcaster started",
		"service", b.topics.Service(),
		"scan_duration", b.scanDuration,
		"active_interval", b.activeInterval,
		"inactive_interval", b.inactiveInterval,
	)
	return nil
}

// Stop cancels the loop, waits for the running cycle to finish and
// unsubscribes from name overrides. Stopping an idle broadcaster is a no-op.
func (b *Broadcaster) Stop() {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return
	}
	b.running = false
	cancel := b.cancel
	b.mu.Unlock()

	cancel()
	b.wg.Wait()

	if err := b.bus.Unsubscribe(b.topics.Names()); err != nil {
		b.logger.Warn("failed to unsubscribe from names", "error", err)
	}
	b.logger.Info("broadcaster stopped")
}

func (b *Broadcaster) loop(ctx context.Context) {
	defer b.wg.Done()

	for {
		timer := time.NewTimer(b.Interval())
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if _, err := b.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			b.logger.Error("broadcast cycle failed", "error", err)
		}
	}
}

// RunOnce performs a single scan and publish cycle and returns the
// number of messages published.
//
// Publish failures are logged and do not stop the cycle. A pipeline
// failure is returned after the presence message has gone out.
func (b *Broadcaster) RunOnce(ctx context.Context) (int, error) {
	events, err := b.scanner.Scan(ctx, b.scanDuration)
	if err != nil {
		return 0, fmt.Errorf("scanning: %w", err)
	}

	messages, procErr := b.processor.ProcessBatch(events)
	now := b.now()
	b.advance(len(messages), now)

	b.publish(b.topics.ServiceState(), ServiceState{
		Key:       b.topics.Service(),
		Type:      TypeServiceState,
		Timestamp: now.UnixMilli(),
	}, true)

	if procErr != nil {
		return 0, fmt.Errorf("processing %d events: %w", len(events), procErr)
	}
	if len(messages) == 0 {
		return 0, nil
	}

	b.logger.Debug("publishing messages", "count", len(messages))
	states := b.publishMessages(messages, now)
	if b.listener != nil {
		b.listener.HandleDeviceStates(states)
	}

	if b.history != nil {
		b.history.WriteTilt(b.topics.Service(), messages, now)
	}
	if b.sightings != nil {
		if err := b.sightings.Record(ctx, messages, now); err != nil && !errors.Is(err, context.Canceled) {
			b.logger.Warn("failed to record sightings", "error", err)
		}
	}
	return len(messages), nil
}

// publishMessages publishes the history and one state per message, and
// returns the published states.
func (b *Broadcaster) publishMessages(messages []pipeline.Message, now time.Time) []DeviceState {
	history := History{
		Key:  b.topics.Service(),
		Data: make(map[string]pipeline.Data, len(messages)),
	}
	for _, m := range messages {
		history.Data[m.Name] = m.Data
	}
	b.publish(b.topics.History(), history, false)

	ts := now.UnixMilli()
	states := make([]DeviceState, 0, len(messages))
	for _, m := range messages {
		state := DeviceState{
			Key:       b.topics.Service(),
			Type:      TypeDeviceState,
			Timestamp: ts,
			Color:     m.Color,
			MAC:       m.MAC,
			Name:      m.Name,
			Data:      m.Data,
		}
		b.publish(b.topics.DeviceState(m.Color, m.MAC), state, true)
		states = append(states, state)

		for _, target := range m.Sync {
			if target.Type != SyncTempSensorExternal {
				continue
			}
			b.publish(b.topics.BlockPatch(), newBlockPatch(target.Block, target.Service, m.Data.TemperatureC), false)
		}
	}
	return states
}

func (b *Broadcaster) publish(topic string, v any, retained bool) {
	if err := b.bus.PublishJSON(topic, v, retained); err != nil {
		b.logger.Warn("publish failed", "topic", topic, "error", err)
	}
}

// advance records the cycle and picks the next interval.
func (b *Broadcaster) advance(count int, at time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if count == 0 || count < b.prevMessages {
		b.interval = b.inactiveInterval
	} else {
		b.interval = b.activeInterval
	}
	b.prevMessages = count
	b.lastScan = at
	b.cycles++
}

// HandleNames applies a JSON object of MAC → name overrides.
// It is the handler for the names topic.
func (b *Broadcaster) HandleNames(_ string, payload []byte) error {
	overrides, err := devices.ParseNameOverrides(payload)
	if err != nil {
		return err
	}
	return b.processor.ApplyNameOverrides(overrides)
}

// Interval returns the wait before the next scan.
func (b *Broadcaster) Interval() time.Duration {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.interval
}

// Status returns a snapshot of the last cycle.
func (b *Broadcaster) Status() Status {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return Status{
		Running:  b.running,
		LastScan: b.lastScan,
		Messages: b.prevMessages,
		Interval: b.interval,
		Cycles:   b.cycles,
	}
}
