package scanner

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-tilt/internal/beacon"
	"github.com/nerrad567/gray-logic-tilt/internal/devices"
)

// Logger is the logging interface used by the scanners.
type Logger interface {
	Debug(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}

// Collector keeps the most recent Tilt event per MAC until the next scan.
//
// HandleAdvertisement may be called from any goroutine.
type Collector struct {
	mu     sync.Mutex
	events map[string]beacon.Event
	order  []string
	logger Logger
}

// NewCollector creates an empty collector.
func NewCollector(logger Logger) *Collector {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Collector{events: make(map[string]beacon.Event), logger: logger}
}

// HandleAdvertisement inspects the manufacturer data of one advertisement
// and records it when it is a Tilt iBeacon. It reports whether the
// advertisement was kept. The MAC is normalised and advertisements from
// malformed addresses are dropped.
func (c *Collector) HandleAdvertisement(mac string, manufacturerData map[uint16][]byte, rssi int) bool {
	mac = devices.NormalizeMAC(mac)
	if !devices.ValidMAC(mac) {
		c.logger.Debug("dropping advertisement with malformed MAC", "mac", mac)
		return false
	}
	data, ok := manufacturerData[beacon.AppleCompanyID]
	if !ok {
		return false
	}
	adv, err := beacon.ParseIBeacon(data)
	if err != nil {
		return false
	}
	evt := adv.Event(mac, rssi)
	if _, ok := beacon.ColorForUUID(evt.UUID); !ok {
		return false
	}

	c.logger.Debug("received Tilt advertisement", "mac", mac, "uuid", evt.UUID, "major", evt.Major, "minor", evt.Minor)
	c.Add(evt)
	return true
}

// Add records an already decoded event, replacing any earlier one for the MAC.
func (c *Collector) Add(evt beacon.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.events[evt.MAC]; !ok {
		c.order = append(c.order, evt.MAC)
	}
	c.events[evt.MAC] = evt
}

// Drain returns the collected events in first-seen order and clears them.
func (c *Collector) Drain() []beacon.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]beacon.Event, 0, len(c.order))
	for _, mac := range c.order {
		out = append(out, c.events[mac])
	}
	clear(c.events)
	c.order = slices.Delete(c.order, 0, len(c.order))
	return out
}

// Pending returns how many devices have reported since the last drain.
func (c *Collector) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.order)
}

// Scan waits for duration and then drains the collected events.
// When ctx is cancelled the events gathered so far are still returned.
func (c *Collector) Scan(ctx context.Context, duration time.Duration) ([]beacon.Event, error) {
	err := wait(ctx, duration)
	return c.Drain(), err
}
