package scanner

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-tilt/internal/beacon"
)

// simulation is the drifting state of one fake Tilt.
type simulation struct {
	uuid  string
	mac   string
	tempF float64
	rawSG float64
	rssi  float64
}

func newSimulation(color beacon.Color) (*simulation, error) {
	id, err := color.UUID()
	if err != nil {
		return nil, err
	}
	return &simulation{
		uuid:  id,
		mac:   strings.ToUpper(strings.ReplaceAll(id, "-", ""))[:12],
		tempF: 68,
		rawSG: 1050,
		rssi:  -80,
	}, nil
}

func (s *simulation) update(rng *rand.Rand) beacon.Event {
	s.tempF = bounded(s.tempF+uniform(rng, -2, 2), 32, 100)
	s.rawSG = bounded(s.rawSG+uniform(rng, -10, 10), 990, 1150)
	s.rssi = bounded(s.rssi+uniform(rng, -1, 1), -100, -40)

	return beacon.Event{
		MAC:   s.mac,
		UUID:  s.uuid,
		Major: clampUint16(s.tempF),
		Minor: clampUint16(s.rawSG),
		RSSI:  int(math.Round(s.rssi)),
	}
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

// bounded keeps the random walk within plausible brewing values.
func bounded(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}

func clampUint16(v float64) uint16 {
	return uint16(math.Round(math.Max(0, math.Min(v, math.MaxUint16))))
}

// Simulator produces random-walk readings for a fixed set of colours.
type Simulator struct {
	mu   sync.Mutex
	rng  *rand.Rand
	sims []*simulation
}

// NewSimulator creates a simulator for the named colours.
// A nil rng uses a randomly seeded source.
func NewSimulator(colors []string, rng *rand.Rand) (*Simulator, error) {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	s := &Simulator{rng: rng}
	for _, name := range colors {
		color, err := beacon.ParseColor(name)
		if err != nil {
			return nil, fmt.Errorf("simulating %q: %w", name, err)
		}
		sim, err := newSimulation(color)
		if err != nil {
			return nil, err
		}
		s.sims = append(s.sims, sim)
	}
	return s, nil
}

// Scan waits for duration and returns one fresh event per simulated device.
func (s *Simulator) Scan(ctx context.Context, duration time.Duration) ([]beacon.Event, error) {
	if err := wait(ctx, duration); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	events := make([]beacon.Event, 0, len(s.sims))
	for _, sim := range s.sims {
		events = append(events, sim.update(s.rng))
	}
	return events, nil
}
