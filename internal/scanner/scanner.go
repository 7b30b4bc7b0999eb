package scanner

import (
	"context"
	"time"

	"github.com/nerrad567/gray-logic-tilt/internal/beacon"
)

// Scanner collects events for the given duration and returns them.
type Scanner interface {
	Scan(ctx context.Context, duration time.Duration) ([]beacon.Event, error)
}

// wait sleeps for d or until ctx is done.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
