package limiter

import (
	"context"
	"time"
)

// Clock is the wall-clock Timer.
type Clock struct{}

// NewClock returns the wall-clock Timer.
func NewClock() Clock {
	return Clock{}
}

func (Clock) Now() time.Time {
	return time.Now()
}

// Sleep blocks for duration or until ctx is done.
func (Clock) Sleep(ctx context.Context, duration time.Duration) error {
	if duration <= 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			return nil
		}
	}

	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
