// Package limiter paces requests to a remote service.
package limiter

import (
	"context"
	"time"
)

// Timer provides time for pacing. Tests substitute a fake to avoid real sleeps.
type Timer interface {
	Now() time.Time
	Sleep(ctx context.Context, duration time.Duration) error
}

// Pause is a fixed wait taken after every request. It does not adapt to
// the observed request rate.
type Pause struct {
	duration time.Duration
	clock    Timer
}

// NewPause creates a Pause using real time. A non-positive duration yields a
// nil Pause, whose Wait returns immediately.
func NewPause(duration time.Duration) *Pause {
	return NewPauseWithTimer(duration, Clock{})
}

// NewPauseWithTimer creates a Pause with a custom clock.
func NewPauseWithTimer(duration time.Duration, clock Timer) *Pause {
	if duration <= 0 {
		return nil
	}

	if clock == nil {
		clock = Clock{}
	}

	return &Pause{
		duration: duration,
		clock:    clock,
	}
}

// Duration returns the configured wait.
func (p *Pause) Duration() time.Duration {
	if p == nil {
		return 0
	}

	return p.duration
}

// Wait sleeps for the configured duration or until ctx is done.
func (p *Pause) Wait(ctx context.Context) error {
	if p == nil {
		return nil
	}

	return p.clock.Sleep(ctx, p.duration)
}
