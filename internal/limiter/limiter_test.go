package limiter

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeTimer struct {
	now      time.Time
	sleeps   []time.Duration
	sleepErr error
}

func (t *fakeTimer) Now() time.Time {
	return t.now
}

func (t *fakeTimer) Sleep(ctx context.Context, duration time.Duration) error {
	t.sleeps = append(t.sleeps, duration)
	if t.sleepErr != nil {
		return t.sleepErr
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

func TestNewPause(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		duration time.Duration
		timer    Timer
		wantNil  bool
	}{
		{name: "zero duration", duration: 0, timer: &fakeTimer{}, wantNil: true},
		{name: "negative duration", duration: -time.Second, timer: &fakeTimer{}, wantNil: true},
		{name: "nil timer fallback", duration: time.Second, timer: nil, wantNil: false},
		{name: "custom timer", duration: time.Second, timer: &fakeTimer{}, wantNil: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			pause := NewPauseWithTimer(tt.duration, tt.timer)
			if tt.wantNil && pause != nil {
				t.Fatalf("expected nil pause")
			}

			if !tt.wantNil && pause == nil {
				t.Fatalf("expected non-nil pause")
			}
		})
	}

	if NewPause(time.Second) == nil {
		t.Fatalf("expected non-nil pause with real clock")
	}
}

func TestPauseWaitNil(t *testing.T) {
	t.Parallel()

	var pause *Pause
	if err := pause.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if pause.Duration() != 0 {
		t.Fatalf("nil pause duration = %v; want 0", pause.Duration())
	}
}

func TestPauseWaitSleepsFixedDuration(t *testing.T) {
	t.Parallel()

	clock := &fakeTimer{now: baseTime()}
	pause := NewPauseWithTimer(9*time.Second, clock)

	for range 3 {
		if err := pause.Wait(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		clock.now = clock.now.Add(time.Minute)
	}

	if len(clock.sleeps) != 3 {
		t.Fatalf("sleep calls = %d; want 3", len(clock.sleeps))
	}

	for i, d := range clock.sleeps {
		if d != 9*time.Second {
			t.Fatalf("sleep[%d] = %v; want %v", i, d, 9*time.Second)
		}
	}

	if pause.Duration() != 9*time.Second {
		t.Fatalf("duration = %v; want %v", pause.Duration(), 9*time.Second)
	}
}

func TestPauseWaitReturnsSleepError(t *testing.T) {
	t.Parallel()

	errSleep := errors.New("sleep failed")
	clock := &fakeTimer{now: baseTime(), sleepErr: errSleep}
	pause := NewPauseWithTimer(time.Second, clock)

	err := pause.Wait(context.Background())
	if !errors.Is(err, errSleep) {
		t.Fatalf("expected sleep error, got: %v", err)
	}
}

func TestPauseWaitCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pause := NewPause(time.Hour)
	if err := pause.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v; want %v", err, context.Canceled)
	}
}

func baseTime() time.Time {
	return time.Date(2026, time.February, 12, 12, 0, 0, 0, time.UTC)
}
