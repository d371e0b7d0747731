package reviewer

import (
	"context"
	"time"
)

// Pacer spaces out remote work.
type Pacer interface {
	// Wait blocks for d or until ctx is done.
	Wait(ctx context.Context, d time.Duration) error
}

// SleepPacer waits on the wall clock.
type SleepPacer struct{}

// Wait implements Pacer
func (SleepPacer) Wait(ctx context.Context, d time.Duration) error {
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

// NoopPacer never waits.
type NoopPacer struct{}

// Wait implements Pacer
func (NoopPacer) Wait(ctx context.Context, d time.Duration) error { return ctx.Err() }
