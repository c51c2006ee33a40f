// ABOUTME: Fixed-delay retry helper for upstream API calls
// ABOUTME: Used by the embedding gateway; attempts and delay are bounded by config
package util

import (
	"context"
	"errors"
	"time"
)

// ErrNoAttempts is returned when a policy allows zero attempts
var ErrNoAttempts = errors.New("retry policy allows no attempts")

// Policy describes a bounded retry with a constant pause between attempts
type Policy struct {
	Attempts int
	Delay    time.Duration
	// OnRetry is called after a failed attempt that will be retried
	OnRetry func(attempt int, err error)
}

// Do runs fn until it succeeds or the policy's attempts are used up.
// It returns the number of attempts made and the last error.
// The pause between attempts is interrupted if ctx is cancelled.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) (int, error) {
	if p.Attempts <= 0 {
		return 0, ErrNoAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= p.Attempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return attempt, nil
		}
		if attempt == p.Attempts {
			break
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, lastErr)
		}
		if err := sleep(ctx, p.Delay); err != nil {
			return attempt, errors.Join(lastErr, err)
		}
	}
	return p.Attempts, lastErr
}

func sleep(ctx context.Context, d time.Duration) error {
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
