package core

import (
	"context"
	"time"
)

// RetryPolicy is a bounded, fixed-delay retry schedule. The webhook
// dispatcher and the summarizer share this primitive with different
// parameters (3 attempts / 2s delay vs. 2 attempts / no delay).
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

// Do runs fn up to MaxAttempts times, waiting Delay between failed
// attempts. It returns nil on the first success, the last attempt's
// error on exhaustion, or the context error if ctx is cancelled.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt < p.MaxAttempts && p.Delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.Delay):
			}
		}
	}
	return lastErr
}
