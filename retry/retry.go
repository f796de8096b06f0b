// Package retry implements bounded exponential backoff with jitter.
//
// The same algorithm backs the bootstrap readiness gate and is exposed
// here as a generic contract for any caller that needs to retry
// transient failures (model invocations, flaky network calls) without
// hand-rolling its own loop.
package retry

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// Policy bounds a retry loop. The delay before attempt n (zero-based,
// counted after the first failure) is min(BaseDelay*2^n, MaxDelay) plus
// a random jitter in [0, JitterFraction*delay). Jitter prevents
// thundering-herd reconnection storms when several instances start
// against the same store simultaneously.
type Policy struct {
	MaxAttempts    int
	BaseDelay      time.Duration
	MaxDelay       time.Duration
	JitterFraction float64
}

// DefaultPolicy returns the policy used by the bootstrap readiness gate
// unless the caller overrides it.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:    10,
		BaseDelay:      500 * time.Millisecond,
		MaxDelay:       15 * time.Second,
		JitterFraction: 0.1,
	}
}

// Validate reports whether the policy is usable.
func (p Policy) Validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("retry: MaxAttempts must be at least 1, got %d", p.MaxAttempts)
	}
	if p.BaseDelay <= 0 {
		return fmt.Errorf("retry: BaseDelay must be positive, got %v", p.BaseDelay)
	}
	if p.MaxDelay < p.BaseDelay {
		return fmt.Errorf("retry: MaxDelay %v is below BaseDelay %v", p.MaxDelay, p.BaseDelay)
	}
	if p.JitterFraction < 0 || p.JitterFraction > 1 {
		return fmt.Errorf("retry: JitterFraction must be in [0,1], got %v", p.JitterFraction)
	}
	return nil
}

// Delay returns the backoff duration after the given zero-based failed
// attempt, jitter included.
func (p Policy) Delay(attempt int) time.Duration {
	d := p.BaseDelay
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= p.MaxDelay {
			d = p.MaxDelay
			break
		}
	}
	if p.JitterFraction > 0 {
		d += time.Duration(rand.Float64() * p.JitterFraction * float64(d))
	}
	return d
}

// Do runs work until it succeeds, the policy is exhausted, an error is
// not retryable, or ctx is canceled. Context cancellation propagates the
// context's error immediately and is distinct from exhaustion: callers
// can tell an aborted loop from one that ran out of attempts.
//
// retryable decides which failures are worth another attempt; a nil
// retryable retries everything. On exhaustion the last error is returned
// wrapped, so errors.Is still matches the underlying failure.
func Do[T any](ctx context.Context, p Policy, retryable func(error) bool, work func(context.Context) (T, error)) (T, error) {
	var zero T
	if err := p.Validate(); err != nil {
		return zero, err
	}

	var lastErr error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		v, err := work(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err

		if retryable != nil && !retryable(err) {
			return zero, err
		}
		if attempt == p.MaxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(p.Delay(attempt)):
		}
	}

	return zero, fmt.Errorf("retry: %d attempts exhausted: %w", p.MaxAttempts, lastErr)
}
