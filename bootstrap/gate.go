package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/stokaro/seshat/retry"
	"github.com/stokaro/seshat/store/types"
)

// ErrExhausted is returned by WaitReady when the retry budget runs out
// before the store accepts connections. It is a reported condition, not
// a panic: the caller decides whether to proceed or abort.
var ErrExhausted = errors.New("readiness gate exhausted")

// ProbeFunc performs one bounded-time connectivity probe against the
// target address.
type ProbeFunc func(ctx context.Context, addr string) error

// DialProbe returns a probe that attempts a plain TCP dial with the
// given per-attempt timeout. A store that accepts the connection is
// considered reachable; schema-level health is the bootstrapper's job.
func DialProbe(timeout time.Duration) ProbeFunc {
	return func(ctx context.Context, addr string) error {
		dialCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		var d net.Dialer
		conn, err := d.DialContext(dialCtx, "tcp", addr)
		if err != nil {
			return fmt.Errorf("%w: probe %s: %w", types.ErrUnavailable, addr, err)
		}
		_ = conn.Close()
		return nil
	}
}

// WaitReady blocks until the target accepts a connectivity probe, the
// policy's attempt budget is exhausted, or ctx is canceled. Attempts
// are separated by bounded exponential backoff with jitter so that
// several application instances starting against the same store do not
// probe in lockstep.
//
// Cancellation returns the context's error immediately; an aborted
// gate is distinct from an exhausted one. Exhaustion wraps ErrExhausted
// around the last probe failure. A nil probe defaults to a 3 second
// DialProbe.
func WaitReady(ctx context.Context, addr string, p retry.Policy, probe ProbeFunc, logger *slog.Logger) error {
	if probe == nil {
		probe = DialProbe(3 * time.Second)
	}
	if logger == nil {
		logger = slog.Default()
	}

	attempt := 0
	_, err := retry.Do(ctx, p, types.IsRetryable, func(ctx context.Context) (struct{}, error) {
		attempt++
		if err := probe(ctx, addr); err != nil {
			logger.Warn("store not ready", "target", addr, "attempt", attempt, "max", p.MaxAttempts, "error", err)
			return struct{}{}, err
		}
		return struct{}{}, nil
	})
	if err == nil {
		logger.Info("store ready", "target", addr, "attempts", attempt)
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	// A non-retryable probe failure stops the loop without spending the
	// attempt budget; only a spent budget is exhaustion.
	if !types.IsRetryable(err) {
		return fmt.Errorf("probe %s: %w", addr, err)
	}
	return fmt.Errorf("%w: %s after %d attempts: %w", ErrExhausted, addr, p.MaxAttempts, err)
}
