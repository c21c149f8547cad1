package eth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

var ErrRetriesExhausted = errors.New("retries exhausted")

// RetryPolicy is a fixed-interval bounded retry: Attempts calls in total with
// Delay between consecutive calls.
type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
}

var DefaultRetryPolicy = RetryPolicy{Attempts: 10, Delay: 2 * time.Second}

// Retry calls fn until it succeeds, the policy is exhausted or ctx is done.
// The returned error wraps both ErrRetriesExhausted and the last failure.
func Retry[T any](ctx context.Context, policy RetryPolicy, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	attempts := policy.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var zero T
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		if attempt == attempts {
			break
		}
		zap.L().Debug("Retrying RPC call",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if SleepInterrupted(ctx, policy.Delay) {
			return zero, ctx.Err()
		}
	}
	return zero, fmt.Errorf("%s: %w after %d attempts: %w", op, ErrRetriesExhausted, attempts, lastErr)
}

// SleepInterrupted sleeps for d and reports whether ctx ended first.
func SleepInterrupted(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() != nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return true
	case <-timer.C:
		return false
	}
}
