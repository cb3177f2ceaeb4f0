package worker

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidMaxAttempts is returned when a policy allows no attempts at all.
var ErrInvalidMaxAttempts = errors.New("max attempts must be positive")

// ErrRetriesExhausted wraps the last failure once every attempt has been used.
var ErrRetriesExhausted = errors.New("retries exhausted")

// RetryPolicy bounds a retried operation.
type RetryPolicy struct {
	// MaxAttempts counts the first call, so 5 means one call plus four retries.
	MaxAttempts int

	// Delay is the pause before the second attempt.
	Delay time.Duration

	// Backoff multiplies Delay after every failed attempt. Values <= 1 keep it fixed.
	Backoff float64

	// Retryable decides whether an error is worth another attempt. Nil retries everything.
	Retryable func(err error) bool

	// OnRetry is called before sleeping, with the 1-based number of the failed attempt.
	OnRetry func(attempt int, err error)
}

// FixedDelay returns a policy with a constant pause between attempts.
func FixedDelay(maxAttempts int, delay time.Duration) RetryPolicy {
	return RetryPolicy{MaxAttempts: maxAttempts, Delay: delay, Backoff: 1}
}

// Retry runs fn until it succeeds, returns a non-retryable error, the policy is
// exhausted, or ctx is canceled. On exhaustion the error wraps both
// ErrRetriesExhausted and the last failure.
func Retry[T any](ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	if policy.MaxAttempts <= 0 {
		return zero, ErrInvalidMaxAttempts
	}

	delay := policy.Delay

	var lastErr error

	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, fmt.Errorf("retry canceled: %w", err)
		}

		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}

		lastErr = err

		if policy.Retryable != nil && !policy.Retryable(err) {
			return zero, err
		}

		if attempt == policy.MaxAttempts {
			break
		}

		if policy.OnRetry != nil {
			policy.OnRetry(attempt, err)
		}

		if err := Wait(ctx, delay); err != nil {
			return zero, err
		}

		if policy.Backoff > 1 {
			delay = time.Duration(float64(delay) * policy.Backoff)
		}
	}

	return zero, fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, policy.MaxAttempts, lastErr)
}
