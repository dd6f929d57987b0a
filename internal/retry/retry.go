// Package retry runs an operation a bounded number of times.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ashureev/chorechat/internal/shared"
)

// Policy configures Do.
type Policy struct {
	// Attempts is the total number of calls, including the first. Values below 1 mean 1.
	Attempts int
	// BaseDelay is the wait before the second attempt; it doubles for each later attempt.
	BaseDelay time.Duration
	// Retryable reports whether err may be retried. Nil retries every error.
	Retryable func(error) bool
	// OnRetry is called before each retry with the attempt that just failed.
	OnRetry func(attempt int, err error)
}

// ModelPolicy is the policy for language model calls: two calls in total, no delay,
// every failure retried except cancellation of the caller's context.
func ModelPolicy() Policy {
	return Policy{Attempts: 2}
}

// SQLitePolicy retries SQLite busy/locked errors with exponential backoff (50ms, 100ms).
func SQLitePolicy() Policy {
	return Policy{
		Attempts:  3,
		BaseDelay: 50 * time.Millisecond,
		Retryable: shared.IsSQLiteConflictError,
	}
}

// Do calls fn until it succeeds, the attempts run out, the error is not retryable
// or ctx is done. The last error is returned wrapped with the attempt count.
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context, attempt int) (T, error)) (T, error) {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var zero T
	var lastErr error
	made := 0
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return zero, fmt.Errorf("attempt %d: %w", attempt-1, errors.Join(lastErr, err))
			}
			return zero, err
		}

		made = attempt
		v, err := fn(ctx, attempt)
		if err == nil {
			return v, nil
		}
		lastErr = err

		if attempt == attempts || isContextErr(err) {
			break
		}
		if p.Retryable != nil && !p.Retryable(err) {
			break
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, err)
		}
		if p.BaseDelay > 0 {
			delay := p.BaseDelay * time.Duration(1<<(attempt-1))
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, fmt.Errorf("attempt %d: %w", attempt, errors.Join(lastErr, ctx.Err()))
			case <-timer.C:
			}
		}
	}
	return zero, fmt.Errorf("after %d attempt(s): %w", made, lastErr)
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
