// Package retry provides a bounded retry combinator for operations that can
// lose a race against a concurrent writer.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrExhausted wraps the last error returned by an operation that failed on every attempt.
var ErrExhausted = errors.New("retry attempts exhausted")

// Policy bounds a retry loop.
// Attempts is the total number of tries, including the first.
// Backoff is the fixed delay between tries.
// Retryable decides whether an error is worth another attempt; nil retries nothing.
// OnRetry, when set, is called before each backoff wait with the failed attempt number.
type Policy struct {
	Attempts  int
	Backoff   time.Duration
	Retryable func(error) bool
	OnRetry   func(attempt int, err error)
}

// Do runs op until it succeeds, fails with a non-retryable error, or the policy's
// attempts are used up. Exhaustion returns an error matching both ErrExhausted and
// the operation's last error.
func Do[T any](ctx context.Context, p Policy, op func(context.Context) (T, error)) (T, error) {
	var zero T

	attempts := max(p.Attempts, 1)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if p.Retryable == nil || !p.Retryable(err) {
			return zero, err
		}

		if attempt == attempts {
			break
		}

		if p.OnRetry != nil {
			p.OnRetry(attempt, err)
		}

		select {
		case <-ctx.Done():
			return zero, fmt.Errorf("retry canceled: %w", ctx.Err())
		case <-time.After(p.Backoff):
		}
	}

	return zero, fmt.Errorf("%w after %d attempts: %w", ErrExhausted, attempts, lastErr)
}

// Exec is Do for operations that produce no value.
func Exec(ctx context.Context, p Policy, op func(context.Context) error) error {
	_, err := Do(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// On returns a Retryable predicate matching any of the given target errors.
func On(targets ...error) func(error) bool {
	return func(err error) bool {
		for _, target := range targets {
			if errors.Is(err, target) {
				return true
			}
		}
		return false
	}
}
