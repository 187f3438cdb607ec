package providers

import (
	"context"
	"errors"
	"time"
)

// RetryPolicy describes how a fallible provider call is repeated.
// Backoff is constant: every retry waits exactly Delay.
type RetryPolicy struct {
	// MaxAttempts is the total number of tries, including the first
	MaxAttempts int

	// Delay between consecutive attempts
	Delay time.Duration

	// AttemptTimeout bounds each individual attempt; zero means no bound
	AttemptTimeout time.Duration

	// ShouldRetry filters errors; nil retries every error
	ShouldRetry func(err error) bool
}

// DefaultRetryPolicy returns three attempts one second apart
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		Delay:          1 * time.Second,
		AttemptTimeout: 60 * time.Second,
	}
}

// PermanentErrorsOnly stops retrying on provider errors marked non-retryable.
// Errors that are not ProviderErrors are still retried.
func PermanentErrorsOnly(err error) bool {
	var provErr *ProviderError
	if errors.As(err, &provErr) {
		return provErr.Retryable
	}
	return true
}

// RetryHooks lets callers observe attempts and replace the sleeper
type RetryHooks struct {
	// OnAttemptError is called with the 1-based attempt number after each failure
	OnAttemptError func(attempt int, err error)

	// Sleep waits between attempts; defaults to a context-aware timer
	Sleep func(ctx context.Context, d time.Duration) error
}

// Retry runs op until it succeeds or the policy is exhausted.
// The error of the final attempt is returned unchanged.
func Retry[T any](ctx context.Context, policy RetryPolicy, hooks RetryHooks, op func(ctx context.Context, attempt int) (T, error)) (T, error) {
	var zero T

	maxAttempts := policy.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	sleep := hooks.Sleep
	if sleep == nil {
		sleep = SleepContext
	}

	for attempt := 1; ; attempt++ {
		result, err := runAttempt(ctx, policy.AttemptTimeout, attempt, op)
		if err == nil {
			return result, nil
		}

		if hooks.OnAttemptError != nil {
			hooks.OnAttemptError(attempt, err)
		}

		if attempt >= maxAttempts {
			return zero, err
		}
		if policy.ShouldRetry != nil && !policy.ShouldRetry(err) {
			return zero, err
		}

		if sleepErr := sleep(ctx, policy.Delay); sleepErr != nil {
			return zero, err
		}
	}
}

func runAttempt[T any](ctx context.Context, timeout time.Duration, attempt int, op func(ctx context.Context, attempt int) (T, error)) (T, error) {
	if timeout <= 0 {
		return op(ctx, attempt)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return op(attemptCtx, attempt)
}

// SleepContext waits for d or until ctx is done
func SleepContext(ctx context.Context, d time.Duration) error {
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
