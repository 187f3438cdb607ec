package providers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sleepRecorder struct {
	delays []time.Duration
}

func (s *sleepRecorder) Sleep(ctx context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return ctx.Err()
}

func TestRetry(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 3, Delay: time.Second}

	t.Run("succeeds on first attempt without sleeping", func(t *testing.T) {
		sleeper := &sleepRecorder{}
		attempts := 0

		got, err := Retry(context.Background(), policy, RetryHooks{Sleep: sleeper.Sleep},
			func(ctx context.Context, attempt int) (string, error) {
				attempts++
				return "ok", nil
			})

		require.NoError(t, err)
		assert.Equal(t, "ok", got)
		assert.Equal(t, 1, attempts)
		assert.Empty(t, sleeper.delays)
	})

	t.Run("fails twice then succeeds", func(t *testing.T) {
		sleeper := &sleepRecorder{}
		var failed []int

		got, err := Retry(context.Background(), policy, RetryHooks{
			Sleep:          sleeper.Sleep,
			OnAttemptError: func(attempt int, err error) { failed = append(failed, attempt) },
		}, func(ctx context.Context, attempt int) (string, error) {
			if attempt < 3 {
				return "", errors.New("transient")
			}
			return "third time", nil
		})

		require.NoError(t, err)
		assert.Equal(t, "third time", got)
		assert.Equal(t, []int{1, 2}, failed)
		assert.Equal(t, []time.Duration{time.Second, time.Second}, sleeper.delays)
	})

	t.Run("always failing returns final error unchanged", func(t *testing.T) {
		sleeper := &sleepRecorder{}
		errs := []error{errors.New("first"), errors.New("second"), errors.New("third")}
		attempts := 0

		_, err := Retry(context.Background(), policy, RetryHooks{Sleep: sleeper.Sleep},
			func(ctx context.Context, attempt int) (int, error) {
				attempts++
				return 0, errs[attempt-1]
			})

		assert.Same(t, errs[2], err)
		assert.Equal(t, 3, attempts)
		assert.Equal(t, []time.Duration{time.Second, time.Second}, sleeper.delays)
	})

	t.Run("non-positive max attempts still tries once", func(t *testing.T) {
		attempts := 0
		_, err := Retry(context.Background(), RetryPolicy{}, RetryHooks{},
			func(ctx context.Context, attempt int) (int, error) {
				attempts++
				return 0, errors.New("boom")
			})

		assert.Error(t, err)
		assert.Equal(t, 1, attempts)
	})

	t.Run("should retry filter stops early", func(t *testing.T) {
		sleeper := &sleepRecorder{}
		permanent := NewProviderError("openai", "invalid_api_key", "bad key", 401, false, nil)
		attempts := 0

		_, err := Retry(context.Background(), RetryPolicy{MaxAttempts: 3, Delay: time.Second, ShouldRetry: PermanentErrorsOnly},
			RetryHooks{Sleep: sleeper.Sleep},
			func(ctx context.Context, attempt int) (int, error) {
				attempts++
				return 0, permanent
			})

		assert.Same(t, permanent, err)
		assert.Equal(t, 1, attempts)
		assert.Empty(t, sleeper.delays)
	})

	t.Run("cancelled context during delay returns last error", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		lastErr := errors.New("unavailable")
		attempts := 0

		_, err := Retry(ctx, policy, RetryHooks{
			Sleep: func(ctx context.Context, d time.Duration) error {
				cancel()
				return ctx.Err()
			},
		}, func(ctx context.Context, attempt int) (int, error) {
			attempts++
			return 0, lastErr
		})

		assert.Same(t, lastErr, err)
		assert.Equal(t, 1, attempts)
	})

	t.Run("attempt timeout bounds each attempt", func(t *testing.T) {
		var deadlines []bool

		_, err := Retry(context.Background(), RetryPolicy{MaxAttempts: 2, AttemptTimeout: time.Minute},
			RetryHooks{Sleep: func(context.Context, time.Duration) error { return nil }},
			func(ctx context.Context, attempt int) (int, error) {
				_, ok := ctx.Deadline()
				deadlines = append(deadlines, ok)
				return 0, errors.New("fail")
			})

		assert.Error(t, err)
		assert.Equal(t, []bool{true, true}, deadlines)
	})
}

func TestPermanentErrorsOnly(t *testing.T) {
	assert.True(t, PermanentErrorsOnly(errors.New("network down")))
	assert.True(t, PermanentErrorsOnly(NewProviderError("openai", "server_error", "oops", 503, true, nil)))
	assert.False(t, PermanentErrorsOnly(NewProviderError("openai", "invalid_api_key", "bad key", 401, false, nil)))
}

func TestSleepContext(t *testing.T) {
	require.NoError(t, SleepContext(context.Background(), time.Millisecond))
	require.NoError(t, SleepContext(context.Background(), 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, SleepContext(ctx, time.Hour), context.Canceled)
}

func TestDefaultRetryPolicy(t *testing.T) {
	policy := DefaultRetryPolicy()

	assert.Equal(t, 3, policy.MaxAttempts)
	assert.Equal(t, 1000*time.Millisecond, policy.Delay)
	assert.Nil(t, policy.ShouldRetry)
}
