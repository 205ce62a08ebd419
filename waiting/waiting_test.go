package waiting

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const oneMs = time.Millisecond

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestUntil(t *testing.T) {
	ctx := context.Background()

	t.Run("returns on first true", func(t *testing.T) {
		calls := 0
		err := Until(ctx, func() bool { calls++; return calls == 3 }, WithWaitTime(oneMs))
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("first check plus attempts retries", func(t *testing.T) {
		for _, attempts := range []int{0, 1, 5, 23} {
			t.Run(fmt.Sprint(attempts), func(t *testing.T) {
				calls := 0
				err := Until(ctx, func() bool { calls++; return false }, WithAttempts(attempts), WithWaitTime(oneMs))
				require.Error(t, err)
				assert.Equal(t, attempts+1, calls)
			})
		}
	})

	t.Run("elapsed time covers every pause", func(t *testing.T) {
		const attempts, wait = 5, 10 * time.Millisecond
		start := time.Now()
		err := Until(ctx, func() bool { return false }, WithAttempts(attempts), WithWaitTime(wait))
		require.Error(t, err)
		assert.GreaterOrEqual(t, time.Since(start), attempts*wait)
	})

	t.Run("default message names the attempt count", func(t *testing.T) {
		err := Until(ctx, func() bool { return false }, WithAttempts(23), WithWaitTime(oneMs))
		var timeout *TimeoutError
		require.ErrorAs(t, err, &timeout)
		assert.Equal(t, "failed waiting for 23 attempts", err.Error())
		assert.Equal(t, 23, timeout.Attempts)
		assert.ErrorIs(t, err, ErrTimeout)
	})

	t.Run("custom message keeps the attempt count", func(t *testing.T) {
		err := Until(ctx, func() bool { return false }, WithAttempts(1), WithWaitTime(oneMs), WithMessage("spinner never went away"))
		assert.EqualError(t, err, "spinner never went away (1 attempts)")
	})

	t.Run("negative options are clamped", func(t *testing.T) {
		calls := 0
		err := Until(ctx, func() bool { calls++; return false }, WithAttempts(-3), WithWaitTime(-time.Second))
		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})
}

func TestUntilOr(t *testing.T) {
	custom := errors.New("custom generated error")
	err := UntilOr(context.Background(), func() bool { return false }, func() error { return custom }, WithAttempts(11), WithWaitTime(oneMs))
	assert.Same(t, custom, err)
}

func TestFor(t *testing.T) {
	ctx := context.Background()

	t.Run("gets object", func(t *testing.T) {
		count := 0
		result, err := For(ctx, func() (string, bool) {
			if count++; count <= 10 {
				return "", false
			}
			return "TARGET", true
		}, WithWaitTime(oneMs))
		require.NoError(t, err)
		assert.Equal(t, 11, count)
		assert.Equal(t, "TARGET", result)
	})

	t.Run("zero value counts as absent with NonZero", func(t *testing.T) {
		values := []*int{nil, nil, new(int)}
		i := 0
		result, err := For(ctx, NonZero(func() *int { v := values[i]; i++; return v }), WithWaitTime(oneMs))
		require.NoError(t, err)
		assert.Same(t, values[2], result)
		assert.Equal(t, 3, i)
	})

	t.Run("exhaustion", func(t *testing.T) {
		result, err := For(ctx, func() (int, bool) { return 7, false }, WithAttempts(2), WithWaitTime(oneMs))
		assert.Zero(t, result)
		assert.EqualError(t, err, "failed to produce value for 2 attempts")
		assert.ErrorIs(t, err, ErrTimeout)
	})
}

func TestForOr(t *testing.T) {
	ctx := context.Background()
	never := func() (string, bool) { return "", false }

	t.Run("onFail error propagates", func(t *testing.T) {
		custom := errors.New("custom generated error")
		_, err := ForOr(ctx, never, func() (string, error) { return "", custom }, WithWaitTime(oneMs))
		assert.Same(t, custom, err)
	})

	t.Run("onFail fallback value", func(t *testing.T) {
		result, err := ForOr(ctx, never, func() (string, error) { return "DEFAULT", nil }, WithWaitTime(oneMs))
		require.NoError(t, err)
		assert.Equal(t, "DEFAULT", result)
	})
}

func TestRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("succeeds after failures", func(t *testing.T) {
		calls := 0
		err := Retry(ctx, func() error {
			if calls++; calls < 4 {
				return errors.New("not yet")
			}
			return nil
		}, WithWaitTime(oneMs))
		require.NoError(t, err)
		assert.Equal(t, 4, calls)
	})

	t.Run("exhaustion keeps the last failure", func(t *testing.T) {
		calls := 0
		var last error
		err := Retry(ctx, func() error {
			calls++
			last = fmt.Errorf("failure %d", calls)
			return last
		}, WithAttempts(4), WithWaitTime(oneMs))

		var timeout *TimeoutError
		require.ErrorAs(t, err, &timeout)
		assert.Equal(t, 5, calls)
		assert.Same(t, last, timeout.Cause)
		assert.Same(t, last, errors.Unwrap(err))
		assert.Equal(t, "failed validation for 4 attempts: failure 5", err.Error())
	})
}

func TestCancellation(t *testing.T) {
	boom := errors.New("browser said no")
	ctx, cancel := context.WithCancelCause(context.Background())
	calls := 0

	done := make(chan error, 1)
	go func() {
		done <- Until(ctx, func() bool { calls++; return false }, WithAttempts(1000), WithWaitTime(5*time.Millisecond))
	}()
	time.Sleep(20 * time.Millisecond)
	cancel(boom)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrTimeout)
		assert.ErrorIs(t, err, boom)
	case <-time.After(2 * time.Second):
		t.Fatal("wait did not stop after cancellation")
	}
	assert.Less(t, calls, 1000)
}

func TestRetryCancelledKeepsLastFailure(t *testing.T) {
	boom := errors.New("browser error")
	detached := errors.New("element still detached")
	ctx, cancel := context.WithCancelCause(context.Background())
	defer cancel(nil)

	calls := 0
	err := Retry(ctx, func() error {
		if calls++; calls == 3 {
			cancel(boom)
		}
		return detached
	}, WithAttempts(10), WithWaitTime(oneMs))

	var timeout *TimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, 3, calls)
	assert.True(t, timeout.Cancelled)
	assert.Equal(t, 3, timeout.Evaluations)
	assert.ErrorIs(t, err, detached)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, "failed validation: cancelled after 3 of 11 attempts", timeout.Message)
	assert.NotContains(t, err.Error(), "for 10 attempts")
}

func TestCancelledCustomMessage(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Until(ctx, func() bool { return false }, WithAttempts(4), WithMessage("banner never shown"))

	var timeout *TimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.Zero(t, timeout.Evaluations)
	assert.Equal(t, "banner never shown (cancelled after 0 of 5 attempts)", timeout.Message)
	assert.Same(t, context.Canceled, timeout.Cause)
}

func TestCancelledContextSkipsOnFail(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := UntilOr(ctx, func() bool { return false }, func() error { called = true; return nil })
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
