package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var errBoom = errors.New("boom")

func TestDoSucceedsFirstTime(t *testing.T) {
	t.Parallel()

	calls := 0
	got, err := Do(context.Background(), ModelPolicy(), func(context.Context, int) (string, error) {
		calls++
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 1, calls)
}

func TestDoModelPolicyCallsExactlyTwice(t *testing.T) {
	t.Parallel()

	calls := 0
	retried := 0
	p := ModelPolicy()
	p.OnRetry = func(attempt int, err error) {
		retried++
		assert.Equal(t, 1, attempt)
		assert.ErrorIs(t, err, errBoom)
	}
	_, err := Do(context.Background(), p, func(context.Context, int) (int, error) {
		calls++
		return 0, errBoom
	})
	require.ErrorIs(t, err, errBoom)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, retried)
}

func TestDoRecoversOnSecondAttempt(t *testing.T) {
	t.Parallel()

	got, err := Do(context.Background(), ModelPolicy(), func(_ context.Context, attempt int) (int, error) {
		if attempt == 1 {
			return 0, errBoom
		}
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestDoStopsOnNonRetryable(t *testing.T) {
	t.Parallel()

	calls := 0
	p := Policy{Attempts: 3, Retryable: func(error) bool { return false }}
	_, err := Do(context.Background(), p, func(context.Context, int) (int, error) {
		calls++
		return 0, errBoom
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoDoesNotRetryContextErrors(t *testing.T) {
	t.Parallel()

	calls := 0
	_, err := Do(context.Background(), ModelPolicy(), func(context.Context, int) (int, error) {
		calls++
		return 0, context.DeadlineExceeded
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, calls)
}

func TestDoCancelledContextSkipsCall(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	_, err := Do(ctx, ModelPolicy(), func(context.Context, int) (int, error) {
		calls++
		return 0, nil
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}

func TestDoBackoffAbortsWhenContextEnds(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	p := Policy{Attempts: 3, BaseDelay: time.Second}
	start := time.Now()
	_, err := Do(ctx, p, func(context.Context, int) (int, error) {
		return 0, errBoom
	})
	require.ErrorIs(t, err, errBoom)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestSQLitePolicyOnlyRetriesContention(t *testing.T) {
	t.Parallel()

	p := SQLitePolicy()
	p.BaseDelay = time.Millisecond
	calls := 0
	_, err := Do(context.Background(), p, func(context.Context, int) (int, error) {
		calls++
		return 0, errors.New("database is locked (5) (SQLITE_BUSY)")
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	_, err = Do(context.Background(), p, func(context.Context, int) (int, error) {
		calls++
		return 0, errors.New("no such table: tasks")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoNeverExceedsAttempts(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		attempts := rapid.IntRange(-2, 6).Draw(t, "attempts")
		failUntil := rapid.IntRange(0, 8).Draw(t, "failUntil")
		calls := 0
		_, err := Do(context.Background(), Policy{Attempts: attempts}, func(_ context.Context, attempt int) (int, error) {
			calls++
			if attempt <= failUntil {
				return 0, errBoom
			}
			return attempt, nil
		})

		limit := max(attempts, 1)
		if calls > limit {
			t.Fatalf("made %d calls with limit %d", calls, limit)
		}
		if failUntil < limit && err != nil {
			t.Fatalf("expected success on attempt %d, got %v", failUntil+1, err)
		}
		if failUntil >= limit && err == nil {
			t.Fatal("expected failure once attempts are exhausted")
		}
	})
}
