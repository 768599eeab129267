package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:    attempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2,
	}
}

func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastRetry(3), "test", func(context.Context) error {
		calls++
		if calls < 3 {
			return Transient(errors.New("boom"), 503)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoStopsOnNonTransient(t *testing.T) {
	calls := 0
	permanent := eris.New("bad request")
	err := Do(context.Background(), fastRetry(5), "test", func(context.Context) error {
		calls++
		return permanent
	})
	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestDoExhaustsAttemptBudget(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastRetry(4), "test", func(context.Context) error {
		calls++
		return Transient(errors.New("still down"), 502)
	})
	require.Error(t, err)
	assert.Equal(t, 4, calls)
}

func TestDoValReturnsValue(t *testing.T) {
	calls := 0
	got, err := DoVal(context.Background(), fastRetry(3), "test", func(context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", Transient(errors.New("flaky"), 500)
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
}

func TestDoStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Do(ctx, fastRetry(10), "test", func(context.Context) error {
		calls++
		cancel()
		return Transient(errors.New("down"), 503)
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(Transient(errors.New("x"), 429)))
	assert.True(t, IsTransient(eris.Wrap(Transient(errors.New("x"), 503), "outer")))
	assert.True(t, IsTransient(errors.New("read tcp: i/o timeout")))
	assert.False(t, IsTransient(errors.New("record not found")))
	assert.False(t, IsTransient(nil))
}
