package throttle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCooldownGrowsAndCaps(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := New(time.Minute, 5*time.Minute).WithNow(func() time.Time { return fixed })

	// Three consecutive blocks: strictly increasing, then capped.
	first := c.OnBlock()
	second := c.OnBlock()
	third := c.OnBlock()
	assert.Equal(t, time.Minute, first)
	assert.Equal(t, 2*time.Minute, second)
	assert.Equal(t, 4*time.Minute, third)
	assert.Greater(t, second, first)
	assert.Greater(t, third, second)

	// Next one hits the cap.
	assert.Equal(t, 5*time.Minute, c.OnBlock())
	assert.Equal(t, 5*time.Minute, c.OnBlock())
	assert.Equal(t, fixed.Add(5*time.Minute), c.CooldownUntil())
}

func TestSuccessDecaysBlockCounter(t *testing.T) {
	c := New(time.Second, time.Minute)

	c.OnBlock()
	c.OnBlock()
	assert.True(t, c.Blocked())

	c.OnSuccess()
	assert.True(t, c.Blocked())
	c.OnSuccess()
	assert.False(t, c.Blocked())

	// Floor at zero.
	c.OnSuccess()
	assert.False(t, c.Blocked())

	// And the next block starts from the base again.
	assert.Equal(t, time.Second, c.OnBlock())
}

func TestWaitReturnsImmediatelyWithoutCooldown(t *testing.T) {
	c := New(time.Minute, 5*time.Minute)

	start := time.Now()
	require.NoError(t, c.Wait(context.Background()))
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestWaitHonorsContextCancellation(t *testing.T) {
	c := New(time.Hour, 2*time.Hour)
	c.OnBlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := c.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTotalBlocksSurvivesDecay(t *testing.T) {
	c := New(time.Second, time.Minute)
	c.OnBlock()
	c.OnSuccess()
	c.OnBlock()
	assert.Equal(t, 2, c.TotalBlocks())
}
