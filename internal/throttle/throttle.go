// Package throttle tracks block signals from the search engine and computes
// a shared cooldown deadline for the whole worker pool.
package throttle

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Controller holds the block counter and the cooldown-until timestamp shared
// by every worker. Blocks grow the cooldown exponentially up to a cap; clean
// successes decay the counter back toward zero so sustained good behavior
// restores full throughput.
type Controller struct {
	mu       sync.Mutex
	base     time.Duration
	max      time.Duration
	blocks   int
	until    time.Time
	totalHit int

	now func() time.Time
}

// New creates a controller with the given base cooldown and cap.
func New(base, max time.Duration) *Controller {
	if base <= 0 {
		base = 30 * time.Second
	}
	if max <= 0 {
		max = 15 * time.Minute
	}
	return &Controller{base: base, max: max, now: time.Now}
}

// WithNow sets a fixed clock for testing.
func (c *Controller) WithNow(now func() time.Time) *Controller {
	c.now = now
	return c
}

// OnBlock registers a block/CAPTCHA signal and extends the shared cooldown to
// min(base * 2^blocks, cap). Returns the applied cooldown duration.
func (c *Controller) OnBlock() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	cooldown := c.base << c.blocks
	if cooldown > c.max || cooldown <= 0 {
		cooldown = c.max
	}
	c.blocks++
	c.totalHit++
	c.until = c.now().Add(cooldown)

	zap.L().Warn("block signal: entering cooldown",
		zap.Duration("cooldown", cooldown),
		zap.Int("block_count", c.blocks),
	)
	return cooldown
}

// OnSuccess decays the block counter by one, floored at zero.
func (c *Controller) OnSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.blocks > 0 {
		c.blocks--
	}
}

// Blocked reports whether the block counter is nonzero. Worker-pool scale-up
// is suspended while it is.
func (c *Controller) Blocked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.blocks > 0
}

// CooldownUntil returns the current shared deadline.
func (c *Controller) CooldownUntil() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.until
}

// TotalBlocks returns the number of block signals seen over the run.
func (c *Controller) TotalBlocks() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalHit
}

// Wait sleeps out any active cooldown. Every request goes through here first.
func (c *Controller) Wait(ctx context.Context) error {
	c.mu.Lock()
	remaining := c.until.Sub(c.now())
	c.mu.Unlock()

	if remaining <= 0 {
		return nil
	}

	timer := time.NewTimer(remaining)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
