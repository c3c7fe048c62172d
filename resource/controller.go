// Package resource manages process-wide resource limits for background work.
package resource

import (
	"context"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds resource limits.
type Config struct {
	// MaxBuilders is the maximum number of concurrent index builds.
	// If 0, defaults to 1.
	MaxBuilders int64

	// SnapshotBytesPerSec is the maximum IO throughput for snapshot
	// save/load. If 0, unlimited.
	SnapshotBytesPerSec int64
}

// Controller bounds index-build concurrency and snapshot IO.
type Controller struct {
	cfg Config

	buildSem  *semaphore.Weighted
	ioLimiter *rate.Limiter
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxBuilders <= 0 {
		cfg.MaxBuilders = 1
	}

	c := &Controller{
		cfg:      cfg,
		buildSem: semaphore.NewWeighted(cfg.MaxBuilders),
	}

	if cfg.SnapshotBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.SnapshotBytesPerSec), int(cfg.SnapshotBytesPerSec))
	}

	return c
}

// AcquireBuild reserves an index-build slot, blocking until one is free or
// ctx is canceled. A nil controller never blocks.
func (c *Controller) AcquireBuild(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.buildSem.Acquire(ctx, 1)
}

// ReleaseBuild releases an index-build slot.
func (c *Controller) ReleaseBuild() {
	if c == nil {
		return
	}
	c.buildSem.Release(1)
}

// ThrottleIO waits until the IO limit allows the specified number of bytes.
func (c *Controller) ThrottleIO(ctx context.Context, bytes int) error {
	if c == nil || c.ioLimiter == nil {
		return nil
	}
	// WaitN cannot exceed the limiter burst; larger writes are split.
	burst := c.ioLimiter.Burst()
	for bytes > 0 {
		n := bytes
		if n > burst {
			n = burst
		}
		if err := c.ioLimiter.WaitN(ctx, n); err != nil {
			return err
		}
		bytes -= n
	}
	return nil
}
