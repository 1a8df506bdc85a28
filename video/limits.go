package video

import (
	"context"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// LimitsConfig holds resource limits for video processing.
type LimitsConfig struct {
	// MaxConcurrentJobs bounds concurrently running video scans.
	// If 0, defaults to 1.
	MaxConcurrentJobs int64

	// FramesPerSec throttles frame admission across a job.
	// If 0, unlimited.
	FramesPerSec float64
}

// Limits gates video jobs and frame admission. A scan holds a job slot for
// its whole duration and every sampled frame passes the rate limiter, so a
// canceled context stops an in-flight scan at the next frame boundary.
//
// A nil *Limits applies no limits.
type Limits struct {
	jobs   *semaphore.Weighted
	frames *rate.Limiter
}

// NewLimits creates a limiter from the config.
func NewLimits(cfg LimitsConfig) *Limits {
	if cfg.MaxConcurrentJobs <= 0 {
		cfg.MaxConcurrentJobs = 1
	}

	l := &Limits{
		jobs: semaphore.NewWeighted(cfg.MaxConcurrentJobs),
	}
	if cfg.FramesPerSec > 0 {
		l.frames = rate.NewLimiter(rate.Limit(cfg.FramesPerSec), int(cfg.FramesPerSec)+1)
	}
	return l
}

// AcquireJob blocks until a job slot is free or ctx is canceled. The returned
// release function must be called exactly once.
func (l *Limits) AcquireJob(ctx context.Context) (release func(), err error) {
	if l == nil {
		return func() {}, nil
	}
	if err := l.jobs.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return func() { l.jobs.Release(1) }, nil
}

// FrameLimiter returns the frame admission limiter, or nil when unlimited.
func (l *Limits) FrameLimiter() *rate.Limiter {
	if l == nil {
		return nil
	}
	return l.frames
}
