package video

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimits(t *testing.T) {
	ctx := context.Background()

	t.Run("NilLimitsAreUnlimited", func(t *testing.T) {
		var l *Limits
		release, err := l.AcquireJob(ctx)
		require.NoError(t, err)
		release()
		assert.Nil(t, l.FrameLimiter())
	})

	t.Run("JobSlots", func(t *testing.T) {
		l := NewLimits(LimitsConfig{MaxConcurrentJobs: 1})

		release, err := l.AcquireJob(ctx)
		require.NoError(t, err)

		// Second acquire blocks until the first job releases.
		short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		_, err = l.AcquireJob(short)
		assert.ErrorIs(t, err, context.DeadlineExceeded)

		release()
		release2, err := l.AcquireJob(ctx)
		require.NoError(t, err)
		release2()
	})

	t.Run("CanceledContext", func(t *testing.T) {
		l := NewLimits(LimitsConfig{MaxConcurrentJobs: 1})
		canceled, cancel := context.WithCancel(ctx)
		cancel()

		release, err := l.AcquireJob(ctx)
		require.NoError(t, err)
		defer release()

		_, err = l.AcquireJob(canceled)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("FrameLimiterConfigured", func(t *testing.T) {
		l := NewLimits(LimitsConfig{FramesPerSec: 100})
		require.NotNil(t, l.FrameLimiter())
		require.NoError(t, l.FrameLimiter().Wait(ctx))
	})
}
