package calibrate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countModel builds a probe with a monotone-decreasing count curve:
// count = scale / threshold.
func countModel(scale float64) Probe {
	return func(_ context.Context, threshold float64) (int, []byte, error) {
		return int(scale / threshold), []byte("vis"), nil
	}
}

func TestSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("Converges", func(t *testing.T) {
		// scale 60: count(0.04) = 1500 exactly.
		result, err := Search(ctx, countModel(60))
		require.NoError(t, err)

		assert.True(t, result.Converged)
		assert.InDelta(t, 1500, result.Count, 50)
		assert.LessOrEqual(t, result.Iterations, DefaultOptions.MaxIters)
	})

	t.Run("WithinToleranceOrBudgetExhausted", func(t *testing.T) {
		for _, scale := range []float64{5, 20, 60, 150, 400} {
			result, err := Search(ctx, countModel(scale))
			require.NoError(t, err)

			dist := result.Count - DefaultOptions.Target
			if dist < 0 {
				dist = -dist
			}
			if !result.Converged {
				assert.Equal(t, DefaultOptions.MaxIters, result.Iterations, "scale %g", scale)
			} else {
				assert.LessOrEqual(t, dist, DefaultOptions.Tolerance, "scale %g", scale)
			}
		}
	})

	t.Run("NonconvergenceKeepsBestObserved", func(t *testing.T) {
		// Unreachable target: every count is far off, best is still tracked.
		calls := 0
		counts := []int{10, 4000, 900, 2100, 1200, 1800, 1350, 1700}
		probe := func(_ context.Context, threshold float64) (int, []byte, error) {
			c := counts[calls%len(counts)]
			calls++
			return c, []byte{byte(calls)}, nil
		}

		result, err := Search(ctx, probe, func(o *Options) { o.Tolerance = 10 })
		require.NoError(t, err)

		assert.False(t, result.Converged)
		assert.Equal(t, DefaultOptions.MaxIters, result.Iterations)
		assert.Equal(t, 1350, result.Count) // closest to 1500 across all midpoints
		assert.Equal(t, []byte{7}, result.Visualization)
	})

	t.Run("Deterministic", func(t *testing.T) {
		a, err := Search(ctx, countModel(33))
		require.NoError(t, err)
		b, err := Search(ctx, countModel(33))
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("ProbeError", func(t *testing.T) {
		probeErr := errors.New("camera on fire")
		_, err := Search(ctx, func(context.Context, float64) (int, []byte, error) {
			return 0, nil, probeErr
		})
		assert.ErrorIs(t, err, probeErr)
	})

	t.Run("ContextCancel", func(t *testing.T) {
		canceled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := Search(canceled, countModel(60))
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("InvalidOptions", func(t *testing.T) {
		_, err := Search(ctx, countModel(60), func(o *Options) { o.Min = 1; o.Max = 0.5 })
		assert.Error(t, err)

		_, err = Search(ctx, countModel(60), func(o *Options) { o.MaxIters = 0 })
		assert.Error(t, err)
	})
}
