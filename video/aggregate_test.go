package video

import (
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bitmap(ids ...uint32) *roaring.Bitmap {
	b := roaring.New()
	b.AddMany(ids)
	return b
}

func TestAggregate(t *testing.T) {
	t.Run("MajorityVoteKeepsFrequentProducts", func(t *testing.T) {
		// Product 1 appears in 5 of 6 detections in bucket 0, product 2 in 3.
		var detections []Detection
		for i := 0; i < 6; i++ {
			products := bitmap(1)
			if i < 2 {
				products.Add(2)
			}
			if i == 5 {
				products = bitmap(2)
			}
			detections = append(detections, Detection{Time: float64(i) * 0.15, Products: products})
		}

		windows := Aggregate(detections, func(o *AggregateOptions) { o.MinFrames = 5 })
		require.Len(t, windows, 1)
		assert.Equal(t, 0.0, windows[0].Start)
		assert.Equal(t, 1.0, windows[0].End)
		assert.True(t, windows[0].Products.Contains(1))
		assert.False(t, windows[0].Products.Contains(2))
	})

	t.Run("EmptyWindowsDropped", func(t *testing.T) {
		detections := []Detection{
			{Time: 0.1, Products: bitmap(1)},
			{Time: 0.2, Products: bitmap(1)},
		}

		windows := Aggregate(detections, func(o *AggregateOptions) { o.MinFrames = 5 })
		assert.Empty(t, windows)
	})

	t.Run("OrderedNonOverlapping", func(t *testing.T) {
		detections := []Detection{
			{Time: 7.2, Products: bitmap(2)},
			{Time: 0.4, Products: bitmap(1)},
			{Time: 3.9, Products: bitmap(3)},
		}

		windows := Aggregate(detections, func(o *AggregateOptions) { o.MinFrames = 1 })
		require.Len(t, windows, 3)
		for i := 0; i < len(windows); i++ {
			assert.Less(t, windows[i].Start, windows[i].End)
			if i > 0 {
				assert.GreaterOrEqual(t, windows[i].Start, windows[i-1].End)
			}
		}
		assert.Equal(t, 0.0, windows[0].Start)
		assert.Equal(t, 3.0, windows[1].Start)
		assert.Equal(t, 7.0, windows[2].Start)
	})

	t.Run("WindowSize", func(t *testing.T) {
		detections := []Detection{
			{Time: 0.5, Products: bitmap(1)},
			{Time: 1.5, Products: bitmap(1)},
		}

		windows := Aggregate(detections, func(o *AggregateOptions) {
			o.WindowSize = 2.0
			o.MinFrames = 2
		})
		require.Len(t, windows, 1)
		assert.Equal(t, 0.0, windows[0].Start)
		assert.Equal(t, 2.0, windows[0].End)
	})

	t.Run("IdempotentOnWindowSize", func(t *testing.T) {
		detections := []Detection{
			{Time: 0.1, Products: bitmap(1)},
			{Time: 0.6, Products: bitmap(1)},
			{Time: 2.3, Products: bitmap(2)},
		}
		windows := Aggregate(detections, func(o *AggregateOptions) { o.MinFrames = 2 })

		// Feeding the aggregated windows back as detections with the same
		// window size reproduces them unchanged.
		var again []Detection
		for _, w := range windows {
			again = append(again, Detection{Time: w.Start, Products: w.Products})
		}
		rewindows := Aggregate(again, func(o *AggregateOptions) { o.MinFrames = 1 })
		assert.Equal(t, windows, rewindows)
	})

	t.Run("NilAndEmptyDetectionsIgnored", func(t *testing.T) {
		detections := []Detection{
			{Time: 0.1, Products: nil},
			{Time: 0.2, Products: roaring.New()},
		}
		assert.Empty(t, Aggregate(detections, func(o *AggregateOptions) { o.MinFrames = 1 }))
	})
}
