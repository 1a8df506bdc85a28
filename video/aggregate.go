package video

import (
	"math"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
)

// AggregateOptions contains configuration options for Aggregate.
type AggregateOptions struct {
	// WindowSize is the bucket duration in seconds.
	WindowSize float64

	// MinFrames is the minimum vote count for a product to survive a window.
	MinFrames int
}

// DefaultAggregateOptions contains the default configuration options for
// Aggregate.
var DefaultAggregateOptions = AggregateOptions{
	WindowSize: 1.0,
	MinFrames:  5,
}

// Window is a fixed-duration time bucket with the products that gathered
// enough votes across the detections falling inside it.
type Window struct {
	Start    float64
	End      float64
	Products *roaring.Bitmap
}

// Aggregate groups raw detections into fixed windows by majority voting.
//
// Detections are bucketed by floor(time/windowSize). Within each bucket the
// per-product vote count is the number of detections containing the product;
// products below MinFrames are dropped, and windows left empty are dropped
// entirely. The result is ordered by window start and windows never overlap.
func Aggregate(detections []Detection, optFns ...func(o *AggregateOptions)) []Window {
	opts := DefaultAggregateOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.WindowSize <= 0 {
		opts.WindowSize = DefaultAggregateOptions.WindowSize
	}
	if opts.MinFrames <= 0 {
		opts.MinFrames = 1
	}

	votes := make(map[int64]map[uint32]int)
	for _, det := range detections {
		if det.Products == nil || det.Products.IsEmpty() {
			continue
		}
		bucket := int64(math.Floor(det.Time / opts.WindowSize))
		counter, ok := votes[bucket]
		if !ok {
			counter = make(map[uint32]int)
			votes[bucket] = counter
		}
		it := det.Products.Iterator()
		for it.HasNext() {
			counter[it.Next()]++
		}
	}

	windows := make([]Window, 0, len(votes))
	for bucket, counter := range votes {
		survivors := roaring.New()
		for lid, count := range counter {
			if count >= opts.MinFrames {
				survivors.Add(lid)
			}
		}
		if survivors.IsEmpty() {
			continue
		}
		windows = append(windows, Window{
			Start:    float64(bucket) * opts.WindowSize,
			End:      float64(bucket+1) * opts.WindowSize,
			Products: survivors,
		})
	}

	sort.Slice(windows, func(i, j int) bool { return windows[i].Start < windows[j].Start })
	return windows
}
