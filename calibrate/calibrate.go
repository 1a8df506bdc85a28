// Package calibrate tunes the feature extractor's contrast threshold so a
// reference image yields a target keypoint count.
//
// Lower thresholds admit more keypoints, so the count is monotone-decreasing
// in the threshold. The search bisects the threshold range and keeps the best
// observed evaluation; exhausting the iteration budget is not fatal, the best
// triple is still usable.
package calibrate

import (
	"context"
	"fmt"
)

// Probe evaluates the extractor at a given threshold and reports the detected
// keypoint count plus an opaque visualization artifact for human inspection.
type Probe func(ctx context.Context, threshold float64) (count int, vis []byte, err error)

// Options contains configuration options for Search.
type Options struct {
	// Target is the desired keypoint count.
	Target int

	// Tolerance is the acceptable absolute deviation from Target.
	Tolerance int

	// Min and Max bound the threshold search range.
	Min float64
	Max float64

	// MaxIters is the bisection iteration budget.
	MaxIters int
}

// DefaultOptions contains the default configuration options for Search.
var DefaultOptions = Options{
	Target:    1500,
	Tolerance: 50,
	Min:       0.001,
	Max:       0.2,
	MaxIters:  8,
}

// Result is the best evaluation observed during a search.
type Result struct {
	// Threshold is the best threshold seen, by distance to the target count.
	Threshold float64

	// Count is the keypoint count observed at Threshold.
	Count int

	// Visualization is the probe artifact captured at Threshold.
	Visualization []byte

	// Converged reports whether Count is within tolerance of the target.
	Converged bool

	// Iterations is the number of probe evaluations performed.
	Iterations int
}

// Search bisects the threshold range for a count close to the target.
//
// The best observed (threshold, count, visualization) is tracked across all
// midpoints, not just the last, so a non-converged search still returns the
// closest evaluation. Given a deterministic probe, Search is deterministic.
func Search(ctx context.Context, probe Probe, optFns ...func(o *Options)) (Result, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Min >= opts.Max {
		return Result{}, fmt.Errorf("calibrate: invalid range [%g, %g]", opts.Min, opts.Max)
	}
	if opts.MaxIters <= 0 {
		return Result{}, fmt.Errorf("calibrate: invalid iteration budget %d", opts.MaxIters)
	}

	low, high := opts.Min, opts.Max

	var result Result
	bestDist := -1

	for i := 0; i < opts.MaxIters; i++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		mid := (low + high) / 2
		count, vis, err := probe(ctx, mid)
		if err != nil {
			return Result{}, fmt.Errorf("calibrate: probe at %g: %w", mid, err)
		}
		result.Iterations = i + 1

		dist := count - opts.Target
		if dist < 0 {
			dist = -dist
		}
		if bestDist < 0 || dist < bestDist {
			bestDist = dist
			result.Threshold = mid
			result.Count = count
			result.Visualization = vis
		}

		if dist <= opts.Tolerance {
			result.Converged = true
			break
		}

		if count < opts.Target {
			// Too few keypoints: lower thresholds admit more.
			high = mid
		} else {
			low = mid
		}
	}

	return result, nil
}
