package video

import (
	"context"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/prodmatch/catalog"
	"github.com/hupe1980/prodmatch/extractor"
	"github.com/hupe1980/prodmatch/match"
	"golang.org/x/time/rate"
)

// DefaultMinMatches is the per-product match floor for sampled video frames.
// It is far above the still-image floor because video frames are noisy.
const DefaultMinMatches = 130

// SamplerOptions contains configuration options for a Sampler.
type SamplerOptions struct {
	// EveryNSeconds is the sampling cadence: one frame is processed per N
	// elapsed integer seconds.
	EveryNSeconds int

	// MinMatches is the score floor for a product to count as visible in a
	// sampled frame.
	MinMatches int

	// Detect configures the extractor call for sampled frames.
	Detect extractor.DetectOptions

	// FrameLimiter optionally throttles frame admission. Nil means
	// unlimited.
	FrameLimiter *rate.Limiter
}

// DefaultSamplerOptions contains the default configuration options for a
// Sampler.
var DefaultSamplerOptions = SamplerOptions{
	EveryNSeconds: 1,
	MinMatches:    DefaultMinMatches,
}

// Sampler lazily pulls frames from a source and emits one Detection per
// sampled frame that shows at least one product.
//
// Sampling cadence: a frame is selected the first time its truncated
// timestamp advances past the previously selected second and that second is
// a multiple of EveryNSeconds, so at most one frame is processed per elapsed
// second regardless of the stream frame rate.
type Sampler struct {
	source FrameSource
	ext    extractor.Extractor
	store  *catalog.Store
	opts   SamplerOptions

	frameIdx     int
	lastSelected int
}

// NewSampler creates a sampler over an open frame source.
func NewSampler(source FrameSource, ext extractor.Extractor, store *catalog.Store, optFns ...func(o *SamplerOptions)) *Sampler {
	opts := DefaultSamplerOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.EveryNSeconds <= 0 {
		opts.EveryNSeconds = 1
	}
	if opts.MinMatches <= 0 {
		opts.MinMatches = DefaultMinMatches
	}

	return &Sampler{
		source:       source,
		ext:          ext,
		store:        store,
		opts:         opts,
		lastSelected: -1,
	}
}

// Next returns the next non-empty Detection, or io.EOF when the stream ends.
func (s *Sampler) Next(ctx context.Context) (Detection, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Detection{}, err
		}

		frame, err := s.source.Next()
		if err != nil {
			return Detection{}, err
		}
		idx := s.frameIdx
		s.frameIdx++

		t := frame.Time
		if t < 0 {
			// Source cannot report positions; derive from index and rate.
			fps := s.source.FPS()
			if fps <= 0 {
				return Detection{}, fmt.Errorf("%w: no timestamps and unknown frame rate", ErrMediaUnreadable)
			}
			t = float64(idx) / fps
		}

		sec := int(t)
		if sec <= s.lastSelected || sec%s.opts.EveryNSeconds != 0 {
			continue
		}
		s.lastSelected = sec

		if s.opts.FrameLimiter != nil {
			if err := s.opts.FrameLimiter.Wait(ctx); err != nil {
				return Detection{}, err
			}
		}

		det, ok, err := s.scan(ctx, t, frame.Image)
		if err != nil {
			return Detection{}, err
		}
		if ok {
			return det, nil
		}
	}
}

func (s *Sampler) scan(ctx context.Context, t float64, img extractor.Image) (Detection, bool, error) {
	query, err := s.ext.DetectAndCompute(ctx, img, s.opts.Detect)
	if err != nil {
		return Detection{}, false, fmt.Errorf("video: detect at %.2fs: %w", t, err)
	}
	if query.Empty() {
		return Detection{}, false, nil
	}

	visible := roaring.New()
	for _, rec := range s.store.All() {
		if match.Score(query, rec.Descriptors) >= s.opts.MinMatches {
			if lid, ok := s.store.LocalID(rec.ID); ok {
				visible.Add(uint32(lid))
			}
		}
	}
	if visible.IsEmpty() {
		return Detection{}, false, nil
	}

	return Detection{Time: t, Products: visible}, true, nil
}

// Collect drains the sampler into a slice. The source is left at EOF.
func (s *Sampler) Collect(ctx context.Context) ([]Detection, error) {
	var detections []Detection
	for {
		det, err := s.Next(ctx)
		if err != nil {
			if isEOF(err) {
				return detections, nil
			}
			return nil, err
		}
		detections = append(detections, det)
	}
}
