package prodmatch

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/hupe1980/prodmatch/calibrate"
	"github.com/hupe1980/prodmatch/catalog"
	"github.com/hupe1980/prodmatch/core"
	"github.com/hupe1980/prodmatch/extractor"
	"github.com/hupe1980/prodmatch/match"
	"github.com/hupe1980/prodmatch/transcript"
	"github.com/hupe1980/prodmatch/video"
)

type options struct {
	logger        *Logger
	storePath     string
	listing       *catalog.Listing
	newID         func() core.ProductID
	detect        extractor.DetectOptions
	minMatchCount int
	calibration   []func(*calibrate.Options)
	sampler       []func(*video.SamplerOptions)
	aggregation   []func(*video.AggregateOptions)
	annotation    []func(*transcript.AnnotateOptions)
	limits        *video.Limits
	opener        video.Opener
	transcriber   video.Transcriber
}

// Option configures Engine behavior.
type Option func(*options)

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := prodmatch.NewJSONLogger(slog.LevelInfo)
//	engine, _ := prodmatch.New(store, ext, prodmatch.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithStorePath configures the path the catalog is persisted to after every
// successful registration. When empty, the engine keeps the catalog in
// memory only.
func WithStorePath(path string) Option {
	return func(o *options) {
		o.storePath = path
	}
}

// WithListing configures the human-readable product listing kept in sync
// with the catalog. The listing also feeds the name-based text annotator.
func WithListing(l *catalog.Listing) Option {
	return func(o *options) {
		o.listing = l
	}
}

// WithIDGenerator configures how product ids are assigned at registration.
// The default generates random UUIDs.
func WithIDGenerator(fn func() core.ProductID) Option {
	return func(o *options) {
		if fn != nil {
			o.newID = fn
		}
	}
}

// WithDetectOptions configures the base feature detection parameters. The
// contrast threshold is overridden per image by calibration.
func WithDetectOptions(opts extractor.DetectOptions) Option {
	return func(o *options) {
		o.detect = opts
	}
}

// WithMinMatchCount configures the minimum accepted-pair count for a query
// image to count as identified.
func WithMinMatchCount(n int) Option {
	return func(o *options) {
		o.minMatchCount = n
	}
}

// WithCalibration configures the threshold calibration search, e.g. the
// target keypoint count or the iteration budget.
func WithCalibration(optFns ...func(*calibrate.Options)) Option {
	return func(o *options) {
		o.calibration = append(o.calibration, optFns...)
	}
}

// WithSampler configures the video frame sampler, e.g. the sampling cadence
// or the per-frame match floor.
func WithSampler(optFns ...func(*video.SamplerOptions)) Option {
	return func(o *options) {
		o.sampler = append(o.sampler, optFns...)
	}
}

// WithAggregation configures the detection vote aggregation, e.g. window
// size or the minimum frame votes.
func WithAggregation(optFns ...func(*video.AggregateOptions)) Option {
	return func(o *options) {
		o.aggregation = append(o.aggregation, optFns...)
	}
}

// WithAnnotation configures transcript annotation, e.g. the minimum word
// count or the presence ratio.
func WithAnnotation(optFns ...func(*transcript.AnnotateOptions)) Option {
	return func(o *options) {
		o.annotation = append(o.annotation, optFns...)
	}
}

// WithLimits configures admission control for video jobs: a bound on
// concurrent jobs and an optional frame rate limit.
func WithLimits(l *video.Limits) Option {
	return func(o *options) {
		o.limits = l
	}
}

// WithOpener configures the media opener used by ProcessVideo.
func WithOpener(op video.Opener) Option {
	return func(o *options) {
		o.opener = op
	}
}

// WithTranscriber configures the speech-to-text collaborator used by
// ProcessVideo.
func WithTranscriber(tr video.Transcriber) Option {
	return func(o *options) {
		o.transcriber = tr
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		logger: NoopLogger(),
		newID: func() core.ProductID {
			return core.ProductID(uuid.NewString())
		},
		minMatchCount: match.DefaultMinMatchCount,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
