package prodmatch

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/prodmatch/calibrate"
	"github.com/hupe1980/prodmatch/catalog"
	"github.com/hupe1980/prodmatch/core"
	"github.com/hupe1980/prodmatch/extractor"
	"github.com/hupe1980/prodmatch/match"
	"github.com/hupe1980/prodmatch/transcript"
	"github.com/hupe1980/prodmatch/video"
)

// UnknownLabel is the label reported when no product reaches the match floor.
const UnknownLabel = "Unknown"

// Engine is the product identification facade: registration with automatic
// threshold calibration, single-image identification, video annotation and
// catalog-name text annotation.
//
// All methods are safe for concurrent use.
type Engine struct {
	store *catalog.Store
	ext   extractor.Extractor
	opts  options
}

// New creates an engine over the given catalog store and feature extractor.
func New(store *catalog.Store, ext extractor.Extractor, optFns ...Option) (*Engine, error) {
	if store == nil {
		return nil, errors.New("store must not be nil")
	}
	if ext == nil {
		return nil, errors.New("extractor must not be nil")
	}

	opts := applyOptions(optFns)

	// The descriptor store is authoritative. A listing left stale by a crash
	// between a store save and a listing sync is repaired here, at load.
	if opts.listing != nil {
		if _, err := opts.listing.Reconcile(store); err != nil {
			return nil, fmt.Errorf("reconcile listing: %w", err)
		}
	}

	return &Engine{
		store: store,
		ext:   ext,
		opts:  opts,
	}, nil
}

// Store returns the underlying catalog store.
func (e *Engine) Store() *catalog.Store {
	return e.store
}

// RegisterResult reports the outcome of a product registration.
type RegisterResult struct {
	// ProductID is the id assigned to the registered product.
	ProductID core.ProductID

	// Threshold is the calibrated contrast threshold the descriptors were
	// extracted at.
	Threshold float64

	// FeatureCount is the number of descriptors stored.
	FeatureCount int

	// Converged reports whether calibration reached the target tolerance.
	Converged bool

	// Message is a human-readable confirmation.
	Message string
}

// Register extracts features from a reference image and stores them as a new
// product. The detection threshold is calibrated per image before
// extraction. mask may be nil to use the full image.
//
// An image that yields no descriptors fails with ErrNoFeatures and leaves
// the catalog unchanged.
func (e *Engine) Register(ctx context.Context, name string, img, mask extractor.Image) (RegisterResult, error) {
	if name == "" {
		return RegisterResult{}, &ErrEmptyName{}
	}

	detect := e.opts.detect
	detect.Mask = mask

	cal, err := e.calibrate(ctx, img, detect)
	if err != nil {
		e.opts.logger.LogRegister(ctx, "", 0, 0, err)
		return RegisterResult{}, fmt.Errorf("calibrate: %w", err)
	}

	detect.ContrastThreshold = cal.Threshold

	desc, err := e.ext.DetectAndCompute(ctx, img, detect)
	if err != nil {
		e.opts.logger.LogRegister(ctx, "", 0, cal.Threshold, err)
		return RegisterResult{}, fmt.Errorf("detect: %w", err)
	}

	if desc.Empty() {
		e.opts.logger.LogRegister(ctx, "", 0, cal.Threshold, ErrNoFeatures)
		return RegisterResult{}, ErrNoFeatures
	}

	id := e.opts.newID()

	if err := e.store.Put(catalog.ProductRecord{
		ID:          id,
		Name:        name,
		Descriptors: desc,
	}); err != nil {
		err = translateError(err)
		e.opts.logger.LogRegister(ctx, id, desc.Count(), cal.Threshold, err)
		return RegisterResult{}, err
	}

	if err := e.persist(ctx); err != nil {
		e.opts.logger.LogRegister(ctx, id, desc.Count(), cal.Threshold, err)
		return RegisterResult{}, err
	}

	e.opts.logger.LogRegister(ctx, id, desc.Count(), cal.Threshold, nil)

	return RegisterResult{
		ProductID:    id,
		Threshold:    cal.Threshold,
		FeatureCount: desc.Count(),
		Converged:    cal.Converged,
		Message:      fmt.Sprintf("product %q registered with %d features", name, desc.Count()),
	}, nil
}

// PreviewResult is a calibration dry run: the keypoint visualization and
// count at the calibrated threshold.
type PreviewResult struct {
	Visualization []byte
	Count         int
	Threshold     float64
	Converged     bool
}

// Preview calibrates the detection threshold for an image and returns the
// keypoint visualization, without touching the catalog.
func (e *Engine) Preview(ctx context.Context, img extractor.Image) (PreviewResult, error) {
	cal, err := e.calibrate(ctx, img, e.opts.detect)
	if err != nil {
		return PreviewResult{}, fmt.Errorf("calibrate: %w", err)
	}

	return PreviewResult{
		Visualization: cal.Visualization,
		Count:         cal.Count,
		Threshold:     cal.Threshold,
		Converged:     cal.Converged,
	}, nil
}

func (e *Engine) calibrate(ctx context.Context, img extractor.Image, detect extractor.DetectOptions) (calibrate.Result, error) {
	probe := func(ctx context.Context, threshold float64) (int, []byte, error) {
		d := detect
		d.ContrastThreshold = threshold

		vis, count, err := e.ext.PreviewKeypoints(ctx, img, d)
		if err != nil {
			return 0, nil, err
		}
		return count, vis, nil
	}

	return calibrate.Search(ctx, probe, e.opts.calibration...)
}

// IdentifyResult reports the best catalog match for a query image.
type IdentifyResult struct {
	// Label is the matched product name, or UnknownLabel.
	Label string

	// ProductID is the matched product id, empty when unmatched.
	ProductID core.ProductID

	// MatchScore is the accepted-pair count of the best product, reported
	// even when it falls below the match floor.
	MatchScore int

	// Confidence is 1.0 for a match and 0.0 otherwise.
	Confidence float64
}

// Identify scans the catalog for the product best matching the query image.
// A featureless query is not an error; it reports UnknownLabel.
func (e *Engine) Identify(ctx context.Context, img extractor.Image) (IdentifyResult, error) {
	query, err := e.ext.DetectAndCompute(ctx, img, e.opts.detect)
	if err != nil {
		e.opts.logger.LogIdentify(ctx, "", 0, err)
		return IdentifyResult{}, fmt.Errorf("detect: %w", err)
	}

	res := match.Identify(e.store, query, e.opts.minMatchCount)

	out := IdentifyResult{
		Label:      UnknownLabel,
		MatchScore: res.Score,
	}
	if res.Matched {
		out.Label = res.Record.Name
		out.ProductID = res.Record.ID
		out.Confidence = 1.0
	}

	e.opts.logger.LogIdentify(ctx, out.Label, out.MatchScore, nil)

	return out, nil
}

// ProcessVideo scans a video for registered products and fuses the
// detections into its speech transcript. The visual scan and the
// transcription run concurrently; admission is controlled by the configured
// Limits.
//
// The returned script is the transcript text with product markers appended
// to segments that overlap detection windows.
func (e *Engine) ProcessVideo(ctx context.Context, media string) (string, error) {
	if e.opts.opener == nil || e.opts.transcriber == nil {
		return "", ErrNoVideoPipeline
	}

	release, err := e.opts.limits.AcquireJob(ctx)
	if err != nil {
		return "", fmt.Errorf("acquire job: %w", err)
	}
	defer release()

	var (
		windows  []video.Window
		segments []transcript.Segment
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		source, err := e.opts.opener.Open(gctx, media)
		if err != nil {
			return fmt.Errorf("open media: %w", err)
		}
		defer source.Close()

		samplerOpts := e.opts.sampler
		if limiter := e.opts.limits.FrameLimiter(); limiter != nil {
			samplerOpts = append(samplerOpts, func(o *video.SamplerOptions) {
				o.FrameLimiter = limiter
			})
		}

		sampler := video.NewSampler(source, e.ext, e.store, samplerOpts...)

		detections, err := sampler.Collect(gctx)
		if err != nil {
			return fmt.Errorf("scan media: %w", err)
		}

		windows = video.Aggregate(detections, e.opts.aggregation...)
		return nil
	})

	g.Go(func() error {
		var err error
		segments, err = e.opts.transcriber.Transcribe(gctx, media)
		if err != nil {
			return fmt.Errorf("transcribe media: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		e.opts.logger.LogVideo(ctx, media, 0, err)
		return "", err
	}

	script := transcript.Annotate(segments, e.resolveWindows(windows), e.opts.annotation...)

	e.opts.logger.LogVideo(ctx, media, len(windows), nil)

	return script, nil
}

// resolveWindows maps detection windows from dense LocalIDs back to product
// ids. LocalIDs without a live record are dropped.
func (e *Engine) resolveWindows(windows []video.Window) []transcript.Window {
	out := make([]transcript.Window, 0, len(windows))

	for _, w := range windows {
		tw := transcript.Window{Start: w.Start, End: w.End}

		it := w.Products.Iterator()
		for it.HasNext() {
			if rec, ok := e.store.ByLocalID(core.LocalID(it.Next())); ok {
				tw.Products = append(tw.Products, rec.ID)
			}
		}

		if len(tw.Products) > 0 {
			out = append(out, tw)
		}
	}

	return out
}

// AnnotateText appends product markers to free text wherever a registered
// product name occurs. The names come from the configured listing, or from
// the catalog when no listing is set.
func (e *Engine) AnnotateText(text string) (string, error) {
	entries, err := e.listingEntries()
	if err != nil {
		return "", err
	}

	return transcript.AnnotateByName(text, entries), nil
}

func (e *Engine) listingEntries() ([]catalog.ListingEntry, error) {
	if e.opts.listing != nil {
		entries, err := e.opts.listing.Read()
		if err != nil {
			return nil, fmt.Errorf("read listing: %w", err)
		}
		return entries, nil
	}

	records := e.store.All()
	entries := make([]catalog.ListingEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, catalog.ListingEntry{ID: rec.ID, Name: rec.Name})
	}
	return entries, nil
}

// Save persists the catalog and listing to their configured paths. A listing
// sync failure is logged, not returned; the listing is repaired at the next
// engine start.
func (e *Engine) Save(ctx context.Context) error {
	return e.persist(ctx)
}

func (e *Engine) persist(ctx context.Context) error {
	if e.opts.storePath != "" {
		if err := e.store.Save(e.opts.storePath); err != nil {
			e.opts.logger.LogSnapshot(ctx, e.opts.storePath, e.store.Len(), err)
			return fmt.Errorf("save catalog: %w", err)
		}
		e.opts.logger.LogSnapshot(ctx, e.opts.storePath, e.store.Len(), nil)
	}

	if e.opts.listing != nil {
		// A failed sync leaves the listing stale, not the store. The listing
		// is reconciled against the store on the next engine start.
		if err := e.opts.listing.Sync(e.store); err != nil {
			e.opts.logger.WarnContext(ctx, "listing sync failed",
				"error", err,
			)
		}
	}

	return nil
}
