package video

import (
	"context"
	"io"
	"testing"

	"github.com/hupe1980/prodmatch/catalog"
	"github.com/hupe1980/prodmatch/core"
	"github.com/hupe1980/prodmatch/extractor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	frames []Frame
	fps    float64
	pos    int
	closed bool
}

func (s *fakeSource) FPS() float64 { return s.fps }

func (s *fakeSource) Next() (Frame, error) {
	if s.pos >= len(s.frames) {
		return Frame{}, io.EOF
	}
	f := s.frames[s.pos]
	s.pos++
	return f, nil
}

func (s *fakeSource) Close() error {
	s.closed = true
	return nil
}

// fakeExtractor maps image bytes to canned descriptor sets.
type fakeExtractor struct {
	byImage map[string]core.Descriptors
}

func (e *fakeExtractor) DetectAndCompute(_ context.Context, img extractor.Image, _ extractor.DetectOptions) (core.Descriptors, error) {
	return e.byImage[string(img)], nil
}

func (e *fakeExtractor) PreviewKeypoints(context.Context, extractor.Image, extractor.DetectOptions) ([]byte, int, error) {
	return nil, 0, nil
}

func testStore(t *testing.T) *catalog.Store {
	t.Helper()
	s := catalog.NewStore()
	require.NoError(t, s.Put(catalog.ProductRecord{
		ID: "p1", Name: "Cola",
		Descriptors: core.Descriptors{Dim: 2, Data: []float32{0, 0, 10, 0, 0, 10}},
	}))
	require.NoError(t, s.Put(catalog.ProductRecord{
		ID: "p2", Name: "Pepsi",
		Descriptors: core.Descriptors{Dim: 2, Data: []float32{100, 100, 110, 100, 100, 110}},
	}))
	return s
}

// p1Query matches every p1 row unambiguously and no p2 row.
var p1Query = core.Descriptors{Dim: 2, Data: []float32{0, 0, 10, 0, 0, 10}}

func TestSampler(t *testing.T) {
	ctx := context.Background()

	t.Run("OncePerAdvancingSecond", func(t *testing.T) {
		// 30 frames over 3 seconds; only one frame per second is scanned.
		ext := &fakeExtractor{byImage: map[string]core.Descriptors{"show-p1": p1Query}}
		var frames []Frame
		for i := 0; i < 30; i++ {
			frames = append(frames, Frame{Time: float64(i) / 10, Image: extractor.Image("show-p1")})
		}
		src := &fakeSource{frames: frames, fps: 10}

		sampler := NewSampler(src, ext, testStore(t), func(o *SamplerOptions) { o.MinMatches = 3 })
		detections, err := sampler.Collect(ctx)
		require.NoError(t, err)

		require.Len(t, detections, 3)
		assert.Equal(t, 0.0, detections[0].Time)
		assert.Equal(t, 1.0, detections[1].Time)
		assert.Equal(t, 2.0, detections[2].Time)
	})

	t.Run("EveryNSeconds", func(t *testing.T) {
		ext := &fakeExtractor{byImage: map[string]core.Descriptors{"show-p1": p1Query}}
		var frames []Frame
		for i := 0; i < 50; i++ {
			frames = append(frames, Frame{Time: float64(i) / 10, Image: extractor.Image("show-p1")})
		}
		src := &fakeSource{frames: frames, fps: 10}

		sampler := NewSampler(src, ext, testStore(t), func(o *SamplerOptions) {
			o.MinMatches = 3
			o.EveryNSeconds = 2
		})
		detections, err := sampler.Collect(ctx)
		require.NoError(t, err)

		require.Len(t, detections, 3)
		assert.Equal(t, 0.0, detections[0].Time)
		assert.Equal(t, 2.0, detections[1].Time)
		assert.Equal(t, 4.0, detections[2].Time)
	})

	t.Run("DetectionCarriesLocalIDs", func(t *testing.T) {
		ext := &fakeExtractor{byImage: map[string]core.Descriptors{"show-p1": p1Query}}
		src := &fakeSource{frames: []Frame{{Time: 0, Image: extractor.Image("show-p1")}}, fps: 1}
		store := testStore(t)

		sampler := NewSampler(src, ext, store, func(o *SamplerOptions) { o.MinMatches = 3 })
		det, err := sampler.Next(ctx)
		require.NoError(t, err)

		lid, ok := store.LocalID("p1")
		require.True(t, ok)
		assert.True(t, det.Products.Contains(uint32(lid)))
		assert.Equal(t, uint64(1), det.Products.GetCardinality())
	})

	t.Run("FramesWithoutFeaturesSkipped", func(t *testing.T) {
		ext := &fakeExtractor{byImage: map[string]core.Descriptors{"show-p1": p1Query}}
		src := &fakeSource{frames: []Frame{
			{Time: 0, Image: extractor.Image("blank")},
			{Time: 1, Image: extractor.Image("show-p1")},
		}, fps: 1}

		sampler := NewSampler(src, ext, testStore(t), func(o *SamplerOptions) { o.MinMatches = 3 })
		detections, err := sampler.Collect(ctx)
		require.NoError(t, err)

		require.Len(t, detections, 1)
		assert.Equal(t, 1.0, detections[0].Time)
	})

	t.Run("TimestampsFromFrameIndex", func(t *testing.T) {
		// Source cannot report positions (Time < 0); index/FPS is used.
		ext := &fakeExtractor{byImage: map[string]core.Descriptors{"show-p1": p1Query}}
		var frames []Frame
		for i := 0; i < 10; i++ {
			frames = append(frames, Frame{Time: -1, Image: extractor.Image("show-p1")})
		}
		src := &fakeSource{frames: frames, fps: 5}

		sampler := NewSampler(src, ext, testStore(t), func(o *SamplerOptions) { o.MinMatches = 3 })
		detections, err := sampler.Collect(ctx)
		require.NoError(t, err)

		require.Len(t, detections, 2) // seconds 0 and 1
		assert.Equal(t, 0.0, detections[0].Time)
		assert.Equal(t, 1.0, detections[1].Time)
	})

	t.Run("NoTimestampsNoFPS", func(t *testing.T) {
		ext := &fakeExtractor{byImage: map[string]core.Descriptors{}}
		src := &fakeSource{frames: []Frame{{Time: -1}}, fps: 0}

		sampler := NewSampler(src, ext, testStore(t))
		_, err := sampler.Next(ctx)
		assert.ErrorIs(t, err, ErrMediaUnreadable)
	})

	t.Run("ContextCancel", func(t *testing.T) {
		canceled, cancel := context.WithCancel(ctx)
		cancel()

		ext := &fakeExtractor{byImage: map[string]core.Descriptors{}}
		src := &fakeSource{frames: []Frame{{Time: 0}}, fps: 1}

		sampler := NewSampler(src, ext, testStore(t))
		_, err := sampler.Next(canceled)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
