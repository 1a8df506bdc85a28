// Package extractor defines the boundary to the external feature extraction
// collaborator. The engine never interprets image bytes itself; descriptor
// detection, keypoint visualization and their tuning knobs live behind this
// interface.
package extractor

import (
	"context"

	"github.com/hupe1980/prodmatch/core"
)

// Image is raw, undecoded image bytes in whatever container the configured
// extractor accepts.
type Image []byte

// Default detection parameters, matching common SIFT-style extractors.
const (
	DefaultContrastThreshold = 0.04
	DefaultEdgeThreshold     = 10
)

// DetectOptions contains configuration options for a detection call. All
// fields are optional; zero values select the documented defaults.
type DetectOptions struct {
	// Mask restricts detection to non-zero mask pixels. Nil means the whole
	// image.
	Mask []byte

	// ContrastThreshold filters weak features; lower values admit more
	// keypoints. Zero selects DefaultContrastThreshold.
	ContrastThreshold float64

	// EdgeThreshold filters edge-like features. Zero selects
	// DefaultEdgeThreshold.
	EdgeThreshold float64
}

// Normalize returns a copy with defaults applied to zero fields.
func (o DetectOptions) Normalize() DetectOptions {
	if o.ContrastThreshold == 0 {
		o.ContrastThreshold = DefaultContrastThreshold
	}
	if o.EdgeThreshold == 0 {
		o.EdgeThreshold = DefaultEdgeThreshold
	}
	return o
}

// Extractor detects local features in images. Implementations are external
// collaborators (a SIFT service, a CLI bridge, a test fake) and must be safe
// for concurrent use.
type Extractor interface {
	// DetectAndCompute returns the descriptor set for an image. An image with
	// no detectable features yields an empty set and a nil error.
	DetectAndCompute(ctx context.Context, img Image, opts DetectOptions) (core.Descriptors, error)

	// PreviewKeypoints returns an opaque visualization artifact of the
	// detected keypoints plus their count, for human inspection and
	// threshold calibration. It never computes descriptors.
	PreviewKeypoints(ctx context.Context, img Image, opts DetectOptions) (vis []byte, count int, err error)
}
