// Package video implements the temporal half of the identification pipeline:
// sampling frames from a decoded stream, scoring each sampled frame against
// the whole catalog, and aggregating the noisy per-frame detections into
// confident time windows by majority voting.
//
// Frame decoding and speech transcription are external collaborators reached
// through the FrameSource, Opener and Transcriber interfaces.
package video

import (
	"context"
	"errors"
	"io"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/prodmatch/extractor"
	"github.com/hupe1980/prodmatch/transcript"
)

// ErrMediaUnreadable is returned when a video or image stream cannot be
// opened or decoded. It is fatal for the single request only.
var ErrMediaUnreadable = errors.New("video: media unreadable")

// Frame is one decoded video frame with its stream timestamp in seconds.
type Frame struct {
	Time  float64
	Image extractor.Image
}

// FrameSource yields decoded frames sequentially. Next returns io.EOF when
// the stream ends. A source is finite and restartable only by reopening.
type FrameSource interface {
	// FPS returns the stream frame rate, if known (0 otherwise).
	FPS() float64

	// Next returns the next frame.
	Next() (Frame, error)

	Close() error
}

// Opener opens a media path or URL as a frame source. Implementations should
// wrap open/decode failures with ErrMediaUnreadable.
type Opener interface {
	Open(ctx context.Context, media string) (FrameSource, error)
}

// Transcriber is the external speech-to-text collaborator.
type Transcriber interface {
	Transcribe(ctx context.Context, media string) ([]transcript.Segment, error)
}

// Detection is the raw multi-label output of one sampled frame: the set of
// catalog LocalIDs whose match score cleared the video threshold.
type Detection struct {
	Time     float64
	Products *roaring.Bitmap
}

func isEOF(err error) bool {
	return errors.Is(err, io.EOF)
}
