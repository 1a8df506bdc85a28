package video

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"

	"github.com/hupe1980/prodmatch/codec"
	"github.com/hupe1980/prodmatch/extractor"
	"github.com/hupe1980/prodmatch/transcript"
)

// FFmpegOpener opens media files by dumping frames to a temporary directory
// with ffmpeg and serving them back as a FrameSource.
type FFmpegOpener struct {
	// Path is the ffmpeg binary, "ffmpeg" when empty.
	Path string

	// FPS is the frame dump rate. Defaults to 30.
	FPS float64
}

var _ Opener = (*FFmpegOpener)(nil)

// Open implements the Opener interface.
func (o *FFmpegOpener) Open(ctx context.Context, media string) (FrameSource, error) {
	if _, err := os.Stat(media); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMediaUnreadable, media, err)
	}

	bin := o.Path
	if bin == "" {
		bin = "ffmpeg"
	}

	fps := o.FPS
	if fps <= 0 {
		fps = 30
	}

	dir, err := os.MkdirTemp("", "prodmatch-frames-*")
	if err != nil {
		return nil, fmt.Errorf("video: temp dir: %w", err)
	}

	var stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, bin,
		"-hide_banner", "-loglevel", "error",
		"-i", media,
		"-vf", fmt.Sprintf("fps=%g", fps),
		"-q:v", "2",
		filepath.Join(dir, "%08d.jpg"),
	)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("%w: %s: %w: %s", ErrMediaUnreadable, media, err, stderr.String())
	}

	names, err := filepath.Glob(filepath.Join(dir, "*.jpg"))
	if err != nil || len(names) == 0 {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("%w: %s: no frames decoded", ErrMediaUnreadable, media)
	}
	sort.Strings(names)

	return &frameDirSource{dir: dir, names: names, fps: fps}, nil
}

// frameDirSource serves frames dumped to a directory, in file name order.
type frameDirSource struct {
	dir   string
	names []string
	pos   int
	fps   float64
}

func (s *frameDirSource) FPS() float64 { return s.fps }

func (s *frameDirSource) Next() (Frame, error) {
	if s.pos >= len(s.names) {
		return Frame{}, io.EOF
	}

	data, err := os.ReadFile(s.names[s.pos])
	if err != nil {
		return Frame{}, fmt.Errorf("%w: read frame: %w", ErrMediaUnreadable, err)
	}

	frame := Frame{
		Time:  float64(s.pos) / s.fps,
		Image: extractor.Image(data),
	}
	s.pos++

	return frame, nil
}

func (s *frameDirSource) Close() error {
	return os.RemoveAll(s.dir)
}

// ExecTranscriber bridges to an external speech-to-text tool (typically a
// whisper helper). The media path is appended to the configured arguments
// and the tool must print JSON segments to stdout:
//
//	[{"start": 0.0, "end": 2.5, "text": "..."}]
type ExecTranscriber struct {
	Command string
	Args    []string
}

var _ Transcriber = (*ExecTranscriber)(nil)

// Transcribe implements the Transcriber interface.
func (t *ExecTranscriber) Transcribe(ctx context.Context, media string) ([]transcript.Segment, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, t.Command, append(append([]string{}, t.Args...), media)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("video: transcribe %s: %w: %s", media, err, stderr.String())
	}

	var segments []transcript.Segment
	if err := codec.Default.Unmarshal(stdout.Bytes(), &segments); err != nil {
		return nil, fmt.Errorf("video: decode transcript: %w", err)
	}

	return segments, nil
}
