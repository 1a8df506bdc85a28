package extractor

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/hupe1980/prodmatch/codec"
	"github.com/hupe1980/prodmatch/core"
)

// ExecExtractor bridges to an external feature detection tool (typically a
// SIFT helper) over stdin/stdout JSON. One process is spawned per call, so
// the extractor is safe for concurrent use.
type ExecExtractor struct {
	command string
	args    []string
	codec   codec.Codec
}

var _ Extractor = (*ExecExtractor)(nil)

// NewExecExtractor creates an extractor that invokes the given command for
// every detection call.
func NewExecExtractor(command string, args ...string) *ExecExtractor {
	return &ExecExtractor{
		command: command,
		args:    args,
		codec:   codec.Default,
	}
}

type execRequest struct {
	Op                string  `json:"op"`
	Image             []byte  `json:"image"`
	Mask              []byte  `json:"mask,omitempty"`
	ContrastThreshold float64 `json:"contrast_threshold"`
	EdgeThreshold     float64 `json:"edge_threshold"`
}

type execResponse struct {
	Dim           int       `json:"dim"`
	Data          []float32 `json:"data"`
	Count         int       `json:"count"`
	Visualization []byte    `json:"visualization,omitempty"`
	Error         string    `json:"error,omitempty"`
}

// DetectAndCompute implements the Extractor interface.
func (e *ExecExtractor) DetectAndCompute(ctx context.Context, img Image, opts DetectOptions) (core.Descriptors, error) {
	opts = opts.Normalize()

	resp, err := e.run(ctx, execRequest{
		Op:                "detect",
		Image:             img,
		Mask:              opts.Mask,
		ContrastThreshold: opts.ContrastThreshold,
		EdgeThreshold:     opts.EdgeThreshold,
	})
	if err != nil {
		return core.Descriptors{}, err
	}

	if len(resp.Data) == 0 {
		return core.Descriptors{}, nil
	}

	return core.NewDescriptors(resp.Dim, resp.Data)
}

// PreviewKeypoints implements the Extractor interface.
func (e *ExecExtractor) PreviewKeypoints(ctx context.Context, img Image, opts DetectOptions) ([]byte, int, error) {
	opts = opts.Normalize()

	resp, err := e.run(ctx, execRequest{
		Op:                "preview",
		Image:             img,
		Mask:              opts.Mask,
		ContrastThreshold: opts.ContrastThreshold,
		EdgeThreshold:     opts.EdgeThreshold,
	})
	if err != nil {
		return nil, 0, err
	}

	return resp.Visualization, resp.Count, nil
}

func (e *ExecExtractor) run(ctx context.Context, req execRequest) (execResponse, error) {
	payload, err := e.codec.Marshal(req)
	if err != nil {
		return execResponse{}, fmt.Errorf("extractor: encode request: %w", err)
	}

	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, e.command, e.args...)
	cmd.Stdin = bytes.NewReader(payload)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return execResponse{}, fmt.Errorf("extractor: run %s: %w: %s", e.command, err, stderr.String())
	}

	var resp execResponse
	if err := e.codec.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return execResponse{}, fmt.Errorf("extractor: decode response: %w", err)
	}

	if resp.Error != "" {
		return execResponse{}, fmt.Errorf("extractor: %s", resp.Error)
	}

	return resp, nil
}
