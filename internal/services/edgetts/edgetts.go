// Package edgetts renders speech through the edge-tts command line tool.
package edgetts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"mp4creator/internal/media/ffmpeg"
	"mp4creator/internal/tts"
)

// DefaultBinary is looked up on PATH when no binary is configured.
const DefaultBinary = "edge-tts"

// Renderer invokes edge-tts once per request. It is safe for concurrent use;
// every call gets its own output file.
type Renderer struct {
	binary string
	run    ffmpeg.CommandRunner
}

// New returns a Renderer. Subprocesses share the process-group handling of
// the ffmpeg runner so cancellation terminates them.
func New(binary string) *Renderer {
	if strings.TrimSpace(binary) == "" {
		binary = DefaultBinary
	}
	return &Renderer{binary: binary, run: ffmpeg.Exec}
}

// WithRunner overrides the command runner, for tests.
func (r *Renderer) WithRunner(run ffmpeg.CommandRunner) *Renderer {
	if run != nil {
		r.run = run
	}
	return r
}

// Render writes speech for req to a temporary file under req.TempDir and
// returns its bytes.
func (r *Renderer) Render(ctx context.Context, req tts.Request) ([]byte, error) {
	if strings.TrimSpace(req.Voice) == "" {
		return nil, errors.New("edge-tts: voice is required")
	}
	tmp, err := os.CreateTemp(req.TempDir, ".edge-tts-*.mp3")
	if err != nil {
		return nil, fmt.Errorf("edge-tts: create temp file: %w", err)
	}
	path := tmp.Name()
	_ = tmp.Close()
	defer os.Remove(path)

	if err := r.run(ctx, r.binary, Args(req, path)...); err != nil {
		return nil, fmt.Errorf("edge-tts voice %s: %w", req.Voice, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("edge-tts: read output: %w", err)
	}
	return data, nil
}

// Args builds the edge-tts argument list. The rate is passed with "=" because
// a leading "-" would otherwise be parsed as a flag.
func Args(req tts.Request, output string) []string {
	args := []string{"--voice", req.Voice}
	if rate := strings.TrimSpace(req.Rate); rate != "" {
		args = append(args, "--rate="+rate)
	}
	return append(args, "--text", req.Text, "--write-media", output)
}
