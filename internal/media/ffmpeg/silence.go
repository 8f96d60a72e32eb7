package ffmpeg

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// DefaultSampleRate matches the neural voices' native output.
const DefaultSampleRate = 24000

// Tool wraps an ffmpeg binary and the runner used to invoke it.
type Tool struct {
	Binary string
	Run    CommandRunner
}

// New returns a Tool for binary using Exec.
func New(binary string) Tool {
	return Tool{Binary: binary, Run: Exec}
}

// Command runs ffmpeg with quiet, non-interactive defaults prepended.
func (t Tool) Command(ctx context.Context, args ...string) error {
	binary := strings.TrimSpace(t.Binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	run := t.Run
	if run == nil {
		run = Exec
	}
	full := append([]string{"-hide_banner", "-nostdin", "-loglevel", "error", "-y"}, args...)
	return run(ctx, binary, full...)
}

// Silence renders seconds of mono silence as MP3 at output. The encoding
// matches the synthesized fragments so the concat demuxer can stream-copy.
func (t Tool) Silence(ctx context.Context, seconds float64, sampleRate int, output string) error {
	if seconds <= 0 {
		return fmt.Errorf("silence: duration must be positive, got %v", seconds)
	}
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	source := fmt.Sprintf("anullsrc=r=%d:cl=mono", sampleRate)
	return t.Command(ctx,
		"-f", "lavfi", "-i", source,
		"-t", strconv.FormatFloat(seconds, 'f', 3, 64),
		"-c:a", "libmp3lame", "-b:a", "48k",
		output,
	)
}
