package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"mp4creator/internal/logging"
	"mp4creator/internal/media/ffmpeg"
	"mp4creator/internal/timeline"
)

// DriftTolerance is the accepted difference between the measured track
// length and the sum of its fragments.
const DriftTolerance = 0.020

// Prober measures media duration.
type Prober interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// ConcatenationError carries ffmpeg's diagnostic output.
type ConcatenationError struct {
	Stderr string
	Err    error
}

func (e *ConcatenationError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("concatenate audio: %v", e.Err)
	}
	return fmt.Sprintf("concatenate audio: %s", e.Stderr)
}

func (e *ConcatenationError) Unwrap() error { return e.Err }

// Result describes a finished concatenation.
type Result struct {
	Path     string
	Expected float64
	Measured float64
}

// Drift is measured minus expected.
func (r Result) Drift() float64 { return r.Measured - r.Expected }

// WithinTolerance reports whether drift stays inside DriftTolerance.
func (r Result) WithinTolerance() bool { return math.Abs(r.Drift()) <= DriftTolerance }

// Concatenator joins audio files with stream copy.
type Concatenator struct {
	tool    ffmpeg.Tool
	prober  Prober
	scratch string
	logger  *slog.Logger
}

// NewConcatenator writes its concat lists into scratch.
func NewConcatenator(tool ffmpeg.Tool, prober Prober, scratch string, logger *slog.Logger) *Concatenator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Concatenator{tool: tool, prober: prober, scratch: scratch, logger: logging.NewComponentLogger(logger, "audio")}
}

// Concat writes fragments in order to output. Nothing exists at output
// unless the call succeeds.
func (c *Concatenator) Concat(ctx context.Context, fragments []timeline.Fragment, output string) (Result, error) {
	if len(fragments) == 0 {
		return Result{}, &ConcatenationError{Err: errors.New("no fragments")}
	}
	paths := make([]string, 0, len(fragments))
	var expected float64
	for _, frag := range fragments {
		paths = append(paths, frag.Path)
		expected += frag.Seconds
	}

	if err := c.join(ctx, paths, output, "-vn", "-c:a", "copy"); err != nil {
		return Result{}, err
	}

	result := Result{Path: output, Expected: expected, Measured: expected}
	if c.prober != nil {
		measured, err := c.prober.Duration(ctx, output)
		if err != nil {
			_ = os.Remove(output)
			return Result{}, &ConcatenationError{Err: fmt.Errorf("probe joined track: %w", err)}
		}
		result.Measured = measured
	}

	logger := logging.WithContext(ctx, c.logger)
	if !result.WithinTolerance() {
		logging.WarnWithContext(logger, "joined track length differs from timeline", "coverage_drift",
			logging.Seconds("expected_seconds", result.Expected),
			logging.Seconds("measured_seconds", result.Measured),
			logging.Seconds("drift_seconds", result.Drift()),
			logging.String(logging.FieldImpact, "subtitles may lead or trail the narration slightly"),
		)
	}
	logger.Info("audio track joined",
		logging.String(logging.FieldEventType, "audio_joined"),
		logging.Int("fragments", len(fragments)),
		logging.Seconds("duration_seconds", result.Measured),
		logging.String("output", output),
	)
	return result, nil
}

// Merge joins finished MP4 files with stream copy. All inputs must share
// codecs and parameters.
func (c *Concatenator) Merge(ctx context.Context, inputs []string, output string) error {
	if len(inputs) < 2 {
		return &ConcatenationError{Err: fmt.Errorf("merge needs at least two inputs, got %d", len(inputs))}
	}
	for _, input := range inputs {
		if _, err := os.Stat(input); err != nil {
			return &ConcatenationError{Err: fmt.Errorf("merge input: %w", err)}
		}
	}
	return c.join(ctx, inputs, output, "-c", "copy", "-movflags", "+faststart")
}

func (c *Concatenator) join(ctx context.Context, inputs []string, output string, codecArgs ...string) error {
	list, err := os.CreateTemp(c.scratch, "concat-*.txt")
	if err != nil {
		return &ConcatenationError{Err: fmt.Errorf("create concat list: %w", err)}
	}
	listPath := list.Name()
	_ = list.Close()
	defer os.Remove(listPath)

	if err := ffmpeg.WriteConcatList(listPath, inputs); err != nil {
		return &ConcatenationError{Err: err}
	}

	part := PartPath(output)
	args := []string{"-f", "concat", "-safe", "0", "-i", listPath}
	args = append(args, codecArgs...)
	// The part name hides the real extension, so the muxer is named explicitly.
	if format := muxerFor(output); format != "" {
		args = append(args, "-f", format)
	}
	args = append(args, part)

	if err := c.tool.Command(ctx, args...); err != nil {
		_ = os.Remove(part)
		return &ConcatenationError{Stderr: ffmpeg.StderrOf(err), Err: err}
	}
	if err := os.Rename(part, output); err != nil {
		_ = os.Remove(part)
		return &ConcatenationError{Err: fmt.Errorf("finalize %s: %w", output, err)}
	}
	return nil
}

// PartPath is the hidden in-progress name used for output.
func PartPath(output string) string {
	return filepath.Join(filepath.Dir(output), "."+filepath.Base(output)+".part")
}

func muxerFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return "mp3"
	case ".mp4", ".m4a":
		return "mp4"
	case ".wav":
		return "wav"
	default:
		return ""
	}
}
