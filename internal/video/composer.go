package video

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"mp4creator/internal/logging"
	"mp4creator/internal/media/ffmpeg"
	"mp4creator/internal/subtitles"
)

// Request describes one composition.
type Request struct {
	Audio    string
	Duration float64
	Assets   []Asset
	Entries  []subtitles.Entry
	Output   string
}

// CompositionError reports a failed composition.
type CompositionError struct {
	Stderr string
	Cause  error
}

func (e *CompositionError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("compose video: %v: %s", e.Cause, e.Stderr)
	}
	return fmt.Sprintf("compose video: %v", e.Cause)
}

func (e *CompositionError) Unwrap() error { return e.Cause }

// Composer renders videos with ffmpeg.
type Composer struct {
	tool    ffmpeg.Tool
	style   Style
	scratch string
	logger  *slog.Logger
}

// NewComposer keeps intermediate files below scratch.
func NewComposer(tool ffmpeg.Tool, style Style, scratch string, logger *slog.Logger) *Composer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Composer{tool: tool, style: style, scratch: scratch, logger: logging.NewComponentLogger(logger, "video")}
}

// Compose writes the video for req and returns its path. Intermediate
// stills, subtitle text files and the filter script are removed on every
// path; req.Output only appears when encoding succeeds.
func (c *Composer) Compose(ctx context.Context, req Request) (string, error) {
	if err := validateRequest(req); err != nil {
		return "", &CompositionError{Cause: err}
	}
	work, err := os.MkdirTemp(c.scratch, "compose-*")
	if err != nil {
		return "", &CompositionError{Cause: fmt.Errorf("create work dir: %w", err)}
	}
	defer os.RemoveAll(work)

	logger := logging.WithContext(ctx, c.logger)
	started := time.Now()

	backgrounds := c.prepareBackgrounds(ctx, logger, work, req)
	script, err := c.writeFilterScript(work, backgrounds, req.Entries)
	if err != nil {
		return "", &CompositionError{Cause: err}
	}

	part := filepath.Join(filepath.Dir(req.Output), "."+filepath.Base(req.Output)+".part")
	args := c.encodeArgs(backgrounds, req, script, part)
	if err := c.tool.Command(ctx, args...); err != nil {
		_ = os.Remove(part)
		return "", &CompositionError{Stderr: ffmpeg.StderrOf(err), Cause: err}
	}
	if err := os.Rename(part, req.Output); err != nil {
		_ = os.Remove(part)
		return "", &CompositionError{Cause: fmt.Errorf("finalize %s: %w", req.Output, err)}
	}

	logger.Info("video composed",
		logging.String(logging.FieldEventType, "video_composed"),
		logging.Int("assets", len(req.Assets)),
		logging.Int("subtitles", len(req.Entries)),
		logging.Seconds("duration_seconds", req.Duration),
		logging.Duration("elapsed", time.Since(started)),
		logging.String("output", req.Output),
	)
	return req.Output, nil
}

func validateRequest(req Request) error {
	switch {
	case strings.TrimSpace(req.Output) == "":
		return errors.New("output path is required")
	case req.Duration <= 0:
		return fmt.Errorf("duration must be positive, got %v", req.Duration)
	}
	if _, err := os.Stat(req.Audio); err != nil {
		return fmt.Errorf("audio track: %w", err)
	}
	return nil
}

// background is one input of the background stream: a prepared still, or
// a solid colour when Still is empty.
type background struct {
	Still   string
	Seconds float64
}

// prepareBackgrounds letterboxes every asset. A still that cannot be
// decoded keeps its slot as solid colour so later assets stay in sync.
func (c *Composer) prepareBackgrounds(ctx context.Context, logger *slog.Logger, work string, req Request) []background {
	if len(req.Assets) == 0 {
		return []background{{Seconds: req.Duration}}
	}
	out := make([]background, 0, len(req.Assets))
	for i, asset := range req.Assets {
		still := filepath.Join(work, fmt.Sprintf("still-%03d.png", i+1))
		err := c.tool.Command(ctx, "-i", asset.Source, "-frames:v", "1", "-vf", c.style.letterboxFilter(), still)
		if err != nil {
			if ctx.Err() != nil {
				// Encoding below fails fast on the cancelled context.
				out = append(out, background{Seconds: asset.Span()})
				continue
			}
			logging.WarnWithContext(logger, "background image unusable", "asset_skipped",
				logging.String("source", asset.Source),
				logging.String("detail", ffmpeg.StderrOf(err)),
				logging.String(logging.FieldImpact, "solid background shown for this span"),
			)
			still = ""
		}
		out = append(out, background{Still: still, Seconds: asset.Span()})
	}
	return out
}

func (c *Composer) writeFilterScript(work string, backgrounds []background, entries []subtitles.Entry) (string, error) {
	var b strings.Builder
	for i := range backgrounds {
		fmt.Fprintf(&b, "[%d:v]fps=%d,scale=%d:%d,setsar=1,format=yuv420p[bg%d];\n", i, c.style.FPS, c.style.Width, c.style.Height, i)
	}
	for i := range backgrounds {
		fmt.Fprintf(&b, "[bg%d]", i)
	}
	fmt.Fprintf(&b, "concat=n=%d:v=1:a=0[base]", len(backgrounds))

	if len(entries) == 0 {
		b.WriteString(";\n[base]null[v]\n")
	} else {
		b.WriteString(";\n[base]")
		for i, entry := range entries {
			textFile := filepath.Join(work, fmt.Sprintf("sub-%04d.txt", i+1))
			if err := os.WriteFile(textFile, []byte(entry.Text), 0o644); err != nil {
				return "", fmt.Errorf("write subtitle text: %w", err)
			}
			if i > 0 {
				b.WriteString(",\n")
			}
			b.WriteString(c.style.drawtext(textFile, entry.Start, entry.End))
		}
		b.WriteString("[v]\n")
	}

	script := filepath.Join(work, "filter.txt")
	if err := os.WriteFile(script, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("write filter script: %w", err)
	}
	return script, nil
}

func (c *Composer) encodeArgs(backgrounds []background, req Request, script, output string) []string {
	fps := strconv.Itoa(c.style.FPS)
	var args []string
	for _, bg := range backgrounds {
		seconds := strconv.FormatFloat(bg.Seconds, 'f', 3, 64)
		if bg.Still == "" {
			source := fmt.Sprintf("color=c=%s:s=%s:r=%d", ffmpegColor(c.style.Background), c.style.size(), c.style.FPS)
			args = append(args, "-f", "lavfi", "-t", seconds, "-i", source)
			continue
		}
		args = append(args, "-loop", "1", "-framerate", fps, "-t", seconds, "-i", bg.Still)
	}
	args = append(args,
		"-i", req.Audio,
		"-filter_complex_script", script,
		"-map", "[v]",
		"-map", fmt.Sprintf("%d:a:0", len(backgrounds)),
		"-c:v", c.style.VideoCodec,
		"-preset", c.style.Preset,
		"-pix_fmt", "yuv420p",
		"-r", fps,
		"-c:a", c.style.AudioCodec,
		"-t", strconv.FormatFloat(req.Duration, 'f', 3, 64),
		"-movflags", "+faststart",
		"-f", "mp4",
		output,
	)
	return args
}
