package tts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mp4creator/internal/logging"
)

// Request is handed to a Renderer for one segment.
type Request struct {
	Text  string
	Voice string
	Rate  string
	// TempDir is the conversion's scratch directory; renderers that need
	// intermediate files must create them there.
	TempDir string
}

// Renderer turns text into encoded audio bytes.
type Renderer interface {
	Render(ctx context.Context, req Request) ([]byte, error)
}

// Prober measures the duration of an audio file in seconds.
type Prober interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// Segment identifies one text piece of the script in source order.
type Segment struct {
	Index int
	Text  string
	Voice string
	Rate  string
}

// Fragment is the synthesized audio for a Segment.
type Fragment struct {
	Index   int
	Text    string
	Path    string
	Seconds float64
}

// SynthesisError reports a failed segment.
type SynthesisError struct {
	Index int
	Text  string
	Cause error
}

func (e *SynthesisError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("synthesize segment %d (%q): %v", e.Index, preview(e.Text), e.Cause)
}

func (e *SynthesisError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Options configures a Synthesizer.
type Options struct {
	Renderer Renderer
	Prober   Prober
	// Voices maps display names to engine voice ids. It is copied.
	Voices map[string]string
	// Dir receives seg-NNNN.mp3 files.
	Dir     string
	Timeout time.Duration
	Logger  *slog.Logger
}

// Synthesizer renders segments for one conversion.
type Synthesizer struct {
	renderer Renderer
	prober   Prober
	voices   map[string]string
	dir      string
	timeout  time.Duration
	logger   *slog.Logger
}

// New validates opts and returns a Synthesizer.
func New(opts Options) (*Synthesizer, error) {
	if opts.Renderer == nil {
		return nil, errors.New("tts: renderer is required")
	}
	if opts.Prober == nil {
		return nil, errors.New("tts: prober is required")
	}
	if strings.TrimSpace(opts.Dir) == "" {
		return nil, errors.New("tts: output directory is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Synthesizer{
		renderer: opts.Renderer,
		prober:   opts.Prober,
		voices:   maps.Clone(opts.Voices),
		dir:      opts.Dir,
		timeout:  opts.Timeout,
		logger:   logging.NewComponentLogger(logger, "tts"),
	}, nil
}

// ResolveVoice maps a display name to an engine id. Unknown names are
// returned unchanged so the renderer can decide whether they are valid.
func (s *Synthesizer) ResolveVoice(name string) string {
	name = strings.TrimSpace(name)
	if id, ok := s.voices[name]; ok {
		return id
	}
	return name
}

// SegmentPath is where the fragment for index is stored.
func (s *Synthesizer) SegmentPath(index int) string {
	return filepath.Join(s.dir, fmt.Sprintf("seg-%04d.mp3", index))
}

// Synthesize renders seg and measures the result. Any failure, including a
// non-positive measured duration, yields *SynthesisError and leaves no file.
func (s *Synthesizer) Synthesize(ctx context.Context, seg Segment) (Fragment, error) {
	fail := func(cause error) (Fragment, error) {
		return Fragment{}, &SynthesisError{Index: seg.Index, Text: seg.Text, Cause: cause}
	}
	if strings.TrimSpace(seg.Text) == "" {
		return fail(errors.New("empty text"))
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	voice := s.ResolveVoice(seg.Voice)
	started := time.Now()
	audio, err := s.renderer.Render(ctx, Request{Text: seg.Text, Voice: voice, Rate: seg.Rate, TempDir: s.dir})
	if err != nil {
		return fail(err)
	}
	if len(audio) == 0 {
		return fail(errors.New("renderer returned no audio"))
	}

	path := s.SegmentPath(seg.Index)
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		return fail(fmt.Errorf("write %s: %w", path, err))
	}

	seconds, err := s.prober.Duration(ctx, path)
	if err == nil && seconds <= 0 {
		err = fmt.Errorf("measured duration %.3fs", seconds)
	}
	if err != nil {
		_ = os.Remove(path)
		return fail(err)
	}

	s.logger.Debug("segment synthesized",
		logging.Int(logging.FieldSegment, seg.Index),
		logging.String("voice", voice),
		logging.String("rate", seg.Rate),
		logging.Int("bytes", len(audio)),
		logging.Seconds("duration", seconds),
		logging.Duration("elapsed", time.Since(started)),
	)
	return Fragment{Index: seg.Index, Text: seg.Text, Path: path, Seconds: seconds}, nil
}

func preview(text string) string {
	const limit = 40
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "…"
}
