package timeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"mp4creator/internal/directive"
	"mp4creator/internal/logging"
	"mp4creator/internal/services"
	"mp4creator/internal/subtitles"
	"mp4creator/internal/tts"
)

// DefaultConcurrency bounds parallel synthesis when none is configured.
const DefaultConcurrency = 4

// Synthesizer renders one narration segment.
type Synthesizer interface {
	Synthesize(ctx context.Context, seg tts.Segment) (tts.Fragment, error)
}

// SilenceMaker writes a silent audio file of the given length.
type SilenceMaker interface {
	Silence(ctx context.Context, seconds float64, sampleRate int, output string) error
}

// Options configures an Assembler.
type Options struct {
	Synthesizer  Synthesizer
	Silence      SilenceMaker
	Dir          string
	DefaultVoice string
	DefaultRate  string
	Concurrency  int
	SampleRate   int
	Logger       *slog.Logger
}

// Assembler builds timelines. Per-run state lives in local values, so one
// Assembler may serve concurrent conversions that use distinct directories.
type Assembler struct {
	opts   Options
	logger *slog.Logger
}

// NewAssembler validates opts.
func NewAssembler(opts Options) (*Assembler, error) {
	if opts.Synthesizer == nil {
		return nil, errors.New("timeline: synthesizer is required")
	}
	if opts.Silence == nil {
		return nil, errors.New("timeline: silence maker is required")
	}
	if strings.TrimSpace(opts.Dir) == "" {
		return nil, errors.New("timeline: scratch directory is required")
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	opts.DefaultRate = directive.RateOrDefault(opts.DefaultRate)
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Assembler{opts: opts, logger: logging.NewComponentLogger(logger, "timeline")}, nil
}

// step is one planned fragment in source order.
type step struct {
	kind    FragmentKind
	segment tts.Segment
	seconds float64
	path    string
}

// Assemble parses script, synthesizes every narration segment and lays the
// fragments out back to back. On failure no fragment file survives.
func (a *Assembler) Assemble(ctx context.Context, script string) (*Timeline, error) {
	pl := a.plan(ctx, script)
	steps, lines := pl.steps, pl.lines
	if pl.narrated == 0 {
		return nil, &EmptyInputError{Lines: lines}
	}

	results, err := a.render(ctx, steps)
	if err != nil {
		return nil, err
	}

	tl := &Timeline{Lines: lines, Fragments: make([]Fragment, 0, len(steps))}
	var clock float64
	for i, st := range steps {
		frag := results[i]
		frag.Start = clock
		tl.Fragments = append(tl.Fragments, frag)
		if st.kind == FragmentSpeech {
			tl.Entries = append(tl.Entries, subtitles.Entry{Text: frag.Text, Start: clock, End: clock + frag.Seconds})
		}
		clock += frag.Seconds
	}

	a.logger.Info("timeline assembled",
		logging.String(logging.FieldEventType, "timeline_assembled"),
		logging.Int("lines", lines),
		logging.Int("narrated_lines", pl.narrated),
		logging.Int("fragments", len(tl.Fragments)),
		logging.Seconds("pause_seconds", pl.pauseSeconds),
		logging.Int("entries", len(tl.Entries)),
		logging.Seconds("total_seconds", clock),
	)
	return tl, nil
}

// layout is the fragment order of a script before anything is rendered.
type layout struct {
	steps        []step
	lines        int
	narrated     int
	pauseSeconds float64
}

// plan runs the per-line state machine. Voice and rate start from the
// defaults on every line and only the line's own directives change them.
func (a *Assembler) plan(ctx context.Context, script string) layout {
	logger := logging.WithContext(ctx, a.logger)
	var (
		out     layout
		index   int
		silence = map[int64]string{}
	)
	rawLines := directive.SplitLines(script)
	out.lines = len(rawLines)
	for lineNo, raw := range rawLines {
		line := directive.ParseLine(raw)
		for _, warning := range line.Warnings {
			logging.WarnWithContext(logger, "malformed directive ignored", "directive_malformed",
				logging.Int("line", lineNo+1),
				logging.String("detail", warning),
			)
		}
		if line.HasNarration() {
			out.narrated++
		} else if line.Voice != "" || line.Speed != "" {
			logger.Debug("voice or speed set on a line without narration",
				logging.String(logging.FieldEventType, "directive_unused"),
				logging.Int("line", lineNo+1))
		}
		for _, pause := range line.Pauses {
			out.pauseSeconds += pause.Seconds
			logger.Debug("pause planned",
				logging.String(logging.FieldEventType, "pause_planned"),
				logging.Int("line", lineNo+1),
				logging.Int("text_offset", pause.Offset),
				logging.Seconds("pause_seconds", pause.Seconds))
		}

		voice, rate := a.opts.DefaultVoice, a.opts.DefaultRate
		if line.Voice != "" {
			voice = line.Voice
		}
		if line.Speed != "" {
			rate = line.Speed
		}

		for _, seg := range line.Segments {
			switch seg.Kind {
			case directive.SegmentText:
				index++
				out.steps = append(out.steps, step{
					kind:    FragmentSpeech,
					segment: tts.Segment{Index: index, Text: seg.Text, Voice: voice, Rate: rate},
				})
			case directive.SegmentPause:
				if seg.Seconds <= 0 {
					continue
				}
				// Identical pauses share one file.
				key := int64(seg.Seconds*1000 + 0.5)
				path, ok := silence[key]
				if !ok {
					path = filepath.Join(a.opts.Dir, fmt.Sprintf("pause-%dms.mp3", key))
					silence[key] = path
				}
				out.steps = append(out.steps, step{kind: FragmentSilence, seconds: seg.Seconds, path: path})
			}
		}
	}
	return out
}

// render fans synthesis and silence generation out and collects results by
// step index. The first failure cancels the rest.
func (a *Assembler) render(ctx context.Context, steps []step) ([]Fragment, error) {
	results := make([]Fragment, len(steps))
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(a.opts.Concurrency)

	made := map[string]bool{}
	for i, st := range steps {
		switch st.kind {
		case FragmentSpeech:
			group.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				frag, err := a.opts.Synthesizer.Synthesize(services.WithSegment(gctx, st.segment.Index), st.segment)
				if err != nil {
					return err
				}
				results[i] = Fragment{Kind: FragmentSpeech, Path: frag.Path, Text: frag.Text, Seconds: frag.Seconds}
				return nil
			})
		case FragmentSilence:
			results[i] = Fragment{Kind: FragmentSilence, Path: st.path, Seconds: st.seconds}
			if made[st.path] {
				continue
			}
			made[st.path] = true
			group.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := a.opts.Silence.Silence(gctx, st.seconds, a.opts.SampleRate, st.path); err != nil {
					return fmt.Errorf("generate %.3fs pause: %w", st.seconds, err)
				}
				return nil
			})
		}
	}

	if err := group.Wait(); err != nil {
		paths := make([]string, 0, len(results))
		for _, frag := range results {
			paths = append(paths, frag.Path)
		}
		if rmErr := removeAll(paths); rmErr != nil {
			a.logger.Warn("fragment cleanup incomplete", logging.Error(rmErr))
		}
		return nil, err
	}
	return results, nil
}
