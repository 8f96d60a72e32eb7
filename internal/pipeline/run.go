package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mp4creator/internal/audio"
	"mp4creator/internal/logging"
	"mp4creator/internal/preflight"
	"mp4creator/internal/scratch"
	"mp4creator/internal/services"
	"mp4creator/internal/subtitles"
	"mp4creator/internal/timeline"
	"mp4creator/internal/tts"
	"mp4creator/internal/video"
)

// subtitleTolerance is the slack allowed between imported cues and the
// narration track they accompany.
const subtitleTolerance = 0.5

// narration is the audio and cue set that later stages consume.
type narration struct {
	audio    string
	entries  []subtitles.Entry
	duration float64
}

func (p *Pipeline) run(ctx context.Context, logger *slog.Logger, id string, req Request) (Result, error) {
	if p.preflight != nil {
		if failed := preflight.Failed(p.preflight(ctx)); len(failed) > 0 {
			return Result{Output: req.Output}, services.Wrap(services.ErrConfiguration, "preflight", "checks", preflight.Summary(failed), nil)
		}
	}
	if err := os.MkdirAll(filepath.Dir(req.Output), 0o755); err != nil {
		return Result{Output: req.Output}, services.Wrap(services.ErrConfiguration, "pipeline", "create output directory", "", err)
	}

	lock, err := acquireOutputLock(req.Output)
	if err != nil {
		return Result{Output: req.Output}, err
	}
	defer lock.release(logger)

	var written artifacts
	result, err := p.produce(ctx, logger, id, req, &written)
	if err != nil {
		// Discarded while the lock is still held so a queued conversion
		// never sees its own output removed.
		written.discard(logger)
		result.Subtitles = ""
	}
	return result, err
}

// produce runs every stage for req. Each path it materializes outside the
// scratch namespace is recorded in written.
func (p *Pipeline) produce(ctx context.Context, logger *slog.Logger, id string, req Request, written *artifacts) (Result, error) {
	result := Result{Output: req.Output}

	ns, err := scratch.New(p.cfg.Paths.WorkDir, id)
	if err != nil {
		return result, services.Wrap(services.ErrConfiguration, "pipeline", "create scratch namespace", "", err)
	}
	defer func() {
		if err := ns.Cleanup(); err != nil {
			logging.WarnWithContext(logger, "scratch cleanup failed", "scratch_cleanup",
				logging.String("dir", ns.Dir), logging.Error(err),
				logging.String(logging.FieldImpact, "stale files remain until the next clean"))
		}
	}()

	var track narration
	if req.external() {
		if err := p.stage(ctx, logger, "import", func(ctx context.Context, logger *slog.Logger) error {
			track, err = p.importNarration(ctx, logger, req)
			return err
		}); err != nil {
			return result, err
		}
	} else {
		var tl *timeline.Timeline
		if err := p.stage(ctx, logger, "assemble", func(ctx context.Context, logger *slog.Logger) error {
			tl, err = p.assemble(ctx, logger, ns, req.Script)
			return err
		}); err != nil {
			return result, err
		}
		defer func() {
			if err := tl.Release(); err != nil {
				logger.Debug("release fragments", logging.Error(err))
			}
		}()
		result.Segments = countSpeech(tl)
		track = narration{entries: tl.Entries, duration: tl.TotalSeconds()}

		if req.Mode == ModeSubtitles {
			err := p.stage(ctx, logger, "subtitles", func(context.Context, *slog.Logger) error {
				return subtitles.WriteFile(req.Output, subtitles.Format(track.entries))
			})
			if err != nil {
				return result, err
			}
			written.add(req.Output)
			result.Subtitles = req.Output
			result.Duration = track.duration
			return result, nil
		}

		track.audio = ns.Path("narration.mp3")
		if req.Mode == ModeAudio {
			track.audio = req.Output
		}
		if err := p.stage(ctx, logger, "concat", func(ctx context.Context, logger *slog.Logger) error {
			joined, err := audio.NewConcatenator(p.tool, p.prober, ns.Dir, logger).Concat(ctx, tl.Fragments, track.audio)
			if err != nil {
				return err
			}
			result.Drift = joined.Drift()
			track.duration = joined.Measured
			return nil
		}); err != nil {
			return result, err
		}
		if req.Mode == ModeAudio {
			written.add(req.Output)
		}
		// Fragments are no longer needed once joined.
		_ = tl.Release()
	}
	result.Duration = track.duration

	if req.Mode == ModeVideo {
		if err := p.stage(ctx, logger, "compose", func(ctx context.Context, logger *slog.Logger) error {
			assets, err := p.composeVideo(ctx, logger, ns, req, track)
			result.Assets = assets
			return err
		}); err != nil {
			return result, err
		}
		written.add(req.Output)
	}

	if !req.external() {
		srt := SubtitlePath(req.Output)
		if err := p.stage(ctx, logger, "subtitles", func(context.Context, *slog.Logger) error {
			return subtitles.WriteFile(srt, subtitles.Format(track.entries))
		}); err != nil {
			return result, err
		}
		written.add(srt)
		result.Subtitles = srt
	}

	if req.Upload {
		if err := p.stage(ctx, logger, "upload", func(ctx context.Context, logger *slog.Logger) error {
			if p.uploader == nil {
				return services.Wrap(services.ErrConfiguration, "upload", "drive", "google credentials are not configured", nil)
			}
			file, err := p.uploader.Upload(ctx, req.Output)
			if err != nil {
				return err
			}
			result.DriveFile = &file
			logger.Info("artifact uploaded",
				logging.String(logging.FieldEventType, "drive_upload"),
				logging.String("file_id", file.ID),
				logging.String("link", file.Link))
			return nil
		}); err != nil {
			return result, err
		}
	}
	return result, nil
}

func (p *Pipeline) assemble(ctx context.Context, logger *slog.Logger, ns *scratch.Namespace, script string) (*timeline.Timeline, error) {
	synth, err := tts.New(tts.Options{
		Renderer: p.renderer,
		Prober:   p.prober,
		Voices:   p.cfg.Voice.Voices,
		Dir:      ns.Dir,
		Timeout:  time.Duration(p.cfg.Synthesis.TimeoutSeconds) * time.Second,
		Logger:   logger,
	})
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "assemble", "synthesizer", "", err)
	}
	assembler, err := timeline.NewAssembler(timeline.Options{
		Synthesizer:  synth,
		Silence:      p.tool,
		Dir:          ns.Dir,
		DefaultVoice: p.cfg.Voice.DefaultVoice,
		DefaultRate:  p.cfg.Voice.DefaultSpeed,
		Concurrency:  p.cfg.Synthesis.Concurrency,
		SampleRate:   p.cfg.Synthesis.SampleRate,
		Logger:       logger,
	})
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "assemble", "assembler", "", err)
	}
	return assembler.Assemble(ctx, script)
}

func (p *Pipeline) importNarration(ctx context.Context, logger *slog.Logger, req Request) (narration, error) {
	duration, err := p.prober.Duration(ctx, req.ExternalAudio)
	if err != nil {
		return narration{}, services.Wrap(services.ErrValidation, "import", "probe audio", req.ExternalAudio, err)
	}
	entries, err := readSubtitles(req.ExternalSubtitles)
	if err != nil {
		return narration{}, services.Wrap(services.ErrValidation, "import", "read subtitles", req.ExternalSubtitles, err)
	}
	if issues := subtitles.Validate(entries, duration, subtitleTolerance); len(issues) > 0 {
		logging.WarnWithContext(logger, "imported subtitles look inconsistent", "subtitle_validation",
			logging.Int("issues", len(issues)),
			logging.String("first_issue", issues[0]),
			logging.String(logging.FieldImpact, "cues rendered as given"))
	}
	return narration{audio: req.ExternalAudio, entries: entries, duration: duration}, nil
}

func (p *Pipeline) composeVideo(ctx context.Context, logger *slog.Logger, ns *scratch.Namespace, req Request, track narration) (int, error) {
	var images []string
	if sources := p.imageSources(ctx, logger, searchText(req.Script, track.entries)); len(sources) > 0 {
		dir, err := ns.Subdir("images")
		if err != nil {
			return 0, fmt.Errorf("create image directory: %w", err)
		}
		images = p.downloadImages(ctx, logger, dir, sources)
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	composer := video.NewComposer(p.tool, video.StyleFromConfig(p.cfg.Video), ns.Dir, logger)
	_, err := composer.Compose(ctx, video.Request{
		Audio:    track.audio,
		Duration: track.duration,
		Assets:   video.PlaceAssets(track.duration, images),
		Entries:  track.entries,
		Output:   req.Output,
	})
	return len(images), err
}

// searchText is where image markers are looked up: the script, or the cue
// texts when the narration was imported without one.
func searchText(script string, entries []subtitles.Entry) string {
	if strings.TrimSpace(script) != "" {
		return script
	}
	texts := make([]string, 0, len(entries))
	for _, entry := range entries {
		texts = append(texts, entry.Text)
	}
	return strings.Join(texts, " ")
}

func countSpeech(tl *timeline.Timeline) int {
	n := 0
	for _, frag := range tl.Fragments {
		if frag.Kind == timeline.FragmentSpeech {
			n++
		}
	}
	return n
}
