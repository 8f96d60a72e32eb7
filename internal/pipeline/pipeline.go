package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"mp4creator/internal/config"
	"mp4creator/internal/history"
	"mp4creator/internal/logging"
	"mp4creator/internal/media/ffmpeg"
	"mp4creator/internal/notifications"
	"mp4creator/internal/preflight"
	"mp4creator/internal/services"
	"mp4creator/internal/services/drive"
	"mp4creator/internal/services/giphy"
	"mp4creator/internal/subtitles"
	"mp4creator/internal/textutil"
	"mp4creator/internal/tts"
)

// Mode selects which artifacts a conversion produces.
type Mode string

const (
	ModeVideo     Mode = "video"
	ModeAudio     Mode = "audio"
	ModeSubtitles Mode = "subtitles"
)

// ParseMode maps a CLI value to a Mode.
func ParseMode(value string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case "", ModeVideo:
		return ModeVideo, nil
	case ModeAudio:
		return ModeAudio, nil
	case ModeSubtitles, "srt":
		return ModeSubtitles, nil
	default:
		return "", fmt.Errorf("unknown mode %q (want video, audio, or subtitles)", value)
	}
}

func (m Mode) extension() string {
	switch m {
	case ModeAudio:
		return ".mp3"
	case ModeSubtitles:
		return ".srt"
	default:
		return ".mp4"
	}
}

// Request describes one conversion.
type Request struct {
	Script string
	// Source labels where the script came from (file path or sheet row) in
	// history and logs.
	Source string
	// Output is the artifact path. Empty picks a name under the configured
	// output directory.
	Output string
	Mode   Mode
	Upload bool
	// ExternalAudio and ExternalSubtitles skip synthesis and compose a video
	// from an existing narration track and SRT file. Script is then only
	// consulted for image markers.
	ExternalAudio     string
	ExternalSubtitles string
}

func (r Request) external() bool {
	return strings.TrimSpace(r.ExternalAudio) != ""
}

// Result reports the artifacts of a successful conversion.
type Result struct {
	ID        string
	Mode      Mode
	Output    string
	Subtitles string
	Duration  float64
	Segments  int
	Assets    int
	Drift     float64
	DriveFile *drive.File
}

// ImageSearcher finds background images for a keyword.
type ImageSearcher interface {
	Enabled() bool
	Search(ctx context.Context, query string) ([]giphy.Image, error)
}

// HTTPDoer downloads image assets.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Uploader publishes a finished artifact.
type Uploader interface {
	Upload(ctx context.Context, path string) (drive.File, error)
}

// Recorder persists conversion attempts.
type Recorder interface {
	Add(ctx context.Context, rec history.Record) error
}

// Prober measures media duration.
type Prober interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// Options wires a Pipeline's collaborators. Renderer, Prober and Tool are
// required; the rest are optional.
type Options struct {
	Config   *config.Config
	Logger   *slog.Logger
	Renderer tts.Renderer
	Prober   Prober
	Tool     ffmpeg.Tool
	Images   ImageSearcher
	Fetcher  HTTPDoer
	Uploader Uploader
	History  Recorder
	Notifier notifications.Service
	// Preflight runs before any stage; failed checks abort the conversion.
	Preflight func(ctx context.Context) []preflight.Result
	// ConversionLogs tees each conversion's debug log into the log directory.
	ConversionLogs bool
	now            func() time.Time
}

// Pipeline runs conversions.
type Pipeline struct {
	cfg       *config.Config
	logger    *slog.Logger
	renderer  tts.Renderer
	prober    Prober
	tool      ffmpeg.Tool
	images    ImageSearcher
	fetcher   HTTPDoer
	uploader  Uploader
	history   Recorder
	notifier  notifications.Service
	preflight func(ctx context.Context) []preflight.Result
	teeLogs   bool
	now       func() time.Time
}

// New validates opts and returns a Pipeline.
func New(opts Options) (*Pipeline, error) {
	if opts.Config == nil {
		return nil, errors.New("pipeline: config is required")
	}
	if opts.Renderer == nil {
		return nil, errors.New("pipeline: speech renderer is required")
	}
	if opts.Prober == nil {
		return nil, errors.New("pipeline: prober is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notifications.NewService(config.Notifications{})
	}
	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = &http.Client{Timeout: time.Duration(opts.Config.Giphy.TimeoutSeconds) * time.Second}
	}
	now := opts.now
	if now == nil {
		now = time.Now
	}
	return &Pipeline{
		cfg:       opts.Config,
		logger:    logging.NewComponentLogger(logger, "pipeline"),
		renderer:  opts.Renderer,
		prober:    opts.Prober,
		tool:      opts.Tool,
		images:    opts.Images,
		fetcher:   fetcher,
		uploader:  opts.Uploader,
		history:   opts.History,
		notifier:  notifier,
		preflight: opts.Preflight,
		teeLogs:   opts.ConversionLogs,
		now:       now,
	}, nil
}

// Convert runs one conversion. The returned error carries a services marker
// so callers can classify it with services.Outcome.
func (p *Pipeline) Convert(ctx context.Context, req Request) (Result, error) {
	id := uuid.NewString()
	ctx = services.WithConversionID(ctx, id)

	logger := p.logger
	if p.teeLogs {
		tee, closer, err := logging.ConversionLog(logger, p.cfg.Paths.LogDir, id)
		if err != nil {
			logging.WarnWithContext(logger, "conversion log unavailable", "conversion_log",
				logging.Error(err),
				logging.String(logging.FieldImpact, "debug log only on the main output"))
		}
		logger = tee
		defer closer.Close()
	}
	logger = logging.WithContext(ctx, logger)

	started := p.now()
	req, err := p.normalize(req, id)
	var result Result
	if err == nil {
		result, err = p.run(ctx, logger, id, req)
	}
	result.ID = id
	result.Mode = req.Mode
	if err != nil && ctx.Err() != nil && !errors.Is(err, services.ErrCanceled) {
		err = services.Wrap(services.ErrCanceled, "pipeline", "convert", "conversion canceled", err)
	}
	p.finish(ctx, logger, req, result, started, err)
	return result, err
}

func (p *Pipeline) normalize(req Request, id string) (Request, error) {
	if req.Mode == "" {
		req.Mode = ModeVideo
	}
	if _, err := ParseMode(string(req.Mode)); err != nil {
		return req, services.Wrap(services.ErrValidation, "pipeline", "request", err.Error(), nil)
	}
	if req.external() {
		if req.Mode != ModeVideo {
			return req, services.Wrap(services.ErrValidation, "pipeline", "request", "external audio only composes video", nil)
		}
		if strings.TrimSpace(req.ExternalSubtitles) == "" {
			return req, services.Wrap(services.ErrValidation, "pipeline", "request", "external audio requires a subtitle file", nil)
		}
	} else if strings.TrimSpace(req.Script) == "" {
		return req, services.Wrap(services.ErrValidation, "pipeline", "request", "script is empty", nil)
	}

	output := strings.TrimSpace(req.Output)
	if output == "" {
		output = filepath.Join(p.cfg.Paths.OutputDir, defaultName(req.Source, id)+req.Mode.extension())
	}
	abs, err := filepath.Abs(output)
	if err != nil {
		return req, services.Wrap(services.ErrValidation, "pipeline", "request", "resolve output path", err)
	}
	req.Output = abs
	return req, nil
}

func defaultName(source, id string) string {
	source = strings.TrimSpace(source)
	base := textutil.SafeFileName(strings.TrimSuffix(filepath.Base(source), filepath.Ext(source)))
	if source == "" || base == "" {
		return "mp4creator-" + id[:8]
	}
	return base
}

// SubtitlePath is where the SRT for output is written.
func SubtitlePath(output string) string {
	return strings.TrimSuffix(output, filepath.Ext(output)) + ".srt"
}

func (p *Pipeline) finish(ctx context.Context, logger *slog.Logger, req Request, result Result, started time.Time, runErr error) {
	finished := p.now()
	outcome := services.Outcome(runErr)
	if p.history != nil {
		rec := history.Record{
			ID:              result.ID,
			Mode:            string(req.Mode),
			Source:          req.Source,
			Output:          req.Output,
			Outcome:         outcome,
			DurationSeconds: result.Duration,
			Segments:        result.Segments,
			Assets:          result.Assets,
			StartedAt:       started,
			FinishedAt:      finished,
		}
		if runErr != nil {
			rec.Error = runErr.Error()
		}
		if result.DriveFile != nil {
			rec.DriveFileID = result.DriveFile.ID
		}
		// The caller's context may already be canceled; the record still matters.
		if err := p.history.Add(context.WithoutCancel(ctx), rec); err != nil {
			logging.WarnWithContext(logger, "history record failed", "history_write",
				logging.Error(err),
				logging.String(logging.FieldImpact, "conversion not listed in history"))
		}
	}

	var notifyErr error
	if runErr != nil {
		notifyErr = p.notifier.NotifyConversionFailed(context.WithoutCancel(ctx), req.Output, runErr)
	} else {
		completion := notifications.Completion{
			Output:   result.Output,
			Mode:     string(result.Mode),
			Duration: time.Duration(result.Duration * float64(time.Second)),
			Elapsed:  finished.Sub(started),
		}
		if result.DriveFile != nil {
			completion.Link = result.DriveFile.Link
		}
		notifyErr = p.notifier.NotifyConversionCompleted(ctx, completion)
	}
	if notifyErr != nil {
		logger.Debug("notification failed", logging.Error(notifyErr))
	}

	if runErr != nil {
		logger.Error("conversion failed",
			logging.String(logging.FieldEventType, "conversion_failed"),
			logging.String("outcome", outcome),
			logging.Duration("elapsed", finished.Sub(started)),
			logging.Error(runErr))
		return
	}
	logger.Info("conversion complete",
		logging.String(logging.FieldEventType, "conversion_complete"),
		logging.String("output", result.Output),
		logging.Seconds("duration", result.Duration),
		logging.Int("segments", result.Segments),
		logging.Duration("elapsed", finished.Sub(started)))
}

func readSubtitles(path string) ([]subtitles.Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return subtitles.Parse(string(data))
}
