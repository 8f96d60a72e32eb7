package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"mp4creator/internal/audio"
	"mp4creator/internal/logging"
	"mp4creator/internal/services"
	"mp4creator/internal/timeline"
	"mp4creator/internal/tts"
	"mp4creator/internal/video"
)

type stageFunc func(ctx context.Context, logger *slog.Logger) error

// stage runs fn with the stage name stamped on context and logger, and
// classifies any error it returns.
func (p *Pipeline) stage(ctx context.Context, logger *slog.Logger, name string, fn stageFunc) error {
	stageCtx := services.WithStage(ctx, name)
	stageLogger := logging.WithContext(stageCtx, logger)
	stageLogger.Info("stage started", logging.String(logging.FieldEventType, "stage_start"))

	started := p.now()
	if err := fn(stageCtx, stageLogger); err != nil {
		err = classify(ctx, name, err)
		stageLogger.Error("stage failed",
			logging.String(logging.FieldEventType, "stage_failure"),
			logging.String("outcome", services.Outcome(err)),
			logging.Error(err))
		return err
	}
	stageLogger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("elapsed", p.now().Sub(started).Round(time.Millisecond)))
	return nil
}

var markers = []error{
	services.ErrExternalTool,
	services.ErrValidation,
	services.ErrConfiguration,
	services.ErrNotFound,
	services.ErrTimeout,
	services.ErrTransient,
	services.ErrCanceled,
}

func classify(ctx context.Context, stage string, err error) error {
	for _, marker := range markers {
		if errors.Is(err, marker) {
			return err
		}
	}
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return services.Wrap(services.ErrCanceled, stage, "", "canceled", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return services.Wrap(services.ErrTimeout, stage, "", "timed out", err)
	}
	var (
		synthErr   *tts.SynthesisError
		concatErr  *audio.ConcatenationError
		composeErr *video.CompositionError
	)
	switch {
	case errors.Is(err, timeline.ErrEmptyInput):
		return services.Wrap(services.ErrValidation, stage, "", "", err)
	case errors.As(err, &synthErr), errors.As(err, &concatErr), errors.As(err, &composeErr):
		return services.Wrap(services.ErrExternalTool, stage, "", "", err)
	default:
		return services.Wrap(services.ErrTransient, stage, "", "", err)
	}
}
