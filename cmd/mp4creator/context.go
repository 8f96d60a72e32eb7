package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"mp4creator/internal/config"
	"mp4creator/internal/history"
	"mp4creator/internal/logging"
	"mp4creator/internal/media/ffmpeg"
	"mp4creator/internal/media/ffprobe"
	"mp4creator/internal/notifications"
	"mp4creator/internal/pipeline"
	"mp4creator/internal/preflight"
	"mp4creator/internal/services/drive"
	"mp4creator/internal/services/edgetts"
	"mp4creator/internal/services/giphy"
	"mp4creator/internal/services/ttshttp"
	"mp4creator/internal/tts"
)

type commandContext struct {
	configFlag *string
	verbose    *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string, verbose *bool) *commandContext {
	return &commandContext{configFlag: configFlag, verbose: verbose}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		level := cfg.Logging.Level
		if c.verbose != nil && *c.verbose {
			level = "debug"
		}
		c.logger, c.loggerErr = logging.New(logging.Options{Level: level, Format: cfg.Logging.Format})
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) openHistory(ctx context.Context) (*history.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	store, err := history.Open(ctx, cfg.Paths.HistoryPath)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	return store, nil
}

func (c *commandContext) renderer() (tts.Renderer, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	switch cfg.Synthesis.Engine {
	case config.EngineHTTP:
		return ttshttp.New(cfg.Synthesis.HTTPURL, time.Duration(cfg.Synthesis.TimeoutSeconds)*time.Second), nil
	default:
		return edgetts.New(cfg.Synthesis.EdgeTTSBinary), nil
	}
}

// newPipeline wires production collaborators. The returned close function
// releases the history database.
func (c *commandContext) newPipeline(ctx context.Context, upload bool) (*pipeline.Pipeline, func(), error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, nil, err
	}
	renderer, err := c.renderer()
	if err != nil {
		return nil, nil, err
	}

	opts := pipeline.Options{
		Config:         cfg,
		Logger:         logger,
		Renderer:       renderer,
		Prober:         ffprobe.NewProber(cfg.Tools.FFprobe),
		Tool:           ffmpeg.New(cfg.Tools.FFmpeg),
		Images:         giphy.NewFromConfig(cfg.Giphy),
		Notifier:       notifications.NewService(cfg.Notifications),
		ConversionLogs: true,
		Preflight: func(ctx context.Context) []preflight.Result {
			return preflight.RunAll(ctx, cfg)
		},
	}
	if upload && cfg.GoogleEnabled() {
		uploader, err := drive.New(ctx, cfg.Google.ServiceAccountKeyPath, cfg.Google.DriveFolderID)
		if err != nil {
			return nil, nil, err
		}
		opts.Uploader = uploader
	}

	closeFn := func() {}
	store, err := c.openHistory(ctx)
	if err != nil {
		logging.WarnWithContext(logger, "history unavailable", "history_open",
			logging.Error(err),
			logging.String(logging.FieldImpact, "conversion will not be recorded"))
	} else {
		opts.History = store
		closeFn = func() { _ = store.Close() }
	}

	p, err := pipeline.New(opts)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return p, closeFn, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
