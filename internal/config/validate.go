package config

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var hexColorPattern = regexp.MustCompile(`^#[0-9A-F]{6}$`)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateSynthesis(); err != nil {
		return err
	}
	if err := c.validateVideo(); err != nil {
		return err
	}
	if err := c.validateGiphy(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		return errors.New("paths.output_dir must be set")
	}
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		return errors.New("paths.work_dir must be set")
	}
	return nil
}

func (c *Config) validateSynthesis() error {
	switch c.Synthesis.Engine {
	case EngineEdgeTTS:
		if c.Synthesis.EdgeTTSBinary == "" {
			return errors.New("synthesis.edge_tts_binary must be set when synthesis.engine is edge-tts")
		}
	case EngineHTTP:
		if c.Synthesis.HTTPURL == "" {
			return fmt.Errorf("synthesis.http_url must be set when synthesis.engine is http (or set %s)", synthesisHTTPURLEnvVar)
		}
	default:
		return fmt.Errorf("synthesis.engine: unsupported value %q (want %s or %s)", c.Synthesis.Engine, EngineEdgeTTS, EngineHTTP)
	}
	if c.Synthesis.Concurrency > maxSynthesisConcurrency {
		return fmt.Errorf("synthesis.concurrency must be at most %d", maxSynthesisConcurrency)
	}
	return nil
}

func (c *Config) validateVideo() error {
	if err := ensurePositiveMap(map[string]int{
		"video.width":     c.Video.Width,
		"video.height":    c.Video.Height,
		"video.fps":       c.Video.FPS,
		"video.font_size": c.Video.FontSize,
	}); err != nil {
		return err
	}
	if c.Video.Width%2 != 0 || c.Video.Height%2 != 0 {
		return errors.New("video.width and video.height must be even")
	}
	if c.Video.StrokeWidth < 0 {
		return errors.New("video.stroke_width must be non-negative")
	}
	if c.Video.SubtitleYRatio < minSubtitleYRatio || c.Video.SubtitleYRatio >= maxSubtitleYRatio {
		return fmt.Errorf("video.subtitle_y_ratio must be in [%.1f, %.1f)", minSubtitleYRatio, maxSubtitleYRatio)
	}
	for key, value := range map[string]string{
		"video.background":   c.Video.Background,
		"video.font_color":   c.Video.FontColor,
		"video.stroke_color": c.Video.StrokeColor,
	} {
		if !hexColorPattern.MatchString(value) {
			return fmt.Errorf("%s must be a #RRGGBB color, got %q", key, value)
		}
	}
	return nil
}

func (c *Config) validateGiphy() error {
	switch c.Giphy.Rating {
	case "g", "pg", "pg-13", "r":
	default:
		return fmt.Errorf("giphy.rating: unsupported value %q", c.Giphy.Rating)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "auto", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be non-negative")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if values[key] <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
