package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeVoice()
	c.normalizeSynthesis()
	if err := c.normalizeVideo(); err != nil {
		return err
	}
	c.normalizeTools()
	c.normalizeGiphy()
	if err := c.normalizeGoogle(); err != nil {
		return err
	}
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.HistoryPath, err = expandPath(c.Paths.HistoryPath); err != nil {
		return fmt.Errorf("paths.history_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeVoice() {
	c.Voice.DefaultVoice = strings.TrimSpace(c.Voice.DefaultVoice)
	if c.Voice.DefaultVoice == "" {
		c.Voice.DefaultVoice = defaultVoice
	}
	c.Voice.DefaultSpeed = strings.TrimSpace(c.Voice.DefaultSpeed)
	if c.Voice.DefaultSpeed == "" {
		c.Voice.DefaultSpeed = defaultSpeed
	}
	voices := make(map[string]string, len(c.Voice.Voices))
	for name, id := range c.Voice.Voices {
		name = strings.TrimSpace(name)
		id = strings.TrimSpace(id)
		if name == "" || id == "" {
			continue
		}
		voices[name] = id
	}
	if len(voices) == 0 {
		voices = defaultVoices()
	}
	c.Voice.Voices = voices
}

func (c *Config) normalizeSynthesis() {
	c.Synthesis.Engine = strings.ToLower(strings.TrimSpace(c.Synthesis.Engine))
	if c.Synthesis.Engine == "" {
		c.Synthesis.Engine = defaultEngine
	}
	c.Synthesis.EdgeTTSBinary = strings.TrimSpace(c.Synthesis.EdgeTTSBinary)
	if c.Synthesis.EdgeTTSBinary == "" {
		c.Synthesis.EdgeTTSBinary = defaultEdgeTTSBinary
	}
	c.Synthesis.HTTPURL = strings.TrimRight(strings.TrimSpace(c.Synthesis.HTTPURL), "/")
	if c.Synthesis.HTTPURL == "" {
		if value, ok := os.LookupEnv(synthesisHTTPURLEnvVar); ok {
			c.Synthesis.HTTPURL = strings.TrimRight(strings.TrimSpace(value), "/")
		}
	}
	if c.Synthesis.Concurrency <= 0 {
		c.Synthesis.Concurrency = defaultConcurrency
	}
	if c.Synthesis.TimeoutSeconds <= 0 {
		c.Synthesis.TimeoutSeconds = defaultSynthesisTimeout
	}
	if c.Synthesis.SampleRate <= 0 {
		c.Synthesis.SampleRate = defaultSampleRate
	}
}

func (c *Config) normalizeVideo() error {
	c.Video.Background = normalizeColor(c.Video.Background, defaultBackground)
	c.Video.FontColor = normalizeColor(c.Video.FontColor, defaultFontColor)
	c.Video.StrokeColor = normalizeColor(c.Video.StrokeColor, defaultStrokeColor)
	c.Video.Font = strings.TrimSpace(c.Video.Font)
	if c.Video.Font == "" {
		c.Video.Font = defaultFont
	}
	c.Video.FontFile = strings.TrimSpace(c.Video.FontFile)
	if value, ok := os.LookupEnv(fontFileEnvVar); ok && strings.TrimSpace(value) != "" {
		c.Video.FontFile = strings.TrimSpace(value)
	}
	if c.Video.FontFile != "" {
		expanded, err := expandPath(c.Video.FontFile)
		if err != nil {
			return fmt.Errorf("video.font_file: %w", err)
		}
		c.Video.FontFile = expanded
	}
	if c.Video.SubtitleYRatio == 0 {
		c.Video.SubtitleYRatio = defaultSubtitleYRatio
	}
	c.Video.VideoCodec = strings.TrimSpace(c.Video.VideoCodec)
	if c.Video.VideoCodec == "" {
		c.Video.VideoCodec = defaultVideoCodec
	}
	c.Video.AudioCodec = strings.TrimSpace(c.Video.AudioCodec)
	if c.Video.AudioCodec == "" {
		c.Video.AudioCodec = defaultAudioCodec
	}
	c.Video.Preset = strings.TrimSpace(c.Video.Preset)
	if c.Video.Preset == "" {
		c.Video.Preset = defaultPreset
	}
	return nil
}

// normalizeColor canonicalizes "#rrggbb", "0xrrggbb", and bare hex into "#RRGGBB".
func normalizeColor(value, fallback string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	lower := strings.ToLower(trimmed)
	lower = strings.TrimPrefix(lower, "#")
	lower = strings.TrimPrefix(lower, "0x")
	return "#" + strings.ToUpper(lower)
}

func (c *Config) normalizeTools() {
	c.Tools.FFmpeg = strings.TrimSpace(c.Tools.FFmpeg)
	if c.Tools.FFmpeg == "" {
		c.Tools.FFmpeg = defaultFFmpeg
	}
	c.Tools.FFprobe = strings.TrimSpace(c.Tools.FFprobe)
	if c.Tools.FFprobe == "" {
		c.Tools.FFprobe = defaultFFprobe
	}
}

func (c *Config) normalizeGiphy() {
	c.Giphy.APIKey = strings.TrimSpace(c.Giphy.APIKey)
	if c.Giphy.APIKey == "" {
		if value, ok := os.LookupEnv(giphyAPIKeyEnvVar); ok {
			c.Giphy.APIKey = strings.TrimSpace(value)
		}
	}
	c.Giphy.BaseURL = strings.TrimSpace(c.Giphy.BaseURL)
	if c.Giphy.BaseURL == "" {
		c.Giphy.BaseURL = defaultGiphyBaseURL
	}
	if c.Giphy.Limit <= 0 {
		c.Giphy.Limit = defaultGiphyLimit
	}
	c.Giphy.Rating = strings.ToLower(strings.TrimSpace(c.Giphy.Rating))
	if c.Giphy.Rating == "" {
		c.Giphy.Rating = defaultGiphyRating
	}
	c.Giphy.Language = strings.ToLower(strings.TrimSpace(c.Giphy.Language))
	if c.Giphy.Language == "" {
		c.Giphy.Language = defaultGiphyLanguage
	}
	if c.Giphy.TimeoutSeconds <= 0 {
		c.Giphy.TimeoutSeconds = defaultGiphyTimeout
	}
}

func (c *Config) normalizeGoogle() error {
	c.Google.ServiceAccountKeyPath = strings.TrimSpace(c.Google.ServiceAccountKeyPath)
	if c.Google.ServiceAccountKeyPath == "" {
		if value, ok := os.LookupEnv(googleCredentialsEnvVar); ok {
			c.Google.ServiceAccountKeyPath = strings.TrimSpace(value)
		}
	}
	if c.Google.ServiceAccountKeyPath != "" {
		expanded, err := expandPath(c.Google.ServiceAccountKeyPath)
		if err != nil {
			return fmt.Errorf("google.service_account_key_path: %w", err)
		}
		c.Google.ServiceAccountKeyPath = expanded
	}
	c.Google.DriveFolderID = strings.TrimSpace(c.Google.DriveFolderID)
	if c.Google.DriveFolderID == "" {
		if value, ok := os.LookupEnv(driveFolderEnvVar); ok {
			c.Google.DriveFolderID = strings.TrimSpace(value)
		}
	}
	c.Google.SpreadsheetID = strings.TrimSpace(c.Google.SpreadsheetID)
	if c.Google.SpreadsheetID == "" {
		if value, ok := os.LookupEnv(spreadsheetIDEnvVar); ok {
			c.Google.SpreadsheetID = strings.TrimSpace(value)
		}
	}
	c.Google.SheetName = strings.TrimSpace(c.Google.SheetName)
	if c.Google.SheetName == "" {
		c.Google.SheetName = defaultSheetName
	}
	return nil
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv(defaultNtfyTopicEnvVar); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch format {
	case "", "auto":
		c.Logging.Format = "auto"
	case "text", "pretty":
		c.Logging.Format = "console"
	default:
		c.Logging.Format = format
	}
	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level == "" {
		level = defaultLogLevel
	}
	if level == "warning" {
		level = "warn"
	}
	c.Logging.Level = level
}
