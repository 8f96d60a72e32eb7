package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	OutputDir   string `toml:"output_dir"`
	WorkDir     string `toml:"work_dir"`
	LogDir      string `toml:"log_dir"`
	HistoryPath string `toml:"history_path"`
}

// Voice contains the narration defaults and the name to engine-id mapping.
type Voice struct {
	DefaultVoice string            `toml:"default_voice"`
	DefaultSpeed string            `toml:"default_speed"`
	Voices       map[string]string `toml:"voices"`
}

// Synthesis contains speech renderer settings.
type Synthesis struct {
	Engine         string `toml:"engine"`
	EdgeTTSBinary  string `toml:"edge_tts_binary"`
	HTTPURL        string `toml:"http_url"`
	Concurrency    int    `toml:"concurrency"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	SampleRate     int    `toml:"sample_rate"`
}

// Video contains composition settings for the final MP4.
type Video struct {
	Width          int     `toml:"width"`
	Height         int     `toml:"height"`
	FPS            int     `toml:"fps"`
	Background     string  `toml:"background"`
	Font           string  `toml:"font"`
	FontFile       string  `toml:"font_file"`
	FontSize       int     `toml:"font_size"`
	FontColor      string  `toml:"font_color"`
	StrokeColor    string  `toml:"stroke_color"`
	StrokeWidth    int     `toml:"stroke_width"`
	SubtitleYRatio float64 `toml:"subtitle_y_ratio"`
	VideoCodec     string  `toml:"video_codec"`
	AudioCodec     string  `toml:"audio_codec"`
	Preset         string  `toml:"preset"`
}

// Tools contains external binary names.
type Tools struct {
	FFmpeg  string `toml:"ffmpeg"`
	FFprobe string `toml:"ffprobe"`
}

// Giphy contains image search settings.
type Giphy struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Limit          int    `toml:"limit"`
	Rating         string `toml:"rating"`
	Language       string `toml:"lang"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Google contains service-account backed Drive and Sheets settings.
type Google struct {
	ServiceAccountKeyPath string `toml:"service_account_key_path"`
	DriveFolderID         string `toml:"drive_folder_id"`
	SpreadsheetID         string `toml:"spreadsheet_id"`
	SheetName             string `toml:"sheet_name"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Completed      bool   `toml:"completed"`
	Failed         bool   `toml:"failed"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for mp4creator.
//
// Configuration sections by subsystem:
//   - Paths: output, scratch, log, and history locations
//   - Voice: default narration voice/speed plus the voice name mapping
//   - Synthesis: speech renderer selection and fan-out limits
//   - Video: frame geometry, subtitle style, codecs
//   - Tools: ffmpeg/ffprobe binaries
//   - Giphy: background image search
//   - Google: Drive upload and Sheets script lookup
//   - Notifications: ntfy push notification settings
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Voice         Voice         `toml:"voice"`
	Synthesis     Synthesis     `toml:"synthesis"`
	Video         Video         `toml:"video"`
	Tools         Tools         `toml:"tools"`
	Giphy         Giphy         `toml:"giphy"`
	Google        Google        `toml:"google"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the output, scratch, and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.WorkDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ResolveVoice maps a human-facing voice name to the engine identifier.
// Unknown names are returned unchanged.
func (c *Config) ResolveVoice(name string) string {
	name = strings.TrimSpace(name)
	if id, ok := c.Voice.Voices[name]; ok && strings.TrimSpace(id) != "" {
		return id
	}
	return name
}

// GoogleEnabled reports whether a service account key is configured.
func (c *Config) GoogleEnabled() bool {
	return strings.TrimSpace(c.Google.ServiceAccountKeyPath) != ""
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
