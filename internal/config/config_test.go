package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"mp4creator/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("GIPHY_API_KEY", "giphy-key")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantWork := filepath.Join(tempHome, ".cache", "mp4creator", "work")
	if cfg.Paths.WorkDir != wantWork {
		t.Fatalf("unexpected work dir: got %q want %q", cfg.Paths.WorkDir, wantWork)
	}
	if cfg.Paths.OutputDir != filepath.Join(tempHome, "Videos", "mp4creator") {
		t.Fatalf("unexpected output dir: %q", cfg.Paths.OutputDir)
	}
	if cfg.Giphy.APIKey != "giphy-key" {
		t.Fatalf("expected giphy key from env, got %q", cfg.Giphy.APIKey)
	}
	if cfg.Voice.DefaultVoice != "남자1" || cfg.Voice.DefaultSpeed != "+40%" {
		t.Fatalf("unexpected voice defaults: %+v", cfg.Voice)
	}
	if cfg.Video.Width != 1920 || cfg.Video.Height != 1080 || cfg.Video.FPS != 30 {
		t.Fatalf("unexpected frame defaults: %+v", cfg.Video)
	}
	if cfg.Video.SubtitleYRatio != 0.75 {
		t.Fatalf("unexpected subtitle ratio: %v", cfg.Video.SubtitleYRatio)
	}
	if cfg.Logging.Format != "auto" {
		t.Fatalf("unexpected log format: %q", cfg.Logging.Format)
	}
	if cfg.GoogleEnabled() {
		t.Fatal("expected google integration disabled without credentials")
	}
}

func TestLoadCustomConfig(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configPath := filepath.Join(tempHome, "config.toml")
	payload := struct {
		Paths struct {
			OutputDir string `toml:"output_dir"`
		} `toml:"paths"`
		Voice struct {
			DefaultVoice string            `toml:"default_voice"`
			Voices       map[string]string `toml:"voices"`
		} `toml:"voice"`
		Synthesis struct {
			Engine      string `toml:"engine"`
			HTTPURL     string `toml:"http_url"`
			Concurrency int    `toml:"concurrency"`
		} `toml:"synthesis"`
		Video struct {
			Background string `toml:"background"`
		} `toml:"video"`
		Logging struct {
			Format string `toml:"format"`
			Level  string `toml:"level"`
		} `toml:"logging"`
	}{}
	payload.Paths.OutputDir = "~/out"
	payload.Voice.DefaultVoice = "여자1"
	payload.Voice.Voices = map[string]string{"여자1": "ko-KR-SunHiNeural", " ": "ignored"}
	payload.Synthesis.Engine = "HTTP"
	payload.Synthesis.HTTPURL = "http://127.0.0.1:8000/"
	payload.Synthesis.Concurrency = 2
	payload.Video.Background = "0x1a2b3c"
	payload.Logging.Format = "text"
	payload.Logging.Level = "warning"

	data, err := toml.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("unexpected resolution: %q exists=%v", resolved, exists)
	}
	if cfg.Paths.OutputDir != filepath.Join(tempHome, "out") {
		t.Fatalf("unexpected output dir: %q", cfg.Paths.OutputDir)
	}
	if cfg.Synthesis.Engine != config.EngineHTTP {
		t.Fatalf("expected engine to be lower-cased, got %q", cfg.Synthesis.Engine)
	}
	if cfg.Synthesis.HTTPURL != "http://127.0.0.1:8000" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Synthesis.HTTPURL)
	}
	if cfg.Video.Background != "#1A2B3C" {
		t.Fatalf("expected normalized color, got %q", cfg.Video.Background)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "warn" {
		t.Fatalf("unexpected logging normalization: %+v", cfg.Logging)
	}
	if len(cfg.Voice.Voices) != 1 {
		t.Fatalf("expected blank voice entries dropped, got %v", cfg.Voice.Voices)
	}
	if got := cfg.ResolveVoice("여자1"); got != "ko-KR-SunHiNeural" {
		t.Fatalf("ResolveVoice mapped = %q", got)
	}
	if got := cfg.ResolveVoice("en-US-AriaNeural"); got != "en-US-AriaNeural" {
		t.Fatalf("ResolveVoice pass-through = %q", got)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"engine", func(c *config.Config) { c.Synthesis.Engine = "festival" }, "synthesis.engine"},
		{"http url", func(c *config.Config) { c.Synthesis.Engine = config.EngineHTTP }, "synthesis.http_url"},
		{"odd width", func(c *config.Config) { c.Video.Width = 1921 }, "must be even"},
		{"zero fps", func(c *config.Config) { c.Video.FPS = 0 }, "video.fps"},
		{"ratio", func(c *config.Config) { c.Video.SubtitleYRatio = 0.3 }, "subtitle_y_ratio"},
		{"color", func(c *config.Config) { c.Video.Background = "black" }, "video.background"},
		{"rating", func(c *config.Config) { c.Giphy.Rating = "nc17" }, "giphy.rating"},
		{"log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
	}
	for _, tc := range cases {
		cfg := config.Default()
		tc.mutate(&cfg)
		err := cfg.Validate()
		if err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: expected %q in %v", tc.name, tc.want, err)
		}
	}
}

func TestEnvFallbacksForGoogleAndNotifications(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "~/sa.json")
	t.Setenv("MP4CREATOR_DRIVE_FOLDER_ID", "folder-1")
	t.Setenv("MP4CREATOR_SPREADSHEET_ID", "sheet-1")
	t.Setenv("MP4CREATOR_NTFY_TOPIC", "https://ntfy.sh/test")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Google.ServiceAccountKeyPath != filepath.Join(tempHome, "sa.json") {
		t.Fatalf("unexpected credentials path: %q", cfg.Google.ServiceAccountKeyPath)
	}
	if !cfg.GoogleEnabled() {
		t.Fatal("expected google integration enabled")
	}
	if cfg.Google.DriveFolderID != "folder-1" || cfg.Google.SpreadsheetID != "sheet-1" {
		t.Fatalf("unexpected google ids: %+v", cfg.Google)
	}
	if cfg.Notifications.NtfyTopic != "https://ntfy.sh/test" {
		t.Fatalf("unexpected ntfy topic: %q", cfg.Notifications.NtfyTopic)
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	path := filepath.Join(tempHome, "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config did not load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if cfg.Voice.Voices["남자1"] != "ko-KR-InJoonNeural" {
		t.Fatalf("unexpected sample voices: %v", cfg.Voice.Voices)
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.OutputDir = filepath.Join(base, "out")
	cfg.Paths.WorkDir = filepath.Join(base, "work")
	cfg.Paths.LogDir = ""
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories returned error: %v", err)
	}
	for _, dir := range []string{cfg.Paths.OutputDir, cfg.Paths.WorkDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s: %v", dir, err)
		}
	}
}
