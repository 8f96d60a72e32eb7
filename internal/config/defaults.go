package config

const (
	defaultConfigPath        = "~/.config/mp4creator/config.toml"
	projectConfigName        = "mp4creator.toml"
	defaultOutputDir         = "~/Videos/mp4creator"
	defaultWorkDir           = "~/.cache/mp4creator/work"
	defaultLogDir            = "~/.local/share/mp4creator/logs"
	defaultHistoryPath       = "~/.local/share/mp4creator/history.db"
	defaultVoice             = "남자1"
	defaultSpeed             = "+40%"
	defaultEngine            = EngineEdgeTTS
	defaultEdgeTTSBinary     = "edge-tts"
	defaultConcurrency       = 4
	defaultSynthesisTimeout  = 120
	defaultSampleRate        = 24000
	defaultWidth             = 1920
	defaultHeight            = 1080
	defaultFPS               = 30
	defaultBackground        = "#000000"
	defaultFont              = "Noto Sans CJK KR:style=Bold"
	defaultFontSize          = 48
	defaultFontColor         = "#FFFFFF"
	defaultStrokeColor       = "#000000"
	defaultStrokeWidth       = 2
	defaultSubtitleYRatio    = 0.75
	defaultVideoCodec        = "libx264"
	defaultAudioCodec        = "aac"
	defaultPreset            = "medium"
	defaultFFmpeg            = "ffmpeg"
	defaultFFprobe           = "ffprobe"
	defaultGiphyBaseURL      = "https://api.giphy.com/v1/gifs/search"
	defaultGiphyLimit        = 1
	defaultGiphyRating       = "g"
	defaultGiphyLanguage     = "ko"
	defaultGiphyTimeout      = 15
	defaultSheetName         = "Sheet1"
	defaultNotifyTimeout     = 10
	defaultLogFormat         = "auto"
	defaultLogLevel          = "info"
	defaultLogRetentionDays  = 30
	maxSynthesisConcurrency  = 32
	minSubtitleYRatio        = 0.5
	maxSubtitleYRatio        = 1.0
	defaultNtfyTopicEnvVar   = "MP4CREATOR_NTFY_TOPIC"
	giphyAPIKeyEnvVar        = "GIPHY_API_KEY"
	googleCredentialsEnvVar  = "GOOGLE_APPLICATION_CREDENTIALS"
	driveFolderEnvVar        = "MP4CREATOR_DRIVE_FOLDER_ID"
	spreadsheetIDEnvVar      = "MP4CREATOR_SPREADSHEET_ID"
	synthesisHTTPURLEnvVar   = "MP4CREATOR_TTS_URL"
	fontFileEnvVar           = "MP4CREATOR_FONT_FILE"
	defaultFontFile          = "/usr/share/fonts/opentype/noto/NotoSansCJK-Bold.ttc"
)

// Speech renderer engines.
const (
	EngineEdgeTTS = "edge-tts"
	EngineHTTP    = "http"
)

func defaultVoices() map[string]string {
	return map[string]string{
		"남자1": "ko-KR-InJoonNeural",
		"남자2": "ko-KR-HyunsuMultilingualNeural",
		"여자1": "ko-KR-SunHiNeural",
	}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir:   defaultOutputDir,
			WorkDir:     defaultWorkDir,
			LogDir:      defaultLogDir,
			HistoryPath: defaultHistoryPath,
		},
		Voice: Voice{
			DefaultVoice: defaultVoice,
			DefaultSpeed: defaultSpeed,
		},
		Synthesis: Synthesis{
			Engine:         defaultEngine,
			EdgeTTSBinary:  defaultEdgeTTSBinary,
			Concurrency:    defaultConcurrency,
			TimeoutSeconds: defaultSynthesisTimeout,
			SampleRate:     defaultSampleRate,
		},
		Video: Video{
			Width:          defaultWidth,
			Height:         defaultHeight,
			FPS:            defaultFPS,
			Background:     defaultBackground,
			Font:           defaultFont,
			FontFile:       defaultFontFile,
			FontSize:       defaultFontSize,
			FontColor:      defaultFontColor,
			StrokeColor:    defaultStrokeColor,
			StrokeWidth:    defaultStrokeWidth,
			SubtitleYRatio: defaultSubtitleYRatio,
			VideoCodec:     defaultVideoCodec,
			AudioCodec:     defaultAudioCodec,
			Preset:         defaultPreset,
		},
		Tools: Tools{
			FFmpeg:  defaultFFmpeg,
			FFprobe: defaultFFprobe,
		},
		Giphy: Giphy{
			BaseURL:        defaultGiphyBaseURL,
			Limit:          defaultGiphyLimit,
			Rating:         defaultGiphyRating,
			Language:       defaultGiphyLanguage,
			TimeoutSeconds: defaultGiphyTimeout,
		},
		Google: Google{
			SheetName: defaultSheetName,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Completed:      true,
			Failed:         true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
