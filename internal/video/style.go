package video

import (
	"fmt"
	"strings"

	"mp4creator/internal/config"
)

// Style holds the encoding and subtitle appearance settings.
type Style struct {
	Width          int
	Height         int
	FPS            int
	Background     string
	Font           string
	FontFile       string
	FontSize       int
	FontColor      string
	StrokeColor    string
	StrokeWidth    int
	SubtitleYRatio float64
	VideoCodec     string
	AudioCodec     string
	Preset         string
}

// StyleFromConfig copies the [video] section.
func StyleFromConfig(v config.Video) Style {
	return Style{
		Width:          v.Width,
		Height:         v.Height,
		FPS:            v.FPS,
		Background:     v.Background,
		Font:           v.Font,
		FontFile:       v.FontFile,
		FontSize:       v.FontSize,
		FontColor:      v.FontColor,
		StrokeColor:    v.StrokeColor,
		StrokeWidth:    v.StrokeWidth,
		SubtitleYRatio: v.SubtitleYRatio,
		VideoCodec:     v.VideoCodec,
		AudioCodec:     v.AudioCodec,
		Preset:         v.Preset,
	}
}

func (s Style) size() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// ffmpegColor converts "#RRGGBB" into the 0xRRGGBB form filters accept.
func ffmpegColor(hex string) string {
	return "0x" + strings.TrimPrefix(strings.TrimSpace(hex), "#")
}

// letterboxFilter scales a still to fit inside the frame and pads the rest
// with the background colour.
func (s Style) letterboxFilter() string {
	return fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease:flags=lanczos,pad=%d:%d:(ow-iw)/2:(oh-ih)/2:color=%s,setsar=1,format=rgb24",
		s.Width, s.Height, s.Width, s.Height, ffmpegColor(s.Background),
	)
}

// drawtext renders one subtitle read from textFile during [start, end).
// Expansion is off so '%' and '\' in narration print literally.
func (s Style) drawtext(textFile string, start, end float64) string {
	var b strings.Builder
	b.WriteString("drawtext=")
	if s.FontFile != "" {
		b.WriteString("fontfile=" + escapeFilterValue(s.FontFile) + ":")
	} else if s.Font != "" {
		b.WriteString("font=" + escapeFilterValue(s.Font) + ":")
	}
	fmt.Fprintf(&b, "textfile=%s:expansion=none:fontsize=%d:fontcolor=%s:borderw=%d:bordercolor=%s",
		escapeFilterValue(textFile), s.FontSize, ffmpegColor(s.FontColor), s.StrokeWidth, ffmpegColor(s.StrokeColor))
	fmt.Fprintf(&b, ":x=(w-text_w)/2:y=h*%.3f", s.SubtitleYRatio)
	b.WriteString(":enable=" + escapeFilterValue(fmt.Sprintf("gte(t,%.3f)*lt(t,%.3f)", start, end)))
	return b.String()
}

// escapeFilterValue escapes an option value for a filtergraph script. Values
// pass through two parsers: the option parser splits on ':' and the graph
// parser on ',', ';' and brackets, so each level gets its own escaping.
func escapeFilterValue(value string) string {
	return graphEscaper.Replace(optionEscaper.Replace(value))
}

var (
	optionEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`, `:`, `\:`)
	graphEscaper  = strings.NewReplacer(`\`, `\\`, `'`, `\'`, `[`, `\[`, `]`, `\]`, `,`, `\,`, `;`, `\;`)
)
