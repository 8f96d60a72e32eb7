package directive

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// SegmentKind distinguishes narration from inserted silence.
type SegmentKind int

const (
	SegmentText SegmentKind = iota + 1
	SegmentPause
)

// Segment is one ordered piece of a line after pause directives are cut out.
type Segment struct {
	Kind    SegmentKind
	Text    string
	Seconds float64
}

// Pause records a pause directive and where it sits in the cleaned text.
type Pause struct {
	Seconds float64
	Offset  int
}

// Line is the parse result for one newline-delimited unit of a script.
type Line struct {
	// Text is the narration with every directive removed and whitespace collapsed.
	Text string
	// Voice and Speed hold the last valid occurrence on the line, or "".
	// Speed is already normalized to a "+N%" rate expression.
	Voice    string
	Speed    string
	Pauses   []Pause
	Foreign  []Directive
	Segments []Segment
	Warnings []string
}

// HasNarration reports whether any text segment carries content.
func (l Line) HasNarration() bool {
	for _, seg := range l.Segments {
		if seg.Kind == SegmentText && seg.Text != "" {
			return true
		}
	}
	return false
}

// SplitLines splits a script on newlines, accepting CRLF input.
func SplitLines(script string) []string {
	script = strings.ReplaceAll(script, "\r\n", "\n")
	script = strings.ReplaceAll(script, "\r", "\n")
	return strings.Split(script, "\n")
}

// ParseLine extracts directives from one line. It never fails: malformed
// speed or pause payloads are dropped and reported in Warnings.
func ParseLine(raw string) Line {
	text := Normalize(raw)
	var (
		out     Line
		cleaned strings.Builder
		pending strings.Builder
		cursor  int
	)

	flush := func() {
		content := collapse(pending.String())
		pending.Reset()
		if content != "" {
			out.Segments = append(out.Segments, Segment{Kind: SegmentText, Text: content})
		}
	}

	for _, d := range Scan(text) {
		between := text[cursor:d.Start]
		cleaned.WriteString(between)
		pending.WriteString(between)
		cursor = d.End

		switch d.Kind {
		case KindVoice:
			if d.Value != "" {
				out.Voice = d.Value
			}
		case KindSpeed:
			rate, ok := NormalizeRate(d.Value)
			if !ok {
				out.Warnings = append(out.Warnings, fmt.Sprintf("%s: unparseable speed %q ignored", d.Tag, d.Value))
				continue
			}
			out.Speed = rate
		case KindPause:
			seconds, err := parsePause(d.Value)
			if err != nil {
				out.Warnings = append(out.Warnings, fmt.Sprintf("%s: %v", d.Tag, err))
				continue
			}
			flush()
			out.Pauses = append(out.Pauses, Pause{Seconds: seconds, Offset: len(collapse(cleaned.String()))})
			out.Segments = append(out.Segments, Segment{Kind: SegmentPause, Seconds: seconds})
		case KindForeign:
			out.Foreign = append(out.Foreign, d)
		}
	}
	tail := text[cursor:]
	cleaned.WriteString(tail)
	pending.WriteString(tail)
	flush()

	out.Text = collapse(cleaned.String())
	return out
}

func parsePause(value string) (float64, error) {
	seconds, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable pause %q ignored", value)
	}
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return 0, fmt.Errorf("pause %q out of range ignored", value)
	}
	return seconds, nil
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
