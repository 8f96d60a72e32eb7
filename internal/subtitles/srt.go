package subtitles

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Entry is one timed subtitle line.
type Entry struct {
	Text  string
	Start float64
	End   float64
}

// Format renders entries as an SRT document: numbered blocks separated by a
// blank line, timestamps HH:MM:SS,mmm rounded to the millisecond.
func Format(entries []Entry) string {
	var b strings.Builder
	for i, entry := range entries {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteByte('\n')
		b.WriteString(FormatTimestamp(entry.Start))
		b.WriteString(" --> ")
		b.WriteString(FormatTimestamp(entry.End))
		b.WriteByte('\n')
		b.WriteString(singleLine(entry.Text))
		b.WriteByte('\n')
	}
	return b.String()
}

// FormatTimestamp renders seconds as HH:MM:SS,mmm. Negative input clamps to zero.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	total := int64(math.Round(seconds * 1000))
	ms := total % 1000
	total /= 1000
	s := total % 60
	total /= 60
	m := total % 60
	h := total / 60
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

// singleLine keeps each cue to one text line so blank lines inside the text
// cannot break block boundaries.
func singleLine(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Parse reads an SRT document into entries. Cue numbering is not validated.
func Parse(content string) ([]Entry, error) {
	content = strings.TrimPrefix(content, "\ufeff")
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, nil
	}

	var entries []Entry
	for idx, block := range strings.Split(content, "\n\n") {
		lines := nonEmptyLines(block)
		if len(lines) == 0 {
			continue
		}
		timing := 0
		if !strings.Contains(lines[0], "-->") {
			timing = 1
		}
		if timing >= len(lines) || !strings.Contains(lines[timing], "-->") {
			return nil, fmt.Errorf("block %d: missing timing line", idx+1)
		}
		parts := strings.SplitN(lines[timing], "-->", 2)
		start, err := ParseTimestamp(parts[0])
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", idx+1, err)
		}
		end, err := ParseTimestamp(parts[1])
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", idx+1, err)
		}
		entries = append(entries, Entry{
			Text:  strings.Join(lines[timing+1:], "\n"),
			Start: start,
			End:   end,
		})
	}
	return entries, nil
}

func nonEmptyLines(block string) []string {
	raw := strings.Split(block, "\n")
	out := raw[:0]
	for _, line := range raw {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// ParseTimestamp parses HH:MM:SS,mmm (a period separator is also accepted).
func ParseTimestamp(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, errors.New("empty timestamp")
	}
	// Positional cue settings may trail the end timestamp.
	if fields := strings.Fields(value); len(fields) > 1 {
		value = fields[0]
	}
	value = strings.ReplaceAll(value, ".", ",")
	timeParts := strings.Split(value, ",")
	if len(timeParts) != 2 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(timeParts[0], ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(timeParts[1])
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	if minutes > 59 || seconds > 59 || millis > 999 || hours < 0 || minutes < 0 || seconds < 0 || millis < 0 {
		return 0, fmt.Errorf("timestamp %q out of range", value)
	}
	return float64(hours*3600+minutes*60+seconds) + float64(millis)/1000, nil
}

// WriteFile writes the document next to path via a hidden temp file and a
// rename, so readers never observe a partial file.
func WriteFile(path, content string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".srt-"+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp subtitle file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write subtitle file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close subtitle file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename subtitle file: %w", err)
	}
	return nil
}
