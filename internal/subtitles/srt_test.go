package subtitles_test

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mp4creator/internal/subtitles"
)

func TestFormatProducesNumberedBlocks(t *testing.T) {
	entries := []subtitles.Entry{
		{Text: "안녕하세요.", Start: 0, End: 1.2346},
		{Text: "반갑습니다.", Start: 2.7346, End: 3661.5},
	}
	got := subtitles.Format(entries)
	want := "1\n00:00:00,000 --> 00:00:01,235\n안녕하세요.\n\n2\n00:00:02,735 --> 01:01:01,500\n반갑습니다.\n"
	if got != want {
		t.Fatalf("Format mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestFormatEmpty(t *testing.T) {
	if got := subtitles.Format(nil); got != "" {
		t.Fatalf("expected empty document, got %q", got)
	}
}

func TestFormatTimestampRounding(t *testing.T) {
	cases := map[float64]string{
		0:         "00:00:00,000",
		0.0004:    "00:00:00,000",
		0.0006:    "00:00:00,001",
		59.9996:   "00:01:00,000",
		3599.999:  "00:59:59,999",
		-3:        "00:00:00,000",
		36000.25:  "10:00:00,250",
		1.5 + 1e-9: "00:00:01,500",
	}
	for in, want := range cases {
		if got := subtitles.FormatTimestamp(in); got != want {
			t.Fatalf("FormatTimestamp(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestRoundTripPreservesTriplesToMillisecond(t *testing.T) {
	entries := []subtitles.Entry{
		{Text: "첫 번째", Start: 0, End: 1.23456},
		{Text: "두 번째", Start: 2.73456, End: 4.0001},
		{Text: "세 번째", Start: 4.0001, End: 7.9999},
	}
	parsed, err := subtitles.Parse(subtitles.Format(entries))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(parsed) != len(entries) {
		t.Fatalf("expected %d entries, got %d", len(entries), len(parsed))
	}
	for i := range entries {
		if parsed[i].Text != entries[i].Text {
			t.Fatalf("entry %d text = %q, want %q", i, parsed[i].Text, entries[i].Text)
		}
		if math.Abs(parsed[i].Start-entries[i].Start) > 0.0005+1e-9 || math.Abs(parsed[i].End-entries[i].End) > 0.0005+1e-9 {
			t.Fatalf("entry %d timing drifted: got %+v want %+v", i, parsed[i], entries[i])
		}
	}
}

func TestParseAcceptsCRLFAndBOM(t *testing.T) {
	doc := "\ufeff1\r\n00:00:01.000 --> 00:00:02,500\r\nline one\r\nline two\r\n\r\n2\r\n00:00:03,000 --> 00:00:04,000 X1:0\r\nnext\r\n"
	entries, err := subtitles.Parse(doc)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Text != "line one\nline two" || entries[0].Start != 1 || entries[0].End != 2.5 {
		t.Fatalf("unexpected first entry %+v", entries[0])
	}
	if entries[1].End != 4 {
		t.Fatalf("trailing cue settings should be ignored, got %+v", entries[1])
	}
}

func TestParseRejectsBadTimestamps(t *testing.T) {
	for _, doc := range []string{
		"1\n00:00:01 --> 00:00:02,000\ntext\n",
		"1\n00:61:00,000 --> 00:62:00,000\ntext\n",
		"1\nno timing here\ntext\n",
	} {
		if _, err := subtitles.Parse(doc); err == nil {
			t.Fatalf("expected error for %q", doc)
		}
	}
}

func TestWriteFileIsAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.srt")
	if err := subtitles.WriteFile(path, "1\n00:00:00,000 --> 00:00:01,000\nhi\n"); err != nil {
		t.Fatalf("WriteFile returned error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), "hi") {
		t.Fatalf("unexpected content %q", data)
	}
	matches, _ := filepath.Glob(filepath.Join(dir, ".srt-*"))
	if len(matches) != 0 {
		t.Fatalf("temp files left behind: %v", matches)
	}
}

func TestValidateDetectsOrderingProblems(t *testing.T) {
	good := []subtitles.Entry{{Text: "a", Start: 0, End: 1}, {Text: "b", Start: 2.5, End: 3}}
	if issues := subtitles.Validate(good, 3.01, 0.02); len(issues) != 0 {
		t.Fatalf("expected valid timeline, got %v", issues)
	}
	bad := []subtitles.Entry{{Text: "a", Start: 0, End: 2}, {Text: "b", Start: 1, End: 1}}
	issues := subtitles.Validate(bad, 0.5, 0.02)
	if len(issues) != 3 {
		t.Fatalf("expected overlap, zero-length, and duration issues, got %v", issues)
	}
	if issues := subtitles.Validate(nil, 0, 0); len(issues) != 1 {
		t.Fatalf("expected empty track issue, got %v", issues)
	}
}
