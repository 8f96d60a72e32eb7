package directive_test

import (
	"reflect"
	"testing"

	"golang.org/x/text/unicode/norm"

	"mp4creator/internal/directive"
)

func TestParseLinePauseSplitsSegments(t *testing.T) {
	line := directive.ParseLine("안녕하세요. [쉼:1.5] 반갑습니다.")

	if line.Text != "안녕하세요. 반갑습니다." {
		t.Fatalf("unexpected clean text %q", line.Text)
	}
	want := []directive.Segment{
		{Kind: directive.SegmentText, Text: "안녕하세요."},
		{Kind: directive.SegmentPause, Seconds: 1.5},
		{Kind: directive.SegmentText, Text: "반갑습니다."},
	}
	if !reflect.DeepEqual(line.Segments, want) {
		t.Fatalf("segments = %+v, want %+v", line.Segments, want)
	}
	if len(line.Pauses) != 1 || line.Pauses[0].Seconds != 1.5 {
		t.Fatalf("unexpected pauses %+v", line.Pauses)
	}
	if off := line.Pauses[0].Offset; line.Text[:off] != "안녕하세요." {
		t.Fatalf("pause offset %d does not point after first sentence", off)
	}
}

func TestParseLineLastOccurrenceWins(t *testing.T) {
	line := directive.ParseLine("[VOICE:남자1]첫 문장 [목소리:여자1] [speed:+10%] 끝 [속도:1.5]")
	if line.Voice != "여자1" {
		t.Fatalf("voice = %q, want last occurrence", line.Voice)
	}
	if line.Speed != "+50%" {
		t.Fatalf("speed = %q, want +50%%", line.Speed)
	}
	if line.Text != "첫 문장 끝" {
		t.Fatalf("unexpected clean text %q", line.Text)
	}
}

func TestParseLineCaseInsensitiveTags(t *testing.T) {
	line := directive.ParseLine("[Voice:ko-KR-SunHiNeural][pause:0.5]hello")
	if line.Voice != "ko-KR-SunHiNeural" {
		t.Fatalf("voice = %q", line.Voice)
	}
	if len(line.Segments) != 2 || line.Segments[0].Kind != directive.SegmentPause {
		t.Fatalf("unexpected segments %+v", line.Segments)
	}
}

func TestParseLineForeignDirectivesStrippedAndSurfaced(t *testing.T) {
	line := directive.ParseLine("고양이 [검색어:cat] 사진 [GIPHY_URL:https://media.giphy.com/x.gif] [GOOGLE:dog]")
	if line.Text != "고양이 사진" {
		t.Fatalf("unexpected clean text %q", line.Text)
	}
	if len(line.Foreign) != 3 {
		t.Fatalf("expected 3 foreign directives, got %+v", line.Foreign)
	}
	if line.Foreign[1].Tag != directive.TagGiphyURL || line.Foreign[1].Value != "https://media.giphy.com/x.gif" {
		t.Fatalf("unexpected url directive %+v", line.Foreign[1])
	}
	if line.Voice != "" || line.Speed != "" || len(line.Pauses) != 0 {
		t.Fatalf("foreign directives must not affect narration state: %+v", line)
	}
}

func TestParseLineMalformedPayloadsDegrade(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"speed", "텍스트 [SPEED:fast]"},
		{"pause word", "텍스트 [쉼:long]"},
		{"pause negative", "텍스트 [PAUSE:-1]"},
		{"pause nan", "텍스트 [PAUSE:NaN]"},
	}
	for _, tc := range cases {
		line := directive.ParseLine(tc.input)
		if line.Text != "텍스트" {
			t.Fatalf("%s: directive span should still be stripped, got %q", tc.name, line.Text)
		}
		if line.Speed != "" || len(line.Pauses) != 0 {
			t.Fatalf("%s: malformed directive must be absent: %+v", tc.name, line)
		}
		if len(line.Warnings) != 1 {
			t.Fatalf("%s: expected one warning, got %v", tc.name, line.Warnings)
		}
		if len(line.Segments) != 1 || line.Segments[0].Text != "텍스트" {
			t.Fatalf("%s: unexpected segments %+v", tc.name, line.Segments)
		}
	}
}

func TestParseLineUnknownTagIsNarration(t *testing.T) {
	line := directive.ParseLine("참고 [NOTE:무시] 끝")
	if line.Text != "참고 [NOTE:무시] 끝" {
		t.Fatalf("unknown tags must remain in narration, got %q", line.Text)
	}
}

func TestParseLineDirectivesOnly(t *testing.T) {
	line := directive.ParseLine("[VOICE:x][SPEED:y]")
	if line.HasNarration() {
		t.Fatalf("expected no narration, got %+v", line.Segments)
	}
	if line.Voice != "x" {
		t.Fatalf("voice = %q", line.Voice)
	}
	if line.Text != "" {
		t.Fatalf("expected empty text, got %q", line.Text)
	}
}

func TestParseLineZeroPauseKept(t *testing.T) {
	line := directive.ParseLine("a [쉼:0] b")
	if len(line.Pauses) != 1 || line.Pauses[0].Seconds != 0 {
		t.Fatalf("zero pause should parse, got %+v", line.Pauses)
	}
}

func TestParseLineNormalizesDecomposedHangul(t *testing.T) {
	decomposed := norm.NFD.String("[쉼:2]안녕")
	line := directive.ParseLine(decomposed)
	if len(line.Pauses) != 1 || line.Pauses[0].Seconds != 2 {
		t.Fatalf("decomposed tag should be recognized, got %+v", line)
	}
	if line.Text != "안녕" {
		t.Fatalf("expected NFC text, got %q", line.Text)
	}
}

func TestSplitLinesAcceptsCRLF(t *testing.T) {
	got := directive.SplitLines("a\r\nb\nc")
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("SplitLines = %q, want %q", got, want)
	}
}
