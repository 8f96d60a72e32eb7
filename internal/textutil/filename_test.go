package textutil

import (
	"strings"
	"testing"

	"golang.org/x/text/unicode/norm"
)

func TestSafeFileName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"intro", "intro"},
		{"  고양이   영상\t1 ", "고양이 영상 1"},
		{"sheet:42", "sheet-42"},
		{"a/b\\c", "a-b-c"},
		{"what?<now>|\"", "whatnow"},
		{"..hidden", "hidden"},
		{"line\x00break", "linebreak"},
		{"", ""},
		{"???", ""},
	}
	for _, tt := range tests {
		if got := SafeFileName(tt.in); got != tt.want {
			t.Fatalf("SafeFileName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSafeFileNameNormalizesHangul(t *testing.T) {
	decomposed := norm.NFD.String("한글")
	if got := SafeFileName(decomposed); got != "한글" {
		t.Fatalf("expected NFC output, got %q", got)
	}
}

func TestSafeFileNameTruncates(t *testing.T) {
	got := SafeFileName(strings.Repeat("가", 200))
	if n := len([]rune(got)); n != maxFileNameRunes {
		t.Fatalf("expected %d runes, got %d", maxFileNameRunes, n)
	}
}
