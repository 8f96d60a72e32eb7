package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// maxFileNameRunes keeps derived names well under common 255-byte limits
// even when every rune is three bytes of Hangul.
const maxFileNameRunes = 80

// fileNameReplacer maps filesystem-unsafe characters to safe alternatives.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SafeFileName turns name into a single path segment. The text is NFC
// normalized so Hangul typed on macOS and Linux produce the same file,
// control characters are dropped, runs of whitespace collapse to one space,
// and leading dots are stripped so the result is never hidden. Empty input,
// or input with nothing usable, returns "".
func SafeFileName(name string) string {
	name = fileNameReplacer.Replace(norm.NFC.String(name))

	var b strings.Builder
	space := false
	for _, r := range name {
		switch {
		case unicode.IsSpace(r):
			space = b.Len() > 0
			continue
		case unicode.IsControl(r):
			continue
		}
		if space {
			b.WriteByte(' ')
			space = false
		}
		b.WriteRune(r)
	}

	out := strings.TrimLeft(b.String(), ".")
	if runes := []rune(out); len(runes) > maxFileNameRunes {
		out = string(runes[:maxFileNameRunes])
	}
	return strings.TrimSpace(out)
}
