package directive

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Kind enumerates the closed directive vocabulary.
type Kind int

const (
	KindVoice Kind = iota + 1
	KindSpeed
	KindPause
	KindForeign
)

func (k Kind) String() string {
	switch k {
	case KindVoice:
		return "voice"
	case KindSpeed:
		return "speed"
	case KindPause:
		return "pause"
	case KindForeign:
		return "foreign"
	default:
		return "unknown"
	}
}

// Foreign marker tags, canonical upper-case form.
const (
	TagGiphy     = "GIPHY"
	TagGoogle    = "GOOGLE"
	TagGiphyURL  = "GIPHY_URL"
	TagGoogleURL = "GOOGLE_URL"
	TagKeyword   = "검색어"
)

var tagKinds = map[string]Kind{
	"VOICE":      KindVoice,
	"목소리":        KindVoice,
	"SPEED":      KindSpeed,
	"속도":         KindSpeed,
	"PAUSE":      KindPause,
	"쉼":          KindPause,
	TagGiphy:     KindForeign,
	TagGoogle:    KindForeign,
	TagGiphyURL:  KindForeign,
	TagGoogleURL: KindForeign,
	TagKeyword:   KindForeign,
}

// Directive is one recognized [TAG:VALUE] span.
type Directive struct {
	Kind  Kind
	Tag   string
	Value string
	// Start and End are byte offsets of the span in the NFC-normalized line.
	Start int
	End   int
}

var spanPattern = regexp.MustCompile(`\[([^\[\]:\n]+):([^\]\n]+)\]`)

// Normalize applies NFC so decomposed Hangul tags and text compare equal.
func Normalize(text string) string {
	return norm.NFC.String(text)
}

// Scan returns the recognized directives of an already normalized line in
// source order. Bracketed spans with unknown tags are left as narration.
func Scan(line string) []Directive {
	matches := spanPattern.FindAllStringSubmatchIndex(line, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make([]Directive, 0, len(matches))
	for _, m := range matches {
		tag := canonicalTag(line[m[2]:m[3]])
		kind, ok := tagKinds[tag]
		if !ok {
			continue
		}
		out = append(out, Directive{
			Kind:  kind,
			Tag:   tag,
			Value: strings.TrimSpace(line[m[4]:m[5]]),
			Start: m[0],
			End:   m[1],
		})
	}
	return out
}

func canonicalTag(raw string) string {
	// Casers carry state, so one is built per call to stay goroutine safe.
	return cases.Upper(language.Und).String(strings.TrimSpace(raw))
}
