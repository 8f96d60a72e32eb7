// Package directive parses the inline [TAG:VALUE] mini-language embedded in
// narration scripts.
//
// Recognized tags come in bilingual pairs (VOICE/목소리, SPEED/속도, PAUSE/쉼)
// plus foreign markers (GIPHY, GOOGLE, GIPHY_URL, GOOGLE_URL, 검색어) that are
// stripped from narration and surfaced untouched for image search. Parsing is
// best-effort: malformed payloads are dropped with a warning, never an error.
package directive
