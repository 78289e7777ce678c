package synth

import (
	"strings"
	"unicode/utf8"
)

// SplitText splits text into ordered chunks of at most maxChars bytes each.
// Boundaries prefer the last whitespace run before the limit so words are
// not split; when a chunk-sized span contains no whitespace the cut is made
// at the limit (never inside a multi-byte rune). Splitting mid-sentence is
// acceptable — the chunks are re-concatenated as audio, not re-read as text.
//
// The concatenation of the returned chunks, joined with single spaces at
// whitespace cuts, reproduces text's spoken content in order.
func SplitText(text string, maxChars int) []string {
	if maxChars <= 0 || len(text) <= maxChars {
		if strings.TrimSpace(text) == "" {
			return nil
		}
		return []string{text}
	}

	var chunks []string
	rest := text
	for len(rest) > maxChars {
		cut := lastSpaceBefore(rest, maxChars)
		if cut <= 0 {
			cut = maxChars
			// Back off to a rune boundary.
			for cut > 0 && !utf8.RuneStart(rest[cut]) {
				cut--
			}
			if cut == 0 {
				cut = maxChars
			}
		}
		chunk := strings.TrimSpace(rest[:cut])
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		rest = strings.TrimLeft(rest[cut:], " \t\n\r")
	}
	if rest = strings.TrimSpace(rest); rest != "" {
		chunks = append(chunks, rest)
	}
	return chunks
}

// lastSpaceBefore returns the index of the last whitespace byte at or before
// limit, or -1 when the span contains none.
func lastSpaceBefore(s string, limit int) int {
	for i := limit; i >= 0; i-- {
		switch s[i] {
		case ' ', '\t', '\n', '\r':
			return i
		}
	}
	return -1
}
