package tui

import (
	"strings"
	"unicode"
)

// sanitizeText strips control characters and terminal escape sequences from
// API-supplied text. Every title, summary and source name crosses this
// boundary before rendering; view code never sees the raw value.
func sanitizeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inEscape := false
	for _, r := range s {
		if inEscape {
			// CSI sequences terminate on a letter, simple escapes on any
			// non-control rune.
			if unicode.IsLetter(r) || (r != '[' && r != ';' && !unicode.IsDigit(r)) {
				inEscape = false
			}
			continue
		}
		switch {
		case r == 0x1b:
			inEscape = true
		case r == '\n' || r == '\t':
			b.WriteRune(' ')
		case unicode.IsControl(r):
			// dropped
		default:
			b.WriteRune(r)
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// truncateEnd shortens s to at most limit runes, appending an ellipsis
// if truncation occurs.
func truncateEnd(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	if limit <= 1 {
		return "…"
	}
	return string(r[:limit-1]) + "…"
}

// truncateMiddle shortens s to at most limit runes by preserving the start
// and end with a single ellipsis in the middle. Used for URLs, where both
// the host and the trailing path segment carry meaning.
func truncateMiddle(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	r := []rune(s)
	n := len(r)
	if n <= limit {
		return s
	}
	if limit <= 1 {
		return "…"
	}
	keep := limit - 1
	left := keep / 2
	right := keep - left
	if left <= 0 {
		return "…" + string(r[n-right:])
	}
	if right <= 0 {
		return string(r[:left]) + "…"
	}
	return string(r[:left]) + "…" + string(r[n-right:])
}
