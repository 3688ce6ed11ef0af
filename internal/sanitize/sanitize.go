// Package sanitize normalizes guest-supplied free text before it reaches the
// store: trim, cap, escape. Quotes are intentionally left alone so names like
// O'Brien survive untouched.
package sanitize

import "strings"

var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
)

// Clean trims surrounding whitespace, truncates to max runes, then escapes
// ampersands and angle brackets. Never fails; empty input yields "".
func Clean(s string, max int) string {
	s = strings.TrimSpace(s)
	if r := []rune(s); len(r) > max {
		s = string(r[:max])
	}

	return escaper.Replace(s)
}
