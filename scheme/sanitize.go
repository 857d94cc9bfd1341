// Package scheme decides which URI scheme Hermes registers with the OS.
package scheme

import "strings"

// Sanitize lower-cases input and drops everything RFC 3986 does not allow in a scheme
// (letters, digits, '.', '-', '+'), then strips leading characters until the first letter.
// It returns false when no valid characters remain.
func Sanitize(input string) (string, bool) {
	var b strings.Builder
	b.Grow(len(input))
	for _, r := range strings.ToLower(input) {
		if isAlpha(r) || (r >= '0' && r <= '9') || r == '.' || r == '-' || r == '+' {
			b.WriteRune(r)
		}
	}

	// the first character can only be alphabetic
	out := strings.TrimLeftFunc(b.String(), func(r rune) bool { return !isAlpha(r) })
	return out, out != ""
}

func isAlpha(r rune) bool {
	return r >= 'a' && r <= 'z'
}
