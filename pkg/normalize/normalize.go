// Package normalize canonicalizes free-text person and folder names into a
// comparable token form.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Name lower-cases s, strips diacritics, replaces every character outside
// [a-z0-9 ] with a space, collapses whitespace runs and trims the result.
// It never fails; empty input yields "".
func Name(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToLower(s)

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	if stripped, _, err := transform.String(t, s); err == nil {
		s = stripped
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Names normalizes every element of in, dropping results that end up empty.
func Names(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if n := Name(s); n != "" {
			out = append(out, n)
		}
	}
	return out
}
