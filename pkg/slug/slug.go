// Package slug converts display names into URL-safe slugs.
//
//	slug.Make("Summer Dresses & Skirts")  // "summer-dresses-skirts"
//	slug.WithSuffix("shoes", 2)           // "shoes-2"
package slug

import (
	"strconv"
	"strings"
	"unicode"
)

// Make lowercases name, replaces every run of non-alphanumeric characters
// with a single hyphen and trims leading/trailing hyphens. Returns "n-a"
// for names with no usable characters so callers never get an empty slug.
func Make(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	out := strings.TrimRight(b.String(), "-")
	if out == "" {
		return "n-a"
	}
	return out
}

// WithSuffix appends a numeric collision suffix: "shoes" + 2 → "shoes-2".
// A suffix below 2 returns the base unchanged (the first occupant keeps the
// clean slug).
func WithSuffix(base string, n int) string {
	if n < 2 {
		return base
	}
	return base + "-" + strconv.Itoa(n)
}
