// Package filename normalizes user supplied file names into a storage-safe form.
package filename

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	whitespaceRun = regexp.MustCompile(`[\s\v\p{Z}\x{FEFF}]+`)
	invalidChars  = regexp.MustCompile(`[^a-zA-Z0-9._-]`)
	hyphenRun     = regexp.MustCompile(`-{2,}`)
)

// Sanitize is SanitizeString for an optional name. A nil name yields "".
func Sanitize(name *string) string {
	if name == nil {
		return ""
	}
	return SanitizeString(*name)
}

// SanitizeString keeps only ASCII letters, digits, '-', '_' and '.'.
// Diacritics are stripped from their base letter ("ã" -> "a"), whitespace runs
// become a single hyphen, hyphen runs collapse and edge hyphens are trimmed.
func SanitizeString(name string) string {
	stripped, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn))), name)
	if err != nil {
		stripped = name
	}

	sanitized := whitespaceRun.ReplaceAllString(stripped, "-")
	sanitized = invalidChars.ReplaceAllString(sanitized, "")
	sanitized = hyphenRun.ReplaceAllString(sanitized, "-")
	return strings.Trim(sanitized, "-")
}
