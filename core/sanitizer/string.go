package sanitizer

import (
	"strings"
	"unicode"
)

// Trim removes leading and trailing whitespace from the string.
func Trim(s string) string {
	return strings.TrimSpace(s)
}

// TrimToLower trims whitespace and converts the string to lowercase.
func TrimToLower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// RemoveExtraWhitespace collapses any run of whitespace, newlines included,
// into a single space.
func RemoveExtraWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// RemoveControlChars strips non-printable control characters.
func RemoveControlChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if !unicode.IsControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// MaxLength truncates the string to at most maxLen runes.
func MaxLength(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen])
}

// CleanName normalizes a display name coming from an upstream API: control
// characters are removed and whitespace runs collapsed.
func CleanName(s string) string {
	return RemoveExtraWhitespace(RemoveControlChars(s))
}
