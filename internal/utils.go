package internal

import (
	"strings"
	"unicode"
)

// Version of slovnyk
const Version = "0.3.0"

// SanitizeFilename creates a safe filename from a string. Letters of any
// script, digits, '-' and '_' are kept; everything else becomes '_'.
func SanitizeFilename(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "export"
	}
	return b.String()
}
