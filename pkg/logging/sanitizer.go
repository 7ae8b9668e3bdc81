package logging

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"unicode"
)

const (
	// MaxValueLogLength is the maximum length of a cell value to log
	MaxValueLogLength = 100
	// MaxFileNameLogLength is the maximum length of an uploaded file name to log
	MaxFileNameLogLength = 80
	// RedactedText is the replacement text for sensitive data
	RedactedText = "[REDACTED]"
)

var (
	// Pattern to match secrets passed as key=value pairs
	// Matches: password=xxx, secret=xxx, session_secret=xxx (until next delimiter)
	secretPattern = regexp.MustCompile(`(?i)(password|pwd|secret|session_secret)=[^;&\s]+`)

	// Pattern to match JWT tokens (three base64 segments separated by dots)
	jwtPattern = regexp.MustCompile(`Bearer\s+[A-Za-z0-9-_]+\.[A-Za-z0-9-_]+\.[A-Za-z0-9-_]*`)
)

// SanitizeError sanitizes error messages that might contain sensitive data.
// Use this before logging any error that may echo request input.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}

	sanitized := secretPattern.ReplaceAllString(err.Error(), "${1}="+RedactedText)
	sanitized = jwtPattern.ReplaceAllString(sanitized, "Bearer "+RedactedText)
	return stripControl(sanitized)
}

// SanitizeValue renders a cell value for logging, truncated to
// MaxValueLogLength. Uploaded data is user content and may be arbitrarily
// long or contain terminal escape sequences.
func SanitizeValue(v any) string {
	if v == nil {
		return "<nil>"
	}
	return TruncateString(stripControl(fmt.Sprint(v)), MaxValueLogLength)
}

// SanitizeFileName reduces an uploaded file name to its base name without
// control characters, truncated to MaxFileNameLogLength.
func SanitizeFileName(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	base := path.Base(name)
	if base == "." || base == "/" {
		return ""
	}
	return TruncateString(stripControl(base), MaxFileNameLogLength)
}

// TruncateString truncates a string to maxLen runes and adds ellipsis if needed
func TruncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}

func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
}
