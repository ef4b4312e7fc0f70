package logger

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MaxPathLength is the maximum length for URL paths in logs.
	MaxPathLength = 500
	// MaxErrorMessageLength is the maximum length for error messages in logs.
	MaxErrorMessageLength = 1000
	// MaxGeneralStringLength is the maximum length for general strings in logs.
	MaxGeneralStringLength = 2000
	// MaxDebugContentLength is the maximum length for debug content
	// (AI prompts and responses) in logs.
	MaxDebugContentLength = 10000
)

// MaskSecretKey masks a garden secret key for logging. The key is the only
// credential in the system, so it must never appear in logs verbatim; only
// a short prefix survives to let operators correlate entries.
func MaskSecretKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 4 {
		return "****"
	}
	return key[:2] + strings.Repeat("*", len(key)-2)
}

// SanitizePath sanitizes a URL path for safe logging: fixes invalid UTF-8,
// strips control characters and truncates.
func SanitizePath(path string) string {
	if path == "" {
		return ""
	}
	path = stripControl(path)
	if len(path) > MaxPathLength {
		path = path[:MaxPathLength] + "..."
	}
	return path
}

// SanitizeString sanitizes a general string for safe logging.
func SanitizeString(s string, maxLength int) string {
	if s == "" {
		return ""
	}
	if maxLength <= 0 {
		maxLength = MaxGeneralStringLength
	}
	s = stripControl(s)
	if len(s) > maxLength {
		s = s[:maxLength] + "..."
	}
	return s
}

// SanitizeError sanitizes an error message for safe logging.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeString(err.Error(), MaxErrorMessageLength)
}

// SanitizeDebugContent sanitizes AI prompt/response content for debug logs.
// Even in debug mode content is bounded and cleaned to prevent log injection.
func SanitizeDebugContent(content string) string {
	return SanitizeString(content, MaxDebugContentLength)
}

// stripControl validates UTF-8 and removes control characters, keeping
// printable runes plus space, tab, newline and carriage return.
func stripControl(s string) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsPrint(r) || r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
