package logging

import (
	"log/slog"
	"regexp"
	"strings"
)

// RedactedText replaces masked values.
const RedactedText = "[REDACTED]"

var sensitiveKeys = []string{"token", "password", "secret", "plaintext", "credential", "authorization", "ciphertext"}

var (
	bearerPattern     = regexp.MustCompile(`(?i)(bearer|token)\s+[A-Za-z0-9._\-]+`)
	connStringPattern = regexp.MustCompile(`://[^:/\s]+:[^@/\s]+@`)
	passwordPattern   = regexp.MustCompile(`(?i)(password|pwd|pass)=[^;&\s]+`)
)

// Redact is a slog ReplaceAttr hook that masks attributes whose key looks
// like it carries secret material.
func Redact(_ []string, a slog.Attr) slog.Attr {
	key := strings.ToLower(a.Key)
	for _, s := range sensitiveKeys {
		if strings.Contains(key, s) {
			return slog.String(a.Key, RedactedText)
		}
	}
	if a.Value.Kind() == slog.KindAny {
		if err, ok := a.Value.Any().(error); ok {
			return slog.String(a.Key, SanitizeError(err))
		}
	}
	return a
}

// SanitizeError returns err's text with bearer tokens, inline passwords and
// user:pass@ URL credentials masked.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	s := err.Error()
	s = bearerPattern.ReplaceAllString(s, "${1} "+RedactedText)
	s = passwordPattern.ReplaceAllString(s, "${1}="+RedactedText)
	s = connStringPattern.ReplaceAllString(s, "://"+RedactedText+"@")
	return s
}
