package logging

import (
	"log/slog"
	"regexp"
	"strings"
)

// Redacted replaces values stored under sensitive keys.
const Redacted = "***"

// Redactor masks credentials in log attributes.
type Redactor struct {
	patterns []redactPattern
}

type redactPattern struct {
	regex       *regexp.Regexp
	replacement string
}

var sensitiveKeys = []string{
	"password", "passwd", "pwd",
	"secret", "token", "api_key", "apikey",
	"authorization", "private_key", "privatekey",
}

// NewRedactor creates a Redactor with the built-in credential patterns.
func NewRedactor() *Redactor {
	return &Redactor{
		patterns: []redactPattern{
			{
				regex:       regexp.MustCompile(`Bearer\s+[a-zA-Z0-9\-._~+/]+=*`),
				replacement: "Bearer " + Redacted,
			},
			{
				regex:       regexp.MustCompile(`sk-[a-zA-Z0-9]+`),
				replacement: "sk-" + Redacted,
			},
			{
				regex:       regexp.MustCompile(`(?i)(password|passwd|pwd)[:=]\s*[^\s]+`),
				replacement: "$1: " + Redacted,
			},
		},
	}
}

// RedactString masks credential-looking substrings of value.
func (r *Redactor) RedactString(value string) string {
	if value == "" {
		return value
	}
	for _, p := range r.patterns {
		value = p.regex.ReplaceAllString(value, p.replacement)
	}
	return value
}

// IsSensitiveKey reports whether a key name indicates a secret.
func IsSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// ReplaceAttr is a slog.HandlerOptions.ReplaceAttr hook.
func (r *Redactor) ReplaceAttr(_ []string, a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		return a
	}
	if IsSensitiveKey(a.Key) {
		return slog.String(a.Key, Redacted)
	}
	if a.Value.Kind() == slog.KindString {
		if s := a.Value.String(); s != "" {
			return slog.String(a.Key, r.RedactString(s))
		}
	}
	return a
}
