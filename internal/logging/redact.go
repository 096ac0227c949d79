package logging

import (
	"regexp"
	"strings"
)

// Field names whose values are never logged.
var sensitiveFields = []string{
	"password",
	"secret",
	"token",
	"api_key",
	"apikey",
	"api-key",
	"authorization",
	"credential",
	"private_key",
}

var secretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(sk-[a-zA-Z0-9_-]{20,})`),
	regexp.MustCompile(`(?i)(AIza[a-zA-Z0-9_-]{35})`),
	regexp.MustCompile(`(?i)bearer\s+([a-zA-Z0-9._-]{20,})`),
	regexp.MustCompile(`(?i)(key|token|secret|password)[=:]["']?([a-zA-Z0-9+/=_-]{32,})["']?`),
}

// RedactedValue is the replacement for sensitive values.
const RedactedValue = "[REDACTED]"

// Redact replaces anything that looks like a credential in s.
func Redact(s string) string {
	for _, pattern := range secretPatterns {
		s = pattern.ReplaceAllString(s, RedactedValue)
	}
	return s
}

// RedactHeaders returns a copy of headers safe to log.
func RedactHeaders(headers map[string]string) map[string]string {
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		if IsSensitiveField(k) {
			out[k] = RedactedValue
			continue
		}
		out[k] = Redact(v)
	}
	return out
}

// IsSensitiveField checks if a field name is considered sensitive.
func IsSensitiveField(name string) bool {
	lower := strings.ToLower(name)
	for _, field := range sensitiveFields {
		if strings.Contains(lower, field) {
			return true
		}
	}
	return false
}
