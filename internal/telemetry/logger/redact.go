package logger

import (
	"log/slog"
	"net/url"
	"strings"
)

// Sensitive key patterns that should be redacted.
var sensitiveKeyPatterns = []string{
	"password",
	"passwd",
	"secret",
	"token",
	"credential",
	"authorization",
	"cookie",
	"private_key",
	"api_key",
	"apikey",
	"session",
}

// redactedValue is the placeholder for redacted sensitive data.
const redactedValue = "***REDACTED***"

// redactSensitive checks if an attribute contains sensitive data
// and redacts it if necessary.
func redactSensitive(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindString {
		strVal := a.Value.String()

		if strings.HasPrefix(strVal, "Bearer ") || strings.HasPrefix(strVal, "Basic ") {
			scheme, _, _ := strings.Cut(strVal, " ")
			return slog.String(a.Key, scheme+" "+redactedValue)
		}

		if IsSensitiveKey(a.Key) && strVal != "" {
			return slog.String(a.Key, redactedValue)
		}
	}

	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		newAttrs := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			newAttrs[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(newAttrs...)}
	}

	return a
}

// RedactQuery masks the values of sensitive query parameters in a raw
// query string, keeping parameter order:
// "page=2&token=abc" -> "page=2&token=***REDACTED***".
func RedactQuery(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}

	pairs := strings.Split(rawQuery, "&")
	for i, pair := range pairs {
		key, _, hasValue := strings.Cut(pair, "=")
		if !hasValue {
			continue
		}
		if unescaped, err := url.QueryUnescape(key); err == nil {
			key = unescaped
		}
		if IsSensitiveKey(key) {
			rawKey, _, _ := strings.Cut(pair, "=")
			pairs[i] = rawKey + "=" + redactedValue
		}
	}

	return strings.Join(pairs, "&")
}

// IsSensitiveKey checks if a key name suggests sensitive content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}
