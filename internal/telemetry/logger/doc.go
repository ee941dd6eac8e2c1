// Package logger provides structured logging for statictls.
//
// This package wraps log/slog:
//
//   - logger.go: Logger interface, JSON/text handlers, dynamic level
//   - context.go: Context-aware logging with request IDs
//   - redact.go: Sensitive data redaction (attributes and query strings)
//
// Structured logs are written to stderr by default so that stdout stays
// reserved for the human-readable startup banner.
package logger
