// Package metric provides Prometheus metrics for statictls.
//
// This package implements metrics collection and exposition:
//
//   - prometheus.go: Registry, request/connection/reload instruments, handler
//   - collector.go: Certificate expiry collector
//
// Metrics are exposed at /metrics on the admin listener in Prometheus
// format. A nil *Registry is valid and records nothing.
package metric
