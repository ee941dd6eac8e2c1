package metric

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yndnr/statictls/internal/infra/buildinfo"
)

const namespace = "statictls"

// Registry holds all application metrics.
type Registry struct {
	registry *prometheus.Registry

	// Request metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ResponseBytes   prometheus.Counter
	RateLimited     prometheus.Counter

	// Connection metrics
	ConnectionsActive prometheus.Gauge
	ConnectionsTotal  prometheus.Counter

	// Certificate metrics
	CertReloads *prometheus.CounterVec
}

// NewRegistry creates a new metrics registry with Go runtime, process and
// build information collectors already registered.
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTPS requests by method and status code.",
		}, []string{"method", "code"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTPS request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		ResponseBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "response_bytes_total",
			Help:      "Total response body bytes written.",
		}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the per-client rate limiter.",
		}),
		ConnectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections_active",
			Help:      "Currently open client connections.",
		}),
		ConnectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_total",
			Help:      "Accepted client connections.",
		}),
		CertReloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cert_reloads_total",
			Help:      "Certificate reload attempts by result.",
		}, []string{"result"}),
	}

	info := buildinfo.Get()
	buildInfo := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "build_info",
		Help:      "Build information; the value is always 1.",
	}, []string{"version", "commit", "go_version"})
	buildInfo.WithLabelValues(info.Version, info.Commit, info.GoVersion).Set(1)

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		buildInfo,
		r.RequestsTotal,
		r.RequestDuration,
		r.ResponseBytes,
		r.RateLimited,
		r.ConnectionsActive,
		r.ConnectionsTotal,
		r.CertReloads,
	)

	return r
}

// ObserveRequest records a completed request.
func (r *Registry) ObserveRequest(method string, code int, d time.Duration, bytes int64) {
	if r == nil {
		return
	}
	method = normalizeMethod(method)
	r.RequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	r.RequestDuration.WithLabelValues(method).Observe(d.Seconds())
	if bytes > 0 {
		r.ResponseBytes.Add(float64(bytes))
	}
}

// IncRateLimited counts a request rejected by the rate limiter.
func (r *Registry) IncRateLimited() {
	if r == nil {
		return
	}
	r.RateLimited.Inc()
}

// ConnOpened records a newly accepted connection.
func (r *Registry) ConnOpened() {
	if r == nil {
		return
	}
	r.ConnectionsTotal.Inc()
	r.ConnectionsActive.Inc()
}

// ConnClosed records a connection leaving the server.
func (r *Registry) ConnClosed() {
	if r == nil {
		return
	}
	r.ConnectionsActive.Dec()
}

// CertReloaded records the result of a certificate reload.
func (r *Registry) CertReloaded(err error) {
	if r == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	r.CertReloads.WithLabelValues(result).Inc()
}

// Register adds an extra collector to the registry.
func (r *Registry) Register(c prometheus.Collector) error {
	if r == nil {
		return nil
	}
	return r.registry.Register(c)
}

// Gatherer exposes the underlying registry for scraping in tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{
		Registry: r.registry,
	})
}

// normalizeMethod bounds label cardinality to the standard methods.
func normalizeMethod(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
		http.MethodPatch, http.MethodDelete, http.MethodOptions,
		http.MethodConnect, http.MethodTrace:
		return method
	default:
		return "OTHER"
	}
}
