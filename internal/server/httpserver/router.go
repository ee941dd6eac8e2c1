package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/yndnr/statictls/internal/telemetry/metric"
)

// RouterConfig holds configuration for the request pipeline.
type RouterConfig struct {
	// Files serves every request that passes the middleware.
	Files http.Handler

	// Logger for request logging.
	Logger *slog.Logger

	// Metrics receives request observations. Nil disables them.
	Metrics *metric.Registry

	// RateLimit is the per-client limit in requests/second. Zero disables it.
	RateLimit float64

	// AccessLog enables one log line per request.
	AccessLog bool
}

// NewRouter wraps the file handler in the middleware chain.
// Order: Recover -> RequestID -> RateLimit -> Metrics -> AccessLog -> Files
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	middlewares := []Middleware{
		Recover(cfg.Logger),
		RequestID(),
	}
	if cfg.RateLimit > 0 {
		middlewares = append(middlewares, RateLimit(RateLimitConfig{
			Rate:    cfg.RateLimit,
			Metrics: cfg.Metrics,
		}))
	}
	if cfg.Metrics != nil {
		middlewares = append(middlewares, Metrics(cfg.Metrics))
	}
	if cfg.AccessLog {
		middlewares = append(middlewares, AccessLog(cfg.Logger))
	}

	return Chain(cfg.Files, middlewares...)
}
