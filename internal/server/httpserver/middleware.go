package httpserver

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"

	"github.com/yndnr/statictls/internal/telemetry/logger"
	"github.com/yndnr/statictls/internal/telemetry/metric"
	"github.com/yndnr/statictls/pkg/cmap"
)

// Middleware wraps an http.Handler with additional functionality.
type Middleware func(http.Handler) http.Handler

// Chain chains multiple middlewares together. The first middleware is
// the outermost.
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// maxRequestIDLen bounds a client-supplied X-Request-ID.
const maxRequestIDLen = 128

// RequestID adds a unique request ID to each request. A well-formed
// incoming X-Request-ID is kept; otherwise a ULID is generated.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if !validRequestID(requestID) {
				requestID = ulid.Make().String()
			}

			w.Header().Set("X-Request-ID", requestID)

			ctx := logger.WithRequestID(r.Context(), requestID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		if c := id[i]; c < 0x21 || c > 0x7e {
			return false
		}
	}
	return true
}

// Recover recovers from panics and returns 500 error.
func Recover(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				err := recover()
				if err == nil {
					return
				}
				// Let net/http abort the response without logging a stack.
				if err == http.ErrAbortHandler {
					panic(err)
				}

				logger.Error("panic recovered",
					"request_id", requestIDOf(r),
					"error", err,
					"path", r.URL.Path,
				)
				http.Error(w, "500 internal server error", http.StatusInternalServerError)
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitConfig configures per-client rate limiting.
type RateLimitConfig struct {
	// Rate is the sustained requests per second allowed per client IP.
	Rate float64

	// Burst is the bucket size. Zero means twice the rate.
	Burst int

	// IdleTTL is how long an unused client limiter is kept.
	IdleTTL time.Duration

	Metrics *metric.Registry
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // unix nanos
}

// RateLimit rejects requests from a client IP that exceeds cfg.Rate with
// 429 and a Retry-After header. Limiters idle longer than IdleTTL are
// dropped.
func RateLimit(cfg RateLimitConfig) Middleware {
	burst := cfg.Burst
	if burst <= 0 {
		burst = int(math.Ceil(cfg.Rate * 2))
	}
	ttl := cfg.IdleTTL
	if ttl <= 0 {
		ttl = 3 * time.Minute
	}

	clients := cmap.New[string, *clientLimiter]()
	var lastPrune atomic.Int64
	lastPrune.Store(time.Now().UnixNano())

	allow := func(ip string, now time.Time) (bool, time.Duration) {
		nowNanos := now.UnixNano()

		if prev := lastPrune.Load(); time.Duration(nowNanos-prev) > ttl && lastPrune.CompareAndSwap(prev, nowNanos) {
			clients.DeleteIf(func(_ string, c *clientLimiter) bool {
				return time.Duration(nowNanos-c.lastSeen.Load()) > ttl
			})
		}

		c, _ := clients.LoadOrCompute(ip, func() *clientLimiter {
			return &clientLimiter{limiter: rate.NewLimiter(rate.Limit(cfg.Rate), burst)}
		})
		c.lastSeen.Store(nowNanos)

		res := c.limiter.ReserveN(now, 1)
		if !res.OK() {
			return false, time.Second
		}
		if delay := res.DelayFrom(now); delay > 0 {
			res.CancelAt(now)
			return false, delay
		}
		return true, 0
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, wait := allow(clientIP(r), time.Now())
			if !ok {
				cfg.Metrics.IncRateLimited()
				secs := int(math.Ceil(wait.Seconds()))
				if secs < 1 {
					secs = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				http.Error(w, "429 too many requests", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Metrics records request counts, latency and response size.
func Metrics(reg *metric.Registry) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := wrapResponseWriter(w)

			next.ServeHTTP(wrapped, r)

			reg.ObserveRequest(r.Method, wrapped.status(), time.Since(start), wrapped.bytes)
		})
	}
}

// AccessLog logs one line per request. Sensitive query parameters are
// masked.
func AccessLog(l *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := wrapResponseWriter(w)

			next.ServeHTTP(wrapped, r)

			status := wrapped.status()
			attrs := []any{
				"request_id", requestIDOf(r),
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", wrapped.bytes,
				"duration_ms", time.Since(start).Milliseconds(),
				"client_ip", clientIP(r),
				"proto", r.Proto,
			}
			if r.URL.RawQuery != "" {
				attrs = append(attrs, "query", logger.RedactQuery(r.URL.RawQuery))
			}
			if ua := r.UserAgent(); ua != "" {
				attrs = append(attrs, "user_agent", ua)
			}

			switch {
			case status >= 500:
				l.Error("request completed with error", attrs...)
			case status >= 400:
				l.Warn("request completed with client error", attrs...)
			default:
				l.Info("request completed", attrs...)
			}
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code and
// body size.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	bytes      int64
}

func wrapResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w}
}

func (w *responseWriter) WriteHeader(code int) {
	if w.statusCode == 0 {
		w.statusCode = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if w.statusCode == 0 {
		w.statusCode = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += int64(n)
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func (w *responseWriter) status() int {
	if w.statusCode == 0 {
		return http.StatusOK
	}
	return w.statusCode
}

func requestIDOf(r *http.Request) string {
	return logger.RequestIDFromContext(r.Context())
}

// clientIP returns the peer IP. Forwarding headers are not trusted.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
