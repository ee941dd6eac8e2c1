package httpserver

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/net/netutil"

	"github.com/yndnr/statictls/internal/telemetry/metric"
)

var (
	// ErrAlreadyListening is returned by Listen on a server that is bound.
	ErrAlreadyListening = errors.New("httpserver: already listening")

	// ErrNotListening is returned when an operation needs a bound socket.
	ErrNotListening = errors.New("httpserver: not listening")
)

// Config holds the listener and timeout settings of a Server.
type Config struct {
	// Addr is the TCP address to bind, e.g. ":8443".
	Addr string

	// TLSConfig wraps accepted connections in TLS. Nil serves plain HTTP.
	TLSConfig *tls.Config

	// MaxConns caps concurrent connections. Zero means unbounded.
	MaxConns int

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	// ShutdownTimeout bounds the graceful drain after cancellation.
	ShutdownTimeout time.Duration
}

// Server represents the HTTP server.
type Server struct {
	cfg        Config
	httpServer *http.Server
	logger     *slog.Logger
	metrics    *metric.Registry

	mu       sync.Mutex
	listener net.Listener
	serving  atomic.Bool
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics records connection counts in reg.
func WithMetrics(reg *metric.Registry) Option {
	return func(s *Server) {
		s.metrics = reg
	}
}

// WithErrorLog routes net/http internal errors, such as failed TLS
// handshakes, to l.
func WithErrorLog(l *log.Logger) Option {
	return func(s *Server) {
		s.httpServer.ErrorLog = l
	}
}

// New creates a new server. Nothing is bound until Listen or Serve.
func New(cfg Config, handler http.Handler, opts ...Option) *Server {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	s := &Server{
		cfg:    cfg,
		logger: slog.Default(),
	}
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		TLSConfig:         cfg.TLSConfig,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
		ConnState:         s.trackConn,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Listen binds the socket exactly once. Errors such as an address in use
// are returned before any connection is accepted.
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return ErrAlreadyListening
	}

	ln, err := listen(s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("httpserver: listen %s: %w", s.cfg.Addr, err)
	}
	if s.cfg.MaxConns > 0 {
		ln = netutil.LimitListener(ln, s.cfg.MaxConns)
	}
	if s.cfg.TLSConfig != nil {
		ln = tls.NewListener(ln, s.cfg.TLSConfig)
	}

	s.listener = ln
	return nil
}

// Serve accepts connections until ctx is cancelled, then shuts down
// gracefully within the configured timeout. It binds first if Listen has
// not been called. The socket is closed on every return path.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()

	if ln == nil {
		if err := s.Listen(); err != nil {
			return err
		}
		s.mu.Lock()
		ln = s.listener
		s.mu.Unlock()
	}

	errCh := make(chan error, 1)
	s.serving.Store(true)
	go func() {
		errCh <- s.httpServer.Serve(ln)
	}()
	defer s.serving.Store(false)

	s.logger.Info("server listening",
		"addr", ln.Addr().String(),
		"tls", s.cfg.TLSConfig != nil,
	)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("httpserver: serve: %w", err)

	case <-ctx.Done():
	}

	s.logger.Info("server shutting down", "addr", ln.Addr().String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	err := s.httpServer.Shutdown(shutdownCtx)
	<-errCh
	if err != nil {
		s.httpServer.Close()
		return fmt.Errorf("httpserver: shutdown: %w", err)
	}
	return nil
}

// Close closes the socket immediately, dropping active connections.
func (s *Server) Close() error {
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()

	if ln == nil {
		return ErrNotListening
	}
	err := s.httpServer.Close()
	ln.Close()
	return err
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Ready reports whether the server is accepting connections.
func (s *Server) Ready() bool {
	return s.serving.Load()
}

func (s *Server) trackConn(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metrics.ConnOpened()
	case http.StateHijacked, http.StateClosed:
		s.metrics.ConnClosed()
	}
}

// UnixPrefix marks an address as a Unix domain socket path.
const UnixPrefix = "unix:"

// listen binds a TCP address, or a Unix socket for "unix:/path". A stale
// socket file left by a previous process is replaced, and the new socket
// is restricted to its owner.
func listen(addr string) (net.Listener, error) {
	path, ok := strings.CutPrefix(addr, UnixPrefix)
	if !ok {
		return net.Listen("tcp", addr)
	}

	if fi, err := os.Lstat(path); err == nil && fi.Mode()&os.ModeSocket != 0 {
		if err := os.Remove(path); err != nil {
			return nil, err
		}
	}

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, err
	}
	if err := os.Chmod(path, 0o600); err != nil {
		ln.Close()
		return nil, err
	}
	return ln, nil
}
