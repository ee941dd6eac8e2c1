package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/yndnr/statictls/internal/infra/tlscert"
	"github.com/yndnr/statictls/internal/telemetry/logger"
)

// ErrInvalidConfig is wrapped by every error Verify returns.
var ErrInvalidConfig = errors.New("invalid config")

// Verify validates the configuration. All problems are reported together.
func Verify(cfg *ServerConfig) error {
	var errs []error
	errs = append(errs, verifyServer(&cfg.Server)...)
	errs = append(errs, verifyTLS(&cfg.TLS)...)
	errs = append(errs, verifyAdmin(&cfg.Admin, &cfg.Server)...)
	errs = append(errs, verifyLog(&cfg.Log)...)

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

func verifyServer(cfg *ServerSection) []error {
	var errs []error

	if err := verifyAddr("server.addr", cfg.Addr); err != nil {
		errs = append(errs, err)
	}

	if cfg.Root == "" {
		errs = append(errs, errors.New("server.root is required"))
	} else if info, err := os.Stat(cfg.Root); err != nil {
		errs = append(errs, fmt.Errorf("server.root: %w", err))
	} else if !info.IsDir() {
		errs = append(errs, fmt.Errorf("server.root: %s is not a directory", cfg.Root))
	}

	if cfg.MaxConns < 0 {
		errs = append(errs, errors.New("server.max_conns must not be negative"))
	}
	if cfg.RateLimit < 0 {
		errs = append(errs, errors.New("server.rate_limit must not be negative"))
	}
	if cfg.MaxHeaderBytes < 0 {
		errs = append(errs, errors.New("server.max_header_bytes must not be negative"))
	}

	for name, d := range map[string]int64{
		"server.read_header_timeout": int64(cfg.ReadHeaderTimeout),
		"server.read_timeout":        int64(cfg.ReadTimeout),
		"server.write_timeout":       int64(cfg.WriteTimeout),
		"server.idle_timeout":        int64(cfg.IdleTimeout),
		"server.shutdown_timeout":    int64(cfg.ShutdownTimeout),
	} {
		if d < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative", name))
		}
	}

	return errs
}

func verifyTLS(cfg *TLSSection) []error {
	var errs []error

	if cfg.CertFile == "" {
		errs = append(errs, errors.New("tls.cert_file is required"))
	}
	if cfg.KeyFile == "" {
		errs = append(errs, errors.New("tls.key_file is required"))
	}
	if _, err := tlscert.ParseMinVersion(cfg.MinVersion); err != nil {
		errs = append(errs, fmt.Errorf("tls.min_version: %w", err))
	}

	return errs
}

func verifyAdmin(cfg *AdminSection, server *ServerSection) []error {
	if cfg.Addr == "" {
		return nil
	}
	if path, ok := strings.CutPrefix(cfg.Addr, "unix:"); ok {
		if path == "" {
			return []error{errors.New("admin.addr: empty unix socket path")}
		}
		return nil
	}
	if err := verifyAddr("admin.addr", cfg.Addr); err != nil {
		return []error{err}
	}
	if sameListener(cfg.Addr, server.Addr) {
		return []error{errors.New("admin.addr must differ from server.addr")}
	}
	return nil
}

// sameListener reports whether binding a and b would collide. A wildcard
// host overlaps every host on the same port; port 0 never collides.
func sameListener(a, b string) bool {
	if a == b {
		return true
	}
	hostA, portA, errA := net.SplitHostPort(a)
	hostB, portB, errB := net.SplitHostPort(b)
	if errA != nil || errB != nil {
		return false
	}
	if portA != portB || portA == "0" {
		return false
	}
	return hostA == hostB || isWildcard(hostA) || isWildcard(hostB)
}

func isWildcard(host string) bool {
	if host == "" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsUnspecified()
}

func verifyLog(cfg *LogSection) []error {
	var errs []error

	if !logger.ValidLevel(cfg.Level) {
		errs = append(errs, fmt.Errorf("log.level: unknown level %q", cfg.Level))
	}
	if !logger.ValidFormat(cfg.Format) {
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", cfg.Format))
	}

	return errs
}

func verifyAddr(key, addr string) error {
	if addr == "" {
		return fmt.Errorf("%s is required", key)
	}
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if n, err := strconv.Atoi(port); err != nil || n < 0 || n > 65535 {
		return fmt.Errorf("%s: invalid port %q", key, port)
	}
	return nil
}
