package config

import "time"

// Default configuration values.
const (
	DefaultAddr     = ":8443"
	DefaultRoot     = "."
	DefaultCertFile = "cert.pem"
	DefaultKeyFile  = "key.pem"

	DefaultMaxConns          = 256
	DefaultReadHeaderTimeout = 10 * time.Second
	DefaultReadTimeout       = 30 * time.Second
	DefaultWriteTimeout      = 5 * time.Minute
	DefaultIdleTimeout       = 2 * time.Minute
	DefaultMaxHeaderBytes    = 1 << 20
	DefaultShutdownTimeout   = 10 * time.Second

	DefaultMinTLSVersion = "1.2"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			Addr:              DefaultAddr,
			Root:              DefaultRoot,
			Listing:           true,
			MaxConns:          DefaultMaxConns,
			ReadHeaderTimeout: DefaultReadHeaderTimeout,
			ReadTimeout:       DefaultReadTimeout,
			WriteTimeout:      DefaultWriteTimeout,
			IdleTimeout:       DefaultIdleTimeout,
			MaxHeaderBytes:    DefaultMaxHeaderBytes,
			ShutdownTimeout:   DefaultShutdownTimeout,
			AccessLog:         true,
		},
		TLS: TLSSection{
			CertFile:   DefaultCertFile,
			KeyFile:    DefaultKeyFile,
			MinVersion: DefaultMinTLSVersion,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
