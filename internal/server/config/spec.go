package config

import "time"

// ServerConfig is the root configuration for statictls-server.
type ServerConfig struct {
	Server ServerSection `koanf:"server" json:"server" yaml:"server"`
	TLS    TLSSection    `koanf:"tls" json:"tls" yaml:"tls"`
	Admin  AdminSection  `koanf:"admin" json:"admin" yaml:"admin"`
	Log    LogSection    `koanf:"log" json:"log" yaml:"log"`
}

// ServerSection configures the HTTPS listener and the served tree.
type ServerSection struct {
	// Addr is the listen address. An empty host binds all interfaces.
	Addr string `koanf:"addr" json:"addr" yaml:"addr"`

	// Root is the served directory.
	Root string `koanf:"root" json:"root" yaml:"root"`

	// Listing enables generated directory listings.
	Listing bool `koanf:"listing" json:"listing" yaml:"listing"`

	// HideDotfiles answers 404 for any path segment starting with ".".
	HideDotfiles bool `koanf:"hide_dotfiles" json:"hide_dotfiles" yaml:"hide_dotfiles"`

	// MaxConns caps concurrent connections (0 = unbounded).
	MaxConns int `koanf:"max_conns" json:"max_conns" yaml:"max_conns"`

	// RateLimit is the per-client requests/second (0 = off).
	RateLimit float64 `koanf:"rate_limit" json:"rate_limit" yaml:"rate_limit"`

	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout" json:"read_header_timeout" yaml:"read_header_timeout"`
	ReadTimeout       time.Duration `koanf:"read_timeout" json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout      time.Duration `koanf:"write_timeout" json:"write_timeout" yaml:"write_timeout"`
	IdleTimeout       time.Duration `koanf:"idle_timeout" json:"idle_timeout" yaml:"idle_timeout"`
	MaxHeaderBytes    int           `koanf:"max_header_bytes" json:"max_header_bytes" yaml:"max_header_bytes"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout" json:"shutdown_timeout" yaml:"shutdown_timeout"`

	// AccessLog logs one line per request.
	AccessLog bool `koanf:"access_log" json:"access_log" yaml:"access_log"`
}

// TLSSection configures the certificate.
type TLSSection struct {
	CertFile   string `koanf:"cert_file" json:"cert_file" yaml:"cert_file"`
	KeyFile    string `koanf:"key_file" json:"key_file" yaml:"key_file"`
	MinVersion string `koanf:"min_version" json:"min_version" yaml:"min_version"`

	// Watch reloads the pair when either file changes.
	Watch bool `koanf:"watch" json:"watch" yaml:"watch"`
}

// AdminSection configures the plain-HTTP admin listener.
type AdminSection struct {
	// Addr is the admin listen address. Empty disables the listener.
	Addr string `koanf:"addr" json:"addr" yaml:"addr"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level" json:"level" yaml:"level"`
	Format string `koanf:"format" json:"format" yaml:"format"`
}
