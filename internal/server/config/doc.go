// Package config provides server configuration for statictls.
//
// This package defines the server configuration structure and validation:
//
//   - spec.go: ServerConfig struct definition
//   - default.go: Default configuration values
//   - verify.go: Validation (address formats, root directory, TLS version)
//   - load.go: Layering defaults, YAML file, environment and flags
//
// Configuration is loaded via internal/infra/confloader. The defaults
// alone reproduce the classic behavior: HTTPS on :8443 serving the
// working directory with cert.pem and key.pem.
package config
