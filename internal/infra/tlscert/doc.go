// Package tlscert provides TLS certificate management for statictls.
//
// This package handles the server's certificate material:
//
//   - keypair.go: cert/key loading, validation, server tls.Config
//   - watcher.go: Certificate hot-reload via fsnotify
//   - roots.go: Trust pools for clients of a self-signed server
//   - generate.go: Self-signed development certificate generation
//
// Features:
//
//   - Load-once key pair with parsed leaf metadata
//   - Optional automatic certificate reload on file changes
//   - Expiry and hostname warnings at startup
//   - TLS 1.2 minimum
package tlscert
