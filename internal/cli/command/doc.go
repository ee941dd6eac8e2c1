// Package command provides CLI command definitions for statictls-server.
//
// This package defines all commands using urfave/cli/v2:
//
//   - root.go: Application, default action, shared flags
//   - serve.go: The HTTPS file server and its supervisors
//   - banner.go: Startup lines printed to stdout
//   - gencert.go: Self-signed development certificate generation
//   - probe.go: TLS client check against a running server
//   - config.go: Effective configuration display
//
// Commands follow a consistent pattern of parsing flags, loading the
// layered configuration, and formatting output.
package command
