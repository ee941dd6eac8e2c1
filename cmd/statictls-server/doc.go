// Package main provides the entry point for statictls-server.
//
// statictls-server serves a directory over HTTPS using a PEM certificate
// and key from disk. With no subcommand it serves the current directory
// on port 8443 using cert.pem and key.pem:
//
//	statictls-server
//	statictls-server --root ./public --addr :9443
//	statictls-server gencert --host myhost.local
//	statictls-server probe --addr localhost:8443
//
// Configuration may also come from a YAML file (--config) and from
// STATICTLS_* environment variables.
package main
