// Package httpserver provides the HTTPS server for statictls.
//
// It binds one TCP socket, optionally caps concurrent connections, wraps
// the socket in TLS and serves a handler until the context passed to
// Serve is cancelled. The same Server type runs the plain-HTTP admin
// listener when no TLS config is given; an address of the form
// "unix:/path" binds a Unix domain socket instead of TCP.
package httpserver
