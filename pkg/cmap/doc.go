// Package cmap provides a concurrent map split into independently locked
// shards.
//
// Keys are spread across shards with hash/maphash, so goroutines touching
// different keys rarely contend:
//
//	m := cmap.New[string, *limiter]()
//	l, _ := m.LoadOrCompute(ip, newLimiter)
//	m.DeleteIf(func(_ string, l *limiter) bool { return l.idle() })
//
// All methods are safe for concurrent use.
package cmap
