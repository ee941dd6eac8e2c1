// Package shutdown provides graceful shutdown for statictls.
//
// This package handles process termination signals:
//
//   - Signal handling (SIGINT, SIGTERM) as context cancellation
//   - Timeout-bounded cleanup hooks
//   - Cleanup callback registration (run in reverse order)
//
// Usage:
//
//	h := shutdown.NewHandler(10 * time.Second)
//	ctx, stop := h.Context(context.Background())
//	defer stop()
//	h.OnShutdown(func(ctx context.Context) error { return w.Close() })
//	err := serve(ctx)
//	return errors.Join(err, h.Shutdown())
package shutdown
