package command

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/yndnr/statictls/internal/infra/tlscert"
	"github.com/yndnr/statictls/internal/server/config"
	"github.com/yndnr/statictls/internal/telemetry/logger"
)

// lockedBuffer is a bytes.Buffer safe for the serve goroutine to write
// while the test reads.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// testConfig returns a configuration rooted in a temp dir holding a fresh
// key pair and an index.html. Both listeners bind to ephemeral ports.
func testConfig(t *testing.T) *config.ServerConfig {
	t.Helper()

	dir := t.TempDir()
	certFile := filepath.Join(dir, "cert.pem")
	keyFile := filepath.Join(dir, "key.pem")
	if _, err := tlscert.Generate(tlscert.GenerateOptions{CertFile: certFile, KeyFile: keyFile}); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>Hi</h1>"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Server.Addr = "127.0.0.1:0"
	cfg.Server.Root = dir
	cfg.Server.AccessLog = false
	cfg.TLS.CertFile = certFile
	cfg.TLS.KeyFile = keyFile
	cfg.Admin.Addr = "127.0.0.1:0"
	return cfg
}

type running struct {
	addrs  Listening
	stdout *lockedBuffer
	cancel context.CancelFunc
	done   chan error
}

// startServe runs Serve in the background and waits for the listeners.
func startServe(t *testing.T, cfg *config.ServerConfig) *running {
	t.Helper()

	log, err := logger.New(logger.Config{Level: "error", Output: &bytes.Buffer{}})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &running{
		stdout: &lockedBuffer{},
		cancel: cancel,
		done:   make(chan error, 1),
	}
	ready := make(chan Listening, 1)

	go func() {
		r.done <- Serve(ctx, cfg, Runtime{
			Stdout:  r.stdout,
			Logger:  log,
			OnReady: func(l Listening) { ready <- l },
		})
	}()

	select {
	case r.addrs = <-ready:
	case err := <-r.done:
		cancel()
		t.Fatalf("Serve() exited early: %v", err)
	case <-time.After(5 * time.Second):
		cancel()
		t.Fatal("timed out waiting for listeners")
	}

	t.Cleanup(func() {
		cancel()
		select {
		case <-r.done:
		case <-time.After(5 * time.Second):
			t.Error("Serve() did not return after cancel")
		}
	})
	return r
}

// stop cancels Serve and returns its result.
func (r *running) stop(t *testing.T) error {
	t.Helper()
	r.cancel()
	select {
	case err := <-r.done:
		r.done <- err
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return after cancel")
		return nil
	}
}

// tlsClient trusts only certFile.
func tlsClient(t *testing.T, certFile string) *http.Client {
	t.Helper()

	pool := tlscert.NewEmptyPool()
	if err := pool.AddCertFile(certFile); err != nil {
		t.Fatalf("AddCertFile() error = %v", err)
	}

	return &http.Client{
		Timeout: 5 * time.Second,
		Transport: &http.Transport{
			TLSClientConfig:   pool.ClientConfig("localhost"),
			ForceAttemptHTTP2: true,
		},
	}
}
