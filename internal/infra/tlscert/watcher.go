package tlscert

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher is a Source that reloads the key pair when either file changes.
// A failed reload keeps serving the previous certificate.
type Watcher struct {
	certFile string
	keyFile  string

	mu   sync.RWMutex
	cert *tls.Certificate

	logger   *slog.Logger
	debounce time.Duration
	onReload func(error)
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithLogger sets the logger for the watcher.
func WithLogger(logger *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// WithDebounce sets how long the watcher waits for writes to settle.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithReloadHook registers fn to be called after every reload attempt
// with its result.
func WithReloadHook(fn func(error)) WatcherOption {
	return func(w *Watcher) {
		w.onReload = fn
	}
}

// NewWatcher loads the key pair and returns a watcher for it.
// The initial load error wraps ErrLoadKeyPair.
func NewWatcher(certFile, keyFile string, opts ...WatcherOption) (*Watcher, error) {
	w := &Watcher{
		certFile: certFile,
		keyFile:  keyFile,
		logger:   slog.Default(),
		debounce: 500 * time.Millisecond,
	}

	for _, opt := range opts {
		opt(w)
	}

	cert, err := loadCertificate(certFile, keyFile)
	if err != nil {
		return nil, err
	}
	w.cert = cert

	return w, nil
}

// Start watches the certificate and key files until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("tlscert: create watcher: %w", err)
	}
	defer fw.Close()

	certPath, err := filepath.Abs(w.certFile)
	if err != nil {
		return fmt.Errorf("tlscert: resolve %s: %w", w.certFile, err)
	}
	keyPath, err := filepath.Abs(w.keyFile)
	if err != nil {
		return fmt.Errorf("tlscert: resolve %s: %w", w.keyFile, err)
	}

	// Watch directories so editor renames and symlink swaps are seen.
	dirs := map[string]struct{}{
		filepath.Dir(certPath): {},
		filepath.Dir(keyPath):  {},
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			return fmt.Errorf("tlscert: watch %s: %w", dir, err)
		}
	}

	w.logger.Info("watching certificate files",
		"cert", w.certFile,
		"key", w.keyFile,
	)

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Name != certPath && event.Name != keyPath {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			w.logger.Debug("certificate file changed", "file", event.Name, "op", event.Op.String())
			if timer == nil {
				timer = time.AfterFunc(w.debounce, w.tryReload)
			} else {
				timer.Reset(w.debounce)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("certificate watcher error", "error", err)
		}
	}
}

func (w *Watcher) tryReload() {
	err := w.Reload()
	if err != nil {
		w.logger.Error("certificate reload failed, keeping previous certificate", "error", err)
	} else {
		w.logger.Info("certificate reloaded", "not_after", w.Leaf().NotAfter)
	}
	if w.onReload != nil {
		w.onReload(err)
	}
}

// Reload re-reads the key pair from disk. On error the current
// certificate is kept.
func (w *Watcher) Reload() error {
	cert, err := loadCertificate(w.certFile, w.keyFile)
	if err != nil {
		return err
	}

	w.mu.Lock()
	w.cert = cert
	w.mu.Unlock()
	return nil
}

// GetCertificate implements tls.Config.GetCertificate.
func (w *Watcher) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.cert, nil
}

// Leaf returns the parsed leaf of the current certificate.
func (w *Watcher) Leaf() *x509.Certificate {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.cert.Leaf
}
