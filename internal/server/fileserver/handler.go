package fileserver

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ErrNotDirectory is returned by New when root is not a directory.
var ErrNotDirectory = errors.New("fileserver: root is not a directory")

const indexPage = "index.html"

// Handler serves files below a root directory.
type Handler struct {
	root         string
	fsys         fs.FS
	dirs         http.Handler
	listing      bool
	hideDotfiles bool
	logger       *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithListing enables or disables generated directory listings.
// Disabled listings answer 404 for directories without index.html.
func WithListing(enabled bool) Option {
	return func(h *Handler) {
		h.listing = enabled
	}
}

// WithHideDotfiles makes every path with a dot-prefixed segment answer 404
// and omits such entries from listings.
func WithHideDotfiles(hide bool) Option {
	return func(h *Handler) {
		h.hideDotfiles = hide
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// New creates a handler rooted at root. The root is resolved to an
// absolute, symlink-free path once.
func New(root string, opts ...Option) (*Handler, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("fileserver: resolve root %s: %w", root, err)
	}
	abs, err = filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("fileserver: resolve root %s: %w", root, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("fileserver: stat root %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, root)
	}

	h := &Handler{
		root:    abs,
		listing: true,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}

	h.fsys = os.DirFS(abs)
	if h.hideDotfiles {
		h.fsys = dotHidingFS{h.fsys}
	}
	h.dirs = http.FileServerFS(h.fsys)

	return h, nil
}

// Root returns the absolute root directory.
func (h *Handler) Root() string {
	return h.root
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "405 method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name, ok := h.resolve(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	info, err := fs.Stat(h.fsys, name)
	if err != nil {
		h.serveError(w, r, name, err)
		return
	}

	if info.IsDir() {
		h.serveDir(w, r, name)
		return
	}
	// A file named as a directory would break relative URLs in the page.
	if strings.HasSuffix(r.URL.Path, "/") {
		http.NotFound(w, r)
		return
	}
	h.serveFile(w, r, name, info)
}

// resolve maps a URL path to an fs.FS name inside the root.
func (h *Handler) resolve(urlPath string) (string, bool) {
	if strings.Contains(urlPath, "\\") || strings.ContainsRune(urlPath, 0) {
		return "", false
	}

	name := strings.TrimPrefix(path.Clean("/"+urlPath), "/")
	if name == "" {
		name = "."
	}
	if !fs.ValidPath(name) {
		return "", false
	}
	if !h.withinRoot(name) {
		return "", false
	}
	return name, true
}

// withinRoot reports whether name, after following symlinks, stays below
// the root. Paths that do not exist yet are left to the stat that follows.
func (h *Handler) withinRoot(name string) bool {
	target, err := filepath.EvalSymlinks(filepath.Join(h.root, filepath.FromSlash(name)))
	if err != nil {
		return errors.Is(err, fs.ErrNotExist)
	}
	rel, err := filepath.Rel(h.root, target)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (h *Handler) serveDir(w http.ResponseWriter, r *http.Request, name string) {
	index := path.Join(name, indexPage)
	indexInfo, err := fs.Stat(h.fsys, index)
	hasIndex := err == nil && !indexInfo.IsDir()

	// FileServerFS opens the index itself, so it gets the same symlink
	// check as a direct request.
	if hasIndex && !h.withinRoot(index) {
		http.NotFound(w, r)
		return
	}
	if !hasIndex && !h.listing {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Cache-Control", "no-cache")
	if hasIndex && strings.HasSuffix(r.URL.Path, "/") {
		w.Header().Set("ETag", etag(index, indexInfo))
	}
	h.dirs.ServeHTTP(w, r)
}

// serveFile serves a regular file directly so /index.html is answered
// with its content instead of a redirect to the directory.
func (h *Handler) serveFile(w http.ResponseWriter, r *http.Request, name string, info fs.FileInfo) {
	f, err := h.fsys.Open(name)
	if err != nil {
		h.serveError(w, r, name, err)
		return
	}
	defer f.Close()

	content, ok := f.(io.ReadSeeker)
	if !ok {
		h.logger.Error("file is not seekable", "path", name)
		http.Error(w, "500 internal server error", http.StatusInternalServerError)
		return
	}

	header := w.Header()
	header.Set("Cache-Control", "no-cache")
	header.Set("ETag", etag(name, info))
	if ct := ContentType(name); ct != "" {
		header.Set("Content-Type", ct)
	}

	http.ServeContent(w, r, info.Name(), info.ModTime(), content)
}

func (h *Handler) serveError(w http.ResponseWriter, r *http.Request, name string, err error) {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		http.NotFound(w, r)
	case errors.Is(err, fs.ErrPermission):
		h.logger.Debug("file not readable", "path", name, "error", err)
		http.Error(w, "403 forbidden", http.StatusForbidden)
	default:
		h.logger.Error("file open failed", "path", name, "error", err)
		http.Error(w, "500 internal server error", http.StatusInternalServerError)
	}
}
