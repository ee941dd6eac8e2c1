package fileserver

import (
	"os"
	"testing"
	"time"
)

func TestContentType(t *testing.T) {
	tests := map[string]string{
		"app.js":             "text/javascript; charset=utf-8",
		"mod.MJS":            "text/javascript; charset=utf-8",
		"main.wasm":          "application/wasm",
		"site.webmanifest":   "application/manifest+json",
		"logo.svg":           "image/svg+xml",
		"bundle.js.map":      "application/json",
		"index.html":         "text/html; charset=utf-8",
		"README":             "",
		"dir/nested/app.mjs": "text/javascript; charset=utf-8",
	}
	for name, want := range tests {
		if got := ContentType(name); got != want {
			t.Errorf("ContentType(%q) = %q, want %q", name, got, want)
		}
	}
}

type fakeInfo struct {
	size int64
	mod  time.Time
}

func (f fakeInfo) Name() string       { return "f" }
func (f fakeInfo) Size() int64        { return f.size }
func (f fakeInfo) Mode() os.FileMode  { return 0o644 }
func (f fakeInfo) ModTime() time.Time { return f.mod }
func (f fakeInfo) IsDir() bool        { return false }
func (f fakeInfo) Sys() any           { return nil }

func TestETag(t *testing.T) {
	mod := time.Unix(1700000000, 0)
	base := etag("a.txt", fakeInfo{size: 10, mod: mod})

	if base != etag("a.txt", fakeInfo{size: 10, mod: mod}) {
		t.Error("etag is not deterministic")
	}
	for name, other := range map[string]string{
		"path":    etag("b.txt", fakeInfo{size: 10, mod: mod}),
		"size":    etag("a.txt", fakeInfo{size: 11, mod: mod}),
		"modtime": etag("a.txt", fakeInfo{size: 10, mod: mod.Add(time.Second)}),
	} {
		if other == base {
			t.Errorf("etag unchanged after %s change", name)
		}
	}
}
