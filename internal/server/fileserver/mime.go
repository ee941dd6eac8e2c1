package fileserver

import (
	"mime"
	"path"
	"strings"
)

// defaultTypes pins the types a web app preview depends on so the result
// does not vary with the host's mime database.
var defaultTypes = map[string]string{
	".js":          "text/javascript; charset=utf-8",
	".mjs":         "text/javascript; charset=utf-8",
	".wasm":        "application/wasm",
	".webmanifest": "application/manifest+json",
	".json":        "application/json",
	".svg":         "image/svg+xml",
	".map":         "application/json",
}

// ContentType returns the Content-Type for name, or "" when the extension
// is unknown and the body should be sniffed.
func ContentType(name string) string {
	ext := strings.ToLower(path.Ext(name))
	if ext == "" {
		return ""
	}
	if t, ok := defaultTypes[ext]; ok {
		return t
	}
	return mime.TypeByExtension(ext)
}
