// Package fileserver serves a directory tree over HTTP.
//
// The handler maps request paths onto a root directory opened with
// os.DirFS. Regular files are served with http.ServeContent so Range,
// HEAD and conditional requests work; directories are delegated to
// http.FileServerFS for index.html and listings.
//
// Paths never resolve outside the root: fs.ValidPath rejects ".."
// segments and symlinks whose target leaves the root answer 404.
package fileserver
