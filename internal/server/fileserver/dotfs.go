package fileserver

import (
	"errors"
	"io"
	"io/fs"
	"strings"
)

// dotHidingFS hides every path with a segment starting with ".".
type dotHidingFS struct {
	fs.FS
}

func (d dotHidingFS) Open(name string) (fs.File, error) {
	if hasDotSegment(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	f, err := d.FS.Open(name)
	if err != nil {
		return nil, err
	}
	return dotHidingFile{f}, nil
}

// dotHidingFile filters dot entries out of directory reads. It keeps
// Seek so http.FileServerFS can still serve content through it.
type dotHidingFile struct {
	fs.File
}

func (f dotHidingFile) Seek(offset int64, whence int) (int64, error) {
	s, ok := f.File.(io.Seeker)
	if !ok {
		return 0, errors.New("fileserver: seek not supported")
	}
	return s.Seek(offset, whence)
}

func (f dotHidingFile) ReadDir(n int) ([]fs.DirEntry, error) {
	rd, ok := f.File.(fs.ReadDirFile)
	if !ok {
		return nil, &fs.PathError{Op: "readdir", Err: errors.New("not a directory")}
	}
	for {
		entries, err := rd.ReadDir(n)
		kept := entries[:0]
		for _, e := range entries {
			if !strings.HasPrefix(e.Name(), ".") {
				kept = append(kept, e)
			}
		}
		// A positive n must not yield an empty batch without an error.
		if n <= 0 || len(kept) > 0 || err != nil {
			return kept, err
		}
	}
}

func hasDotSegment(name string) bool {
	if name == "." {
		return false
	}
	for _, seg := range strings.Split(name, "/") {
		if strings.HasPrefix(seg, ".") {
			return true
		}
	}
	return false
}
