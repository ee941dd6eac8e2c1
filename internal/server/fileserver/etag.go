package fileserver

import (
	"encoding/binary"
	"fmt"
	"io/fs"

	"github.com/spaolacci/murmur3"
)

// etag returns a weak validator for a file version. Any change to the
// path, size or modification time yields a different tag.
func etag(name string, info fs.FileInfo) string {
	h := murmur3.New64()
	h.Write([]byte(name))

	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], uint64(info.Size()))
	binary.LittleEndian.PutUint64(buf[8:], uint64(info.ModTime().UnixNano()))
	h.Write(buf[:])

	return fmt.Sprintf(`W/"%016x"`, h.Sum64())
}
