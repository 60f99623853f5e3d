package detector

import (
	"io/fs"
	"os"
)

// FSReader provides filesystem lookups abstracted over fs.FS
type FSReader struct {
	fsys fs.FS
}

// NewFSReader creates a new FSReader for the given filesystem
func NewFSReader(fsys fs.FS) *FSReader {
	return &FSReader{fsys: fsys}
}

// NewDirReader creates an FSReader rooted at a directory on disk
func NewDirReader(root string) *FSReader {
	return NewFSReader(os.DirFS(root))
}

// Has checks if a file exists at the given path
func (r *FSReader) Has(path string) bool {
	_, err := fs.Stat(r.fsys, path)
	return err == nil
}

// First returns the first of names that exists
func (r *FSReader) First(names ...string) (string, bool) {
	for _, n := range names {
		if r.Has(n) {
			return n, true
		}
	}
	return "", false
}

// Read reads a file, returning nil when it cannot be read
func (r *FSReader) Read(path string) []byte {
	data, err := fs.ReadFile(r.fsys, path)
	if err != nil {
		return nil
	}
	return data
}
