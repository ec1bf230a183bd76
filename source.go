package cask

import (
	"fmt"
	"io"
	"os"
)

// Source opens a path and yields a readable stream plus its exact total
// length. The encoder never resolves paths itself; all traversal goes
// through a Source.
type Source interface {
	Open(path string) (io.ReadCloser, uint64, error)
}

// FileSource is the local-filesystem Source.
type FileSource struct{}

// Open opens the file at path and stats its size.
func (FileSource) Open(path string) (io.ReadCloser, uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, err
	}
	if info.IsDir() {
		f.Close()
		return nil, 0, fmt.Errorf("%s is a directory", path)
	}
	return f, uint64(info.Size()), nil
}
