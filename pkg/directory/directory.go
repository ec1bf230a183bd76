// Package directory serializes a listing of published entries, so a
// set of locators can be shipped around as one small file. Entries are
// CBOR-encoded and zstd-compressed behind a fixed magic header.
package directory

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
)

// magic identifies a directory file.
var magic = []byte("caskdir\x00")

// Entry is one published file.
type Entry struct {
	Name    string `cbor:"1,keyasint"`
	Locator string `cbor:"2,keyasint"`
	Size    uint64 `cbor:"3,keyasint"`
}

// Directory is an ordered listing of entries.
type Directory struct {
	Entries []Entry `cbor:"1,keyasint"`
}

// Marshal serializes and compresses the directory.
func Marshal(d Directory) ([]byte, error) {
	payload, err := cbor.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("directory: encoding entries: %w", err)
	}

	var buf bytes.Buffer
	buf.Write(magic)
	w, err := zstd.NewWriter(&buf)
	if err != nil {
		return nil, fmt.Errorf("directory: creating compressor: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		w.Close()
		return nil, fmt.Errorf("directory: compressing: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("directory: compressing: %w", err)
	}
	return buf.Bytes(), nil
}

// Unmarshal parses a serialized directory.
func Unmarshal(data []byte) (Directory, error) {
	if !bytes.HasPrefix(data, magic) {
		return Directory{}, errors.New("directory: bad magic")
	}
	r, err := zstd.NewReader(bytes.NewReader(data[len(magic):]))
	if err != nil {
		return Directory{}, fmt.Errorf("directory: creating decompressor: %w", err)
	}
	defer r.Close()

	payload, err := io.ReadAll(r)
	if err != nil {
		return Directory{}, fmt.Errorf("directory: decompressing: %w", err)
	}

	var d Directory
	if err := cbor.Unmarshal(payload, &d); err != nil {
		return Directory{}, fmt.Errorf("directory: decoding entries: %w", err)
	}
	return d, nil
}

// AppendToFile adds an entry to the directory file at path, creating
// the file if it does not exist yet.
func AppendToFile(path string, e Entry) error {
	var d Directory
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		d, err = Unmarshal(data)
		if err != nil {
			return err
		}
	case os.IsNotExist(err):
		// start a fresh directory
	default:
		return fmt.Errorf("directory: reading %s: %w", path, err)
	}

	d.Entries = append(d.Entries, e)
	out, err := Marshal(d)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, out, 0644); err != nil {
		return fmt.Errorf("directory: writing %s: %w", path, err)
	}
	return nil
}
