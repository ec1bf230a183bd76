// Package locator formats and parses the canonical locator string, the
// sole externally observable artifact of an encode:
//
//	cask://fs/chk/<enc32 key>.<enc32 query>.<decimal size>
package locator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/caskfs/cask/pkg/chk"
	"github.com/caskfs/cask/pkg/enc32"
)

// Prefix is the fixed scheme and namespace prefix of every locator.
const Prefix = "cask://fs/chk/"

// Format renders the root record as a locator string.
func Format(root chk.Root) string {
	var b strings.Builder
	b.Grow(len(Prefix) + 2*enc32.EncodedLen(chk.KeySize) + 22)
	b.WriteString(Prefix)
	b.WriteString(enc32.Encode(root.Key[:]))
	b.WriteByte('.')
	b.WriteString(enc32.Encode(root.Query[:]))
	b.WriteByte('.')
	b.WriteString(strconv.FormatUint(root.FileSize, 10))
	return b.String()
}

// Parse is the inverse of Format.
func Parse(s string) (chk.Root, error) {
	rest, ok := strings.CutPrefix(s, Prefix)
	if !ok {
		return chk.Root{}, fmt.Errorf("locator: %q does not start with %q", s, Prefix)
	}
	parts := strings.Split(rest, ".")
	if len(parts) != 3 {
		return chk.Root{}, fmt.Errorf("locator: want 3 dot-separated fields, got %d", len(parts))
	}

	var root chk.Root
	key, err := enc32.Decode(parts[0])
	if err != nil {
		return chk.Root{}, fmt.Errorf("locator: key: %w", err)
	}
	if len(key) != chk.KeySize {
		return chk.Root{}, fmt.Errorf("locator: key decodes to %d bytes, want %d", len(key), chk.KeySize)
	}
	copy(root.Key[:], key)

	query, err := enc32.Decode(parts[1])
	if err != nil {
		return chk.Root{}, fmt.Errorf("locator: query: %w", err)
	}
	if len(query) != chk.QuerySize {
		return chk.Root{}, fmt.Errorf("locator: query decodes to %d bytes, want %d", len(query), chk.QuerySize)
	}
	copy(root.Query[:], query)

	root.FileSize, err = strconv.ParseUint(parts[2], 10, 64)
	if err != nil {
		return chk.Root{}, fmt.Errorf("locator: size: %w", err)
	}
	return root, nil
}
