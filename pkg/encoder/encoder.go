// Package encoder turns one input stream of known length into a
// content-addressed, convergently encrypted hash tree and returns the
// root record.
//
// The construction is streaming: it greedily fills a level until the
// block at that level is complete (full fan-out or end of input), then
// promotes, and only returns to shallower levels while a deeper block
// is still open and needs more input. Memory stays at one fixed-size
// record window per level, O(depth * fan-out) regardless of file
// length.
package encoder

import (
	"fmt"
	"io"
	"math"

	chunker "github.com/ipfs/boxo/chunker"

	"github.com/caskfs/cask/pkg/chk"
	"github.com/caskfs/cask/pkg/crypt"
	"github.com/caskfs/cask/pkg/tree"
)

// BlockFunc receives every encrypted block as it is produced: its
// depth (0 for leaves), its record, and its ciphertext. The ciphertext
// slice is only valid for the duration of the call. Returning an error
// aborts the encode.
type BlockFunc func(depth int, rec chk.Record, ciphertext []byte) error

// Encode consumes exactly size bytes from r and builds the tree,
// calling sink (if non-nil) once per block, bottom-up in construction
// order. It returns the root record stamped with size.
//
// A read failure, a stream shorter than size, or a sink error aborts
// the whole operation; no partial result is returned. The output is
// fully deterministic in the input bytes.
func Encode(r io.Reader, size uint64, sink BlockFunc) (chk.Root, error) {
	if size > math.MaxInt64 {
		// io.LimitReader takes an int64; a larger size would wrap
		// negative and read nothing instead of failing loudly.
		return chk.Root{}, fmt.Errorf("encoder: size %d exceeds the maximum supported input length", size)
	}
	treeDepth := tree.DepthForSize(size)

	// One record window per level, indexed by child slot. A window is
	// reused each time the level's open block closes.
	windows := make([][]chk.Record, treeDepth)
	for i := range windows {
		windows[i] = make([]chk.Record, chk.FanOut)
	}

	leaves := chunker.NewSizeSplitter(io.LimitReader(r, int64(size)), chk.LeafSize)

	var (
		offset   uint64
		curDepth int
		payload  []byte
	)
	for {
		var childCount int
		if curDepth == 0 {
			want := uint64(chk.LeafSize)
			if size-offset < want {
				want = size - offset
			}
			var err error
			payload, err = readLeaf(leaves, want)
			if err != nil {
				return chk.Root{}, err
			}
		} else {
			childCount = tree.ChildCount(curDepth, offset)
			payload = payload[:0]
			for i := 0; i < childCount; i++ {
				payload = windows[curDepth-1][i].AppendTo(payload)
			}
		}

		rec, ciphertext := encodeBlock(payload)
		// At depth 0 offset has not been advanced yet, so it is the
		// block's start offset; above, it is the closing block's end
		// offset. Both are exactly what ChildSlot expects.
		slot := tree.ChildSlot(curDepth, offset)
		windows[curDepth][slot] = rec
		if sink != nil {
			if err := sink(curDepth, rec, ciphertext); err != nil {
				return chk.Root{}, fmt.Errorf("encoder: block sink: %w", err)
			}
		}

		if curDepth == 0 {
			offset += uint64(len(payload))
			if offset == size || offset%tree.SpanAtDepth(1) == 0 {
				curDepth++
			}
		} else {
			if childCount == chk.FanOut || offset == size {
				curDepth++
			} else {
				curDepth = 0
			}
		}
		if curDepth == treeDepth {
			return chk.Root{Record: rec, FileSize: size}, nil
		}
	}
}

// encodeBlock computes the content key of a payload, encrypts the
// payload under the derived key, and addresses the ciphertext.
func encodeBlock(payload []byte) (chk.Record, []byte) {
	key := crypt.Hash(payload)
	ck, iv := crypt.DeriveBlockKey(key[:])
	ciphertext := crypt.Encrypt(ck, iv, payload)
	query := crypt.Hash(ciphertext)
	return chk.Record{Key: key, Query: query}, ciphertext
}

// readLeaf pulls the next leaf payload from the splitter and checks it
// against the number of bytes the size contract says must be there.
func readLeaf(leaves chunker.Splitter, want uint64) ([]byte, error) {
	if want == 0 {
		// Zero-length input: a single leaf over an empty payload.
		return nil, nil
	}
	data, err := leaves.NextBytes()
	if err == io.EOF {
		return nil, fmt.Errorf("encoder: input ended %d bytes short of declared size", want)
	}
	if err != nil {
		return nil, fmt.Errorf("encoder: reading input: %w", err)
	}
	if uint64(len(data)) != want {
		return nil, fmt.Errorf("encoder: short read: got %d bytes, want %d", len(data), want)
	}
	return data, nil
}
