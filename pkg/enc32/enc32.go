// Package enc32 implements the canonical string encoding used for
// rendering hashes in locators: 5 bits per character, most significant
// bit first, over a fixed 32-symbol alphabet, with the final partial
// group zero-padded.
package enc32

import (
	"errors"
	"fmt"
	"strings"
)

// Alphabet is the fixed symbol set. It is not the RFC 4648 alphabet and
// must not be swapped for one.
const Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUV"

// EncodedLen returns the number of characters produced for n input
// bytes.
func EncodedLen(n int) int {
	return (n*8 + 4) / 5
}

// Encode renders data as a string over Alphabet, treating the input as
// a contiguous MSB-first bit stream.
func Encode(data []byte) string {
	var (
		bits uint32
		vbit uint
		rpos int
	)
	out := make([]byte, 0, EncodedLen(len(data)))
	for rpos < len(data) || vbit > 0 {
		if rpos < len(data) && vbit < 5 {
			bits = bits<<8 | uint32(data[rpos])
			rpos++
			vbit += 8
		}
		if vbit < 5 {
			bits <<= 5 - vbit // zero-pad the final group
			vbit = 5
		}
		out = append(out, Alphabet[(bits>>(vbit-5))&31])
		vbit -= 5
	}
	return string(out)
}

// Decode is the inverse of Encode. It rejects characters outside the
// alphabet and non-zero padding bits in the final group.
func Decode(s string) ([]byte, error) {
	var (
		bits uint32
		vbit uint
	)
	out := make([]byte, 0, len(s)*5/8)
	for i := 0; i < len(s); i++ {
		v := strings.IndexByte(Alphabet, s[i])
		if v < 0 {
			return nil, fmt.Errorf("enc32: invalid character %q at position %d", s[i], i)
		}
		bits = bits<<5 | uint32(v)
		vbit += 5
		if vbit >= 8 {
			out = append(out, byte(bits>>(vbit-8)))
			vbit -= 8
		}
	}
	if vbit > 0 && bits&(1<<vbit-1) != 0 {
		return nil, errors.New("enc32: non-zero padding bits")
	}
	return out, nil
}
