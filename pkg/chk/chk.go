// Package chk defines the content-hash-key record types and the wire
// constants of the encoding. The constants are part of the
// interoperability contract: changing any of them changes every locator
// produced for every file.
package chk

const (
	// KeySize is the length of a content key, the SHA-512 digest of a
	// block's plaintext.
	KeySize = 64

	// QuerySize is the length of a retrieval address, the SHA-512 digest
	// of a block's ciphertext.
	QuerySize = 64

	// RecordSize is the serialized size of one (key, query) pair inside
	// an internal block.
	RecordSize = KeySize + QuerySize

	// LeafSize is the maximum plaintext payload of a leaf block.
	LeafSize = 32768

	// FanOut is the maximum number of child records per internal block.
	FanOut = 256
)

// A fully populated internal block must serialize to exactly one leaf
// payload, so that one block size holds at every tree level.
const _ uint = LeafSize - FanOut*RecordSize
const _ uint = FanOut*RecordSize - LeafSize

// Key is the content key of a block: the hash of its plaintext. It is
// both the deduplication fingerprint and the cipher key material.
type Key [KeySize]byte

// Query is the retrieval address of a block: the hash of its
// ciphertext. It is safe to expose; it does not reveal the key.
type Query [QuerySize]byte

// Record is the (key, query) pair produced for one block.
type Record struct {
	Key   Key
	Query Query
}

// AppendTo appends the serialized record (key bytes then query bytes)
// to buf, the layout used inside internal block payloads.
func (r Record) AppendTo(buf []byte) []byte {
	buf = append(buf, r.Key[:]...)
	return append(buf, r.Query[:]...)
}

// Root is the record of the tree's root block together with the total
// file size. The size is only meaningful for the whole file and is
// therefore absent on child records.
type Root struct {
	Record
	FileSize uint64
}
