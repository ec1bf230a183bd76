// Package crypt provides the convergent-encryption primitives: SHA-512
// content hashing, the deterministic key/iv derivation, and the
// length-preserving block cipher.
//
// Key material is derived solely from a block's own plaintext, never
// from a master secret. Two independent encoders given byte-identical
// blocks produce byte-identical ciphertext and addresses; there is no
// randomness anywhere in this package.
package crypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha512"
)

const (
	// DigestSize is the length of a content hash.
	DigestSize = sha512.Size

	// KeyLength is the cipher key length (AES-256).
	KeyLength = 32

	// IVLength is the cipher initialization vector length.
	IVLength = aes.BlockSize
)

// Hash returns the SHA-512 digest of data.
func Hash(data []byte) [DigestSize]byte {
	return sha512.Sum512(data)
}

// DeriveBlockKey expands a digest into cipher key material by byte
// slicing: the first KeyLength digest bytes become the key, the next
// IVLength bytes the iv, each zero-padded on the right if the digest
// runs short. The exact slicing is part of the wire contract.
func DeriveBlockKey(digest []byte) (key [KeyLength]byte, iv [IVLength]byte) {
	copy(key[:], digest)
	if len(digest) > KeyLength {
		copy(iv[:], digest[KeyLength:])
	}
	return key, iv
}

// Encrypt encrypts data with AES-256 in CFB mode. The ciphertext has
// the same length as the plaintext; no padding is applied. CFB is
// self-synchronizing, so ciphertext byte i depends only on plaintext
// bytes up to i and alignment padding would not change the emitted
// bytes anyway.
func Encrypt(key [KeyLength]byte, iv [IVLength]byte, data []byte) []byte {
	out := make([]byte, len(data))
	cipher.NewCFBEncrypter(newAES(key), iv[:]).XORKeyStream(out, data)
	return out
}

// Decrypt inverts Encrypt for the same key and iv.
func Decrypt(key [KeyLength]byte, iv [IVLength]byte, data []byte) []byte {
	out := make([]byte, len(data))
	cipher.NewCFBDecrypter(newAES(key), iv[:]).XORKeyStream(out, data)
	return out
}

func newAES(key [KeyLength]byte) cipher.Block {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		// KeyLength is a valid AES key size, so this cannot happen.
		panic(err)
	}
	return block
}
