package ctp

import (
	"crypto/sha256"
	"encoding/hex"
)

// ChecksumSize is the length in bytes of the on-wire checksum field.
const ChecksumSize = 3

// Checksum derives the packet integrity tag for payload: the last 3 ASCII
// characters of the lowercase-hex encoding of the SHA-256 digest of
// payload. This is *not* the last 3 raw digest bytes — an implementation
// that truncates the digest directly is wire-incompatible with this one,
// since a byte's hex representation straddles nibble boundaries that don't
// line up with byte boundaries in the digest.
func Checksum(payload []byte) [ChecksumSize]byte {
	sum := sha256.Sum256(payload)
	var hexsum [sha256.Size * 2]byte
	hex.Encode(hexsum[:], sum[:])
	var tag [ChecksumSize]byte
	copy(tag[:], hexsum[len(hexsum)-ChecksumSize:])
	return tag
}
