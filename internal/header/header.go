// Package header implements the fixed 80-byte block header encoding that the
// hash pipeline consumes, along with compact-bits target expansion and
// proof-of-work comparison.
package header

import (
	"encoding/binary"
	"errors"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/beancore/beanminer/internal/hash256"
)

// Size is the encoded block header length in bytes.
const Size = 80

// ErrHeaderSize is returned when decoding input that is not exactly 80 bytes.
var ErrHeaderSize = errors.New("header: encoded block header must be exactly 80 bytes")

// BlockHeader holds the six fields whose little-endian concatenation is the
// exact byte sequence fed to the hash pipeline. Hash fields are kept in
// internal byte order, reversed relative to the display form produced by
// chainhash.Hash.String().
type BlockHeader struct {
	Version    int32
	PrevBlock  chainhash.Hash
	MerkleRoot chainhash.Hash
	Timestamp  uint32
	Bits       uint32
	Nonce      uint32
}

// Encode serializes the header to its 80-byte wire form. The field order and
// endianness are fixed; any deviation produces a non-interoperable hash.
func (h BlockHeader) Encode() [Size]byte {
	var b [Size]byte
	binary.LittleEndian.PutUint32(b[0:4], uint32(h.Version))
	copy(b[4:36], h.PrevBlock[:])
	copy(b[36:68], h.MerkleRoot[:])
	binary.LittleEndian.PutUint32(b[68:72], h.Timestamp)
	binary.LittleEndian.PutUint32(b[72:76], h.Bits)
	binary.LittleEndian.PutUint32(b[76:80], h.Nonce)
	return b
}

// Decode parses an 80-byte encoded header. It is the inverse of Encode and
// fails with ErrHeaderSize on any other input length.
func Decode(b []byte) (BlockHeader, error) {
	var h BlockHeader
	if len(b) != Size {
		return h, ErrHeaderSize
	}
	h.Version = int32(binary.LittleEndian.Uint32(b[0:4]))
	copy(h.PrevBlock[:], b[4:36])
	copy(h.MerkleRoot[:], b[36:68])
	h.Timestamp = binary.LittleEndian.Uint32(b[68:72])
	h.Bits = binary.LittleEndian.Uint32(b[72:76])
	h.Nonce = binary.LittleEndian.Uint32(b[76:80])
	return h, nil
}

// WithNonce returns a copy of the header with only the nonce replaced,
// leaving the receiver untouched.
func (h BlockHeader) WithNonce(nonce uint32) BlockHeader {
	h.Nonce = nonce
	return h
}

// Hash computes the double SHA-256 of the encoded header, in engine byte
// order (the display form is this reversed).
func (h BlockHeader) Hash() [hash256.Size]byte {
	enc := h.Encode()
	return hash256.DoubleSum(enc[:])
}

// BlockHash returns the header hash as a chainhash.Hash, whose String method
// yields the conventional reversed display form.
func (h BlockHeader) BlockHash() chainhash.Hash {
	return chainhash.Hash(h.Hash())
}
