// Package hash256 is a from-scratch SHA-256 implementation built for block
// header hashing. Unlike crypto/sha256 it exposes the compression function's
// internal register state, lets a caller run any sub-range of the 64 rounds,
// and accepts a caller-supplied starting state. That is what makes midstate
// reuse and early round abandonment possible in the nonce search; it is not
// meant to be fast.
package hash256

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// BlockSize is the compression function's input block size in bytes.
	BlockSize = 64

	// Size is the digest size in bytes.
	Size = 32

	// Rounds is the number of rounds in a full compression pass.
	Rounds = 64
)

// ErrBlockSize is returned when a message block is not exactly 64 bytes.
var ErrBlockSize = errors.New("hash256: message block must be exactly 64 bytes")

// State holds the eight 32-bit working registers (a through h) at a round
// boundary. It is a value type; round functions return a new State rather
// than mutating in place, so partial states can be saved and reused freely.
type State [8]uint32

// IV is the standard SHA-256 initialization state.
var IV = State{
	0x6a09e667, 0xbb67ae85, 0x3c6ef372, 0xa54ff53a,
	0x510e527f, 0x9b05688c, 0x1f83d9ab, 0x5be0cd19,
}

// k holds the round constants.
var k = [64]uint32{
	0x428a2f98, 0x71374491, 0xb5c0fbcf, 0xe9b5dba5,
	0x3956c25b, 0x59f111f1, 0x923f82a4, 0xab1c5ed5,
	0xd807aa98, 0x12835b01, 0x243185be, 0x550c7dc3,
	0x72be5d74, 0x80deb1fe, 0x9bdc06a7, 0xc19bf174,
	0xe49b69c1, 0xefbe4786, 0x0fc19dc6, 0x240ca1cc,
	0x2de92c6f, 0x4a7484aa, 0x5cb0a9dc, 0x76f988da,
	0x983e5152, 0xa831c66d, 0xb00327c8, 0xbf597fc7,
	0xc6e00bf3, 0xd5a79147, 0x06ca6351, 0x14292967,
	0x27b70a85, 0x2e1b2138, 0x4d2c6dfc, 0x53380d13,
	0x650a7354, 0x766a0abb, 0x81c2c92e, 0x92722c85,
	0xa2bfe8a1, 0xa81a664b, 0xc24b8b70, 0xc76c51a3,
	0xd192e819, 0xd6990624, 0xf40e3585, 0x106aa070,
	0x19a4c116, 0x1e376c08, 0x2748774c, 0x34b0bcb5,
	0x391c0cb3, 0x4ed8aa4a, 0x5b9cca4f, 0x682e6ff3,
	0x748f82ee, 0x78a5636f, 0x84c87814, 0x8cc70208,
	0x90befffa, 0xa4506ceb, 0xbef9a3f7, 0xc67178f2,
}

// Words converts a 64-byte message block to its 16 big-endian words.
func Words(block []byte) ([16]uint32, error) {
	var w [16]uint32
	if len(block) != BlockSize {
		return w, ErrBlockSize
	}
	for i := 0; i < 16; i++ {
		w[i] = binary.BigEndian.Uint32(block[i*4:])
	}
	return w, nil
}

// Expand extends 16 message words into the full 64-word round schedule using
// the standard recurrence.
func Expand(w [16]uint32) [64]uint32 {
	var s [64]uint32
	copy(s[:16], w[:])
	for i := 16; i < 64; i++ {
		s[i] = s[i-16] + sigma0(s[i-15]) + s[i-7] + sigma1(s[i-2])
	}
	return s
}

// Round applies the round-i transformation to s using the scheduled message
// word w, returning the updated registers. i selects the round constant and
// must be in [0, 64).
func Round(s State, i int, w uint32) State {
	t1 := s[7] + bigSigma1(s[4]) + ch(s[4], s[5], s[6]) + k[i] + w
	t2 := bigSigma0(s[0]) + maj(s[0], s[1], s[2])
	return State{t1 + t2, s[0], s[1], s[2], s[3] + t1, s[4], s[5], s[6]}
}

// RunScheduled runs rounds [start, end) of an already-expanded schedule,
// starting from s.
func RunScheduled(s State, schedule *[64]uint32, start, end int) State {
	for i := start; i < end; i++ {
		s = Round(s, i, schedule[i])
	}
	return s
}

// RunRounds expands block into its round schedule and runs rounds
// [start, end) from the given initial state. The full compression of a block
// is RunRounds(chain, block, 0, Rounds) followed by Finalize. A start > 0
// with a saved intermediate state skips rounds already computed; an end <
// Rounds returns a partial state that is not a digest but can prove a
// candidate infeasible.
func RunRounds(initial State, block []byte, start, end int) (State, error) {
	if start < 0 || end > Rounds || start > end {
		return State{}, fmt.Errorf("hash256: invalid round range [%d, %d)", start, end)
	}
	w, err := Words(block)
	if err != nil {
		return State{}, err
	}
	schedule := Expand(w)
	return RunScheduled(initial, &schedule, start, end), nil
}

// Finalize applies the feed-forward addition of the chaining state that turns
// the register state after round 63 into the next chaining value (or, after
// the last block, the digest words).
func Finalize(s, chain State) State {
	for i := range s {
		s[i] += chain[i]
	}
	return s
}

// Compress runs a full 64-round pass over one block and finalizes it.
func Compress(chain State, block []byte) (State, error) {
	s, err := RunRounds(chain, block, 0, Rounds)
	if err != nil {
		return State{}, err
	}
	return Finalize(s, chain), nil
}

// Digest serializes a finalized state to the 32-byte digest in the
// algorithm's big-endian word order.
func Digest(s State) [Size]byte {
	var d [Size]byte
	for i, word := range s {
		binary.BigEndian.PutUint32(d[i*4:], word)
	}
	return d
}

// Pad returns msg extended with standard SHA-256 padding: a 0x80 byte, zeros,
// and the 64-bit big-endian message bit length, to a multiple of 64 bytes.
func Pad(msg []byte) []byte {
	bitLen := uint64(len(msg)) * 8
	padded := make([]byte, 0, len(msg)+BlockSize+8)
	padded = append(padded, msg...)
	padded = append(padded, 0x80)
	for len(padded)%BlockSize != 56 {
		padded = append(padded, 0)
	}
	return binary.BigEndian.AppendUint64(padded, bitLen)
}

// Sum computes the SHA-256 digest of msg.
func Sum(msg []byte) [Size]byte {
	chain := IV
	padded := Pad(msg)
	for off := 0; off < len(padded); off += BlockSize {
		// Pad guarantees whole blocks, so Compress cannot fail here.
		chain, _ = Compress(chain, padded[off:off+BlockSize])
	}
	return Digest(chain)
}

// DoubleSum computes SHA-256(SHA-256(msg)), the hash applied to block
// headers.
func DoubleSum(msg []byte) [Size]byte {
	first := Sum(msg)
	return Sum(first[:])
}
