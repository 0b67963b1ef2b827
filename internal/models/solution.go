package models

import (
	"time"
)

// Solution records a satisfying nonce found for a header. HeaderHash is the
// display-order hash of the header as submitted to the search, so job and
// solution lookups share one key; Digest is the hash with the winning nonce.
type Solution struct {
	HeaderHash string    `json:"header_hash"`
	Nonce      uint32    `json:"nonce"`
	Digest     string    `json:"digest"`
	Target     string    `json:"target"`
	Hashes     uint64    `json:"hashes"`
	Elapsed    float64   `json:"elapsed_seconds"`
	FoundAt    time.Time `json:"found_at"`
}
