package models

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/beancore/beanminer/internal/header"
)

// HeaderInfo is the JSON presentation of a block header. Hashes are in
// display order; RawHex is the exact 80 bytes the hash pipeline consumes.
type HeaderInfo struct {
	Hash         string    `json:"hash"`
	Height       int64     `json:"height"` // -1 when unknown (work templates, raw submissions)
	Version      int32     `json:"version"`
	PreviousHash string    `json:"previous_hash"`
	MerkleRoot   string    `json:"merkle_root"`
	Timestamp    time.Time `json:"timestamp"`
	Bits         string    `json:"bits"`
	Difficulty   float64   `json:"difficulty"`
	Nonce        uint32    `json:"nonce"`
	RawHex       string    `json:"raw_hex"`
}

// NewHeaderInfo builds the presentation form of a header. Pass height -1
// when it is not known (e.g. a work template).
func NewHeaderInfo(h header.BlockHeader, height int64) *HeaderInfo {
	enc := h.Encode()
	return &HeaderInfo{
		Hash:         h.BlockHash().String(),
		Height:       height,
		Version:      h.Version,
		PreviousHash: h.PrevBlock.String(),
		MerkleRoot:   h.MerkleRoot.String(),
		Timestamp:    time.Unix(int64(h.Timestamp), 0).UTC(),
		Bits:         fmt.Sprintf("%08x", h.Bits),
		Difficulty:   header.BitsToDifficulty(h.Bits),
		Nonce:        h.Nonce,
		RawHex:       hex.EncodeToString(enc[:]),
	}
}
