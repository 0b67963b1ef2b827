package rpc

import (
	"fmt"
	"strconv"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/beancore/beanminer/internal/header"
)

// WorkTemplate asks the daemon for a block template and assembles the
// 80-byte header a search would run against, nonce zeroed. The template must
// include a coinbase transaction; without it there is no merkle root to
// commit to.
func (c *NodeClient) WorkTemplate() (header.BlockHeader, error) {
	tmpl, err := c.client.GetBlockTemplate(&btcjson.TemplateRequest{
		Mode:         "template",
		Capabilities: []string{"coinbasetxn", "workid"},
	})
	if err != nil {
		return header.BlockHeader{}, fmt.Errorf("failed to get block template: %w", err)
	}

	prev, err := chainhash.NewHashFromStr(tmpl.PreviousHash)
	if err != nil {
		return header.BlockHeader{}, fmt.Errorf("template has invalid previous hash %q: %w", tmpl.PreviousHash, err)
	}

	bits, err := strconv.ParseUint(tmpl.Bits, 16, 32)
	if err != nil {
		return header.BlockHeader{}, fmt.Errorf("template has invalid bits %q: %w", tmpl.Bits, err)
	}

	merkle, err := templateMerkleRoot(tmpl)
	if err != nil {
		return header.BlockHeader{}, err
	}

	return header.BlockHeader{
		Version:    tmpl.Version,
		PrevBlock:  *prev,
		MerkleRoot: merkle,
		Timestamp:  uint32(tmpl.CurTime),
		Bits:       uint32(bits),
		Nonce:      0,
	}, nil
}

// templateMerkleRoot folds the template's transaction ids, coinbase first,
// into the merkle root the header commits to.
func templateMerkleRoot(tmpl *btcjson.GetBlockTemplateResult) (chainhash.Hash, error) {
	if tmpl.CoinbaseTxn == nil {
		return chainhash.Hash{}, fmt.Errorf("block template did not include a coinbase transaction")
	}

	txids := make([]string, 0, len(tmpl.Transactions)+1)
	txids = append(txids, templateTxID(*tmpl.CoinbaseTxn))
	for _, tx := range tmpl.Transactions {
		txids = append(txids, templateTxID(tx))
	}

	hashes := make([]chainhash.Hash, 0, len(txids))
	for _, txid := range txids {
		h, err := chainhash.NewHashFromStr(txid)
		if err != nil {
			return chainhash.Hash{}, fmt.Errorf("template has invalid txid %q: %w", txid, err)
		}
		hashes = append(hashes, *h)
	}

	// Odd levels duplicate their last entry, as the chain's merkle rule
	// requires.
	for len(hashes) > 1 {
		if len(hashes)%2 == 1 {
			hashes = append(hashes, hashes[len(hashes)-1])
		}
		next := make([]chainhash.Hash, 0, len(hashes)/2)
		for i := 0; i < len(hashes); i += 2 {
			var pair [chainhash.HashSize * 2]byte
			copy(pair[:chainhash.HashSize], hashes[i][:])
			copy(pair[chainhash.HashSize:], hashes[i+1][:])
			next = append(next, chainhash.DoubleHashH(pair[:]))
		}
		hashes = next
	}
	return hashes[0], nil
}

// templateTxID prefers the txid field, falling back to the legacy hash field
// for daemons that predate the distinction.
func templateTxID(tx btcjson.GetBlockTemplateResultTx) string {
	if tx.TxID != "" {
		return tx.TxID
	}
	return tx.Hash
}
