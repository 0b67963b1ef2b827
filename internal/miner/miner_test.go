package miner

import (
	"context"
	"math/big"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/beancore/beanminer/internal/hash256"
	"github.com/beancore/beanminer/internal/header"
)

const (
	genesisNonce   = 2083236893
	genesisHashStr = "000000000019d6689c085ae165831e934ff763ae46a2a6c172b3f1b60a8ce26f"
)

// genesisHeader returns the Bitcoin genesis block header with the nonce
// cleared, so searches have to rediscover it.
func genesisHeader(t *testing.T) header.BlockHeader {
	t.Helper()
	merkle, err := chainhash.NewHashFromStr("4a5e1e4baab89f3a32518a88c31bc87f618f76673e2cc77ab2127b7afdeda33b")
	if err != nil {
		t.Fatalf("bad merkle root: %v", err)
	}
	return header.BlockHeader{
		Version:    1,
		MerkleRoot: *merkle,
		Timestamp:  1231006505,
		Bits:       0x1d00ffff,
	}
}

func TestEarlyExitConstant(t *testing.T) {
	// earlyExitE must be exactly the value the feed-forward cancels.
	if got := earlyExitE + hash256.IV[7]; uint32(got) != 0 {
		t.Errorf("earlyExitE + IV[7] = %#x, want 0", uint32(got))
	}
}

func TestMidstateNonceInvariant(t *testing.T) {
	h := genesisHeader(t)
	a := precompute(h.WithNonce(0))
	b := precompute(h.WithNonce(0xdeadbeef))
	if a != b {
		t.Errorf("midstate differs across nonces:\n%+v\n%+v", a, b)
	}
}

func TestHashNonceMatchesFullPipeline(t *testing.T) {
	h := genesisHeader(t)
	m := precompute(h)

	for _, nonce := range []uint32{0, 1, 0x7fffffff, 0xffffffff, genesisNonce} {
		digest, done := m.hashNonce(nonce, false)
		if !done {
			t.Fatalf("nonce %d: full evaluation reported not done", nonce)
		}
		full := h.WithNonce(nonce)
		if want := full.Hash(); digest != want {
			t.Errorf("nonce %d: midstate digest %x != full digest %x", nonce, digest, want)
		}
	}
}

func TestEarlyExitSoundness(t *testing.T) {
	h := genesisHeader(t)
	m := precompute(h)
	target := header.CompactToTarget(h.Bits)

	// Every early-rejected candidate must genuinely fail the target, and
	// every completed candidate's digest must match the naive pipeline.
	for nonce := uint32(genesisNonce - 200); nonce <= genesisNonce+200; nonce++ {
		digest, done := m.hashNonce(nonce, true)
		full := h.WithNonce(nonce)
		fullDigest := full.Hash()
		if !done {
			if header.CheckProofOfWork(fullDigest, target) {
				t.Fatalf("nonce %d early-rejected but satisfies the target", nonce)
			}
			continue
		}
		if digest != fullDigest {
			t.Errorf("nonce %d: early-exit path digest %x != full digest %x", nonce, digest, fullDigest)
		}
	}

	// The known-good nonce must survive the early exit.
	if _, done := m.hashNonce(genesisNonce, true); !done {
		t.Error("winning nonce was early-rejected")
	}
}

func TestSearchFindsGenesisNonce(t *testing.T) {
	h := genesisHeader(t)

	res, err := Search(context.Background(), h, Options{
		Start: genesisNonce - 3,
		End:   genesisNonce + 3,
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Status != Found {
		t.Fatalf("Search status = %v, want found", res.Status)
	}
	if res.Nonce != genesisNonce {
		t.Errorf("Search nonce = %d, want %d", res.Nonce, genesisNonce)
	}

	got := chainhash.Hash(res.Digest)
	if got.String() != genesisHashStr {
		t.Errorf("Search digest = %s, want %s", got.String(), genesisHashStr)
	}
	if res.Hashes != 4 {
		t.Errorf("Search hashes = %d, want 4 (stop at first hit)", res.Hashes)
	}
}

func TestSearchParallelFindsGenesisNonce(t *testing.T) {
	h := genesisHeader(t)

	res, err := Search(context.Background(), h, Options{
		Start:   genesisNonce - 50,
		End:     genesisNonce + 49,
		Workers: 4,
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Status != Found || res.Nonce != genesisNonce {
		t.Errorf("parallel search = %v nonce %d, want found %d", res.Status, res.Nonce, genesisNonce)
	}
}

func TestSearchExhausted(t *testing.T) {
	h := genesisHeader(t)

	// An all-zero target is unreachable; a small range must come back
	// exhausted rather than falsely succeeding.
	res, err := Search(context.Background(), h, Options{
		Start:  0,
		End:    2000,
		Target: big.NewInt(0),
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Status != Exhausted {
		t.Fatalf("Search status = %v, want exhausted", res.Status)
	}
	if res.Hashes != 2001 {
		t.Errorf("Search hashes = %d, want 2001", res.Hashes)
	}
}

func TestSearchLooseTargetDisablesEarlyExit(t *testing.T) {
	h := genesisHeader(t)

	// With a target at 2^256-1 every digest qualifies, including ones with
	// a nonzero top display word that the early exit would have skipped.
	everything := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	res, err := Search(context.Background(), h, Options{
		Start:  7,
		End:    100,
		Target: everything,
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Status != Found || res.Nonce != 7 {
		t.Errorf("Search = %v nonce %d, want found 7", res.Status, res.Nonce)
	}
	if want := h.WithNonce(7).Hash(); res.Digest != want {
		t.Errorf("Search digest = %x, want %x", res.Digest, want)
	}
}

func TestSearchCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Search(ctx, genesisHeader(t), Options{})
	if err != context.Canceled {
		t.Errorf("Search on cancelled context: err = %v, want context.Canceled", err)
	}
}

func TestSearchInvalidRange(t *testing.T) {
	if _, err := Search(context.Background(), genesisHeader(t), Options{Start: 10, End: 5}); err == nil {
		t.Error("end below start: expected error")
	}
}

func TestSearchStatusString(t *testing.T) {
	if Found.String() != "found" || Exhausted.String() != "exhausted" {
		t.Errorf("unexpected status strings: %q, %q", Found, Exhausted)
	}
}

func TestPrecomputeMatchesDirectMidstate(t *testing.T) {
	h := genesisHeader(t)
	enc := h.Encode()

	m := precompute(h)
	chain, err := hash256.Compress(hash256.IV, enc[:64])
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if m.h1 != chain {
		t.Errorf("midstate chaining value %08x != direct compression %08x", m.h1, chain)
	}
}
