// Package miner drives the nonce search over a block header. The hot loop
// reuses the hash state of every nonce-independent byte (computed once per
// search) and abandons candidates whose partial second-pass state already
// proves the digest cannot meet the target.
package miner

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"math/big"
	"math/bits"
	"sync"

	"github.com/beancore/beanminer/internal/hash256"
	"github.com/beancore/beanminer/internal/header"
)

// Status is the terminal outcome of a search.
type Status int

const (
	// Exhausted means the whole configured nonce range was scanned without
	// a satisfying digest. It is a normal outcome, not an error; the caller
	// varies another header field and searches again.
	Exhausted Status = iota

	// Found means a satisfying nonce was located.
	Found
)

func (s Status) String() string {
	switch s {
	case Found:
		return "found"
	case Exhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Result reports the outcome of a search.
type Result struct {
	Status Status
	Nonce  uint32
	Digest [hash256.Size]byte
	Hashes uint64 // candidates attempted, counting early-rejected ones
}

// Options configures a search. The zero value scans the full 32-bit nonce
// range sequentially against the target encoded in the header's bits field.
type Options struct {
	Start   uint32
	End     uint32   // inclusive; 0 means 0xffffffff
	Target  *big.Int // overrides the header's own target (e.g. pool share difficulty)
	Workers int      // >1 shards the range; first success wins
}

// checkInterval is how many candidates a worker scans between context
// checks. A candidate hash is the atomic unit of work; cancellation never
// interrupts one mid-round.
const checkInterval = 1 << 12

// earlyExitE is the only value of the e register after 61 second-pass rounds
// that can yield a zero final h word: the last three rounds shift e into h
// unchanged, and the feed-forward then adds IV[7] (0x5be0cd19), so h is zero
// iff e == 2^32 - 0x5be0cd19.
const earlyExitE = 0xa41f32e7

// pow224 bounds the targets for which the early exit is sound: below it,
// every satisfying digest must have a zero top display word.
var pow224 = new(big.Int).Lsh(big.NewInt(1), 224)

// midstate holds the per-search loop invariants: the chaining value of the
// header's first 64 bytes, that value advanced through the three
// nonce-independent rounds of the second block, and the second block's first
// three message words.
type midstate struct {
	h1  hash256.State // chaining value after the first header block
	pre hash256.State // h1 after second-block rounds 0-2
	w   [3]uint32     // second-block words 0-2 (merkle tail, time, bits)
}

// precompute evaluates everything about the header that does not depend on
// the nonce. Identical headers produce bit-identical midstates regardless of
// their nonce fields.
func precompute(h header.BlockHeader) midstate {
	enc := h.Encode()

	// First 64 header bytes form a complete block; compress it normally.
	h1, err := hash256.Compress(hash256.IV, enc[:64])
	if err != nil {
		// Encode always yields 80 bytes; unreachable.
		panic(err)
	}

	m := midstate{h1: h1}
	for i := range m.w {
		m.w[i] = binary.BigEndian.Uint32(enc[64+i*4:])
	}

	// The nonce lands in word 3 of the second block, so rounds 0-2 are
	// invariant across the whole search.
	s := h1
	for i, w := range m.w {
		s = hash256.Round(s, i, w)
	}
	m.pre = s
	return m
}

// hashNonce completes the double hash for one nonce candidate. With
// earlyExit set it stops after 61 of the second pass's 64 rounds whenever
// the partial state proves the digest's top display word cannot be zero,
// returning done=false. The check is exact for that word, so it never
// rejects a nonce the full computation would accept.
func (m *midstate) hashNonce(nonce uint32, earlyExit bool) (digest [hash256.Size]byte, done bool) {
	// Second block of the first pass: 16 header tail bytes, the padding
	// bit, and the 640-bit message length.
	var w [16]uint32
	w[0], w[1], w[2] = m.w[0], m.w[1], m.w[2]
	w[3] = bits.ReverseBytes32(nonce) // little-endian nonce bytes read as a big-endian word
	w[4] = 0x80000000
	w[15] = header.Size * 8

	schedule := hash256.Expand(w)
	s := hash256.RunScheduled(m.pre, &schedule, 3, hash256.Rounds)
	first := hash256.Finalize(s, m.h1)

	// Second pass: the 32-byte digest padded to one block.
	var w2 [16]uint32
	copy(w2[:8], first[:])
	w2[8] = 0x80000000
	w2[15] = hash256.Size * 8

	schedule = hash256.Expand(w2)
	s = hash256.RunScheduled(hash256.IV, &schedule, 0, 61)
	if earlyExit && s[4] != earlyExitE {
		return digest, false
	}

	s = hash256.RunScheduled(s, &schedule, 61, hash256.Rounds)
	return hash256.Digest(hash256.Finalize(s, hash256.IV)), true
}

// Search scans nonce values for one whose double-hashed header satisfies the
// target. Each call is independent; there is no persisted state between
// searches. A single worker scans in increasing order; multiple workers
// shard the range and the first success cancels the rest cooperatively.
func Search(ctx context.Context, h header.BlockHeader, opts Options) (Result, error) {
	target := opts.Target
	if target == nil {
		target = header.CompactToTarget(h.Bits)
	}

	start, end := opts.Start, opts.End
	if end == 0 {
		end = math.MaxUint32
	}
	if end < start {
		return Result{}, fmt.Errorf("miner: nonce range end %d below start %d", end, start)
	}

	m := precompute(h)

	// The early exit reasons about the digest's top 32 display bits, which
	// is only conclusive when the target itself forces them to zero. For
	// looser targets fall back to full evaluation of every candidate.
	earlyExit := target.Sign() >= 0 && target.Cmp(pow224) < 0

	span := uint64(end-start) + 1
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	if uint64(workers) > span {
		workers = int(span)
	}
	if workers == 1 {
		return scan(ctx, &m, target, earlyExit, start, end)
	}
	return searchParallel(ctx, &m, target, earlyExit, start, end, workers)
}

// scan walks [from, to] in increasing order, checking for cancellation
// between candidates.
func scan(ctx context.Context, m *midstate, target *big.Int, earlyExit bool, from, to uint32) (Result, error) {
	var hashes uint64
	for nonce := from; ; nonce++ {
		if hashes%checkInterval == 0 {
			select {
			case <-ctx.Done():
				return Result{Hashes: hashes}, ctx.Err()
			default:
			}
		}
		hashes++

		if digest, done := m.hashNonce(nonce, earlyExit); done && header.CheckProofOfWork(digest, target) {
			return Result{Status: Found, Nonce: nonce, Digest: digest, Hashes: hashes}, nil
		}

		if nonce == to {
			return Result{Status: Exhausted, Hashes: hashes}, nil
		}
	}
}

// searchParallel shards [from, to] across workers, each scanning its own
// sub-range against a shared read-only midstate.
func searchParallel(ctx context.Context, m *midstate, target *big.Int, earlyExit bool, from, to uint32, workers int) (Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type outcome struct {
		res Result
		err error
	}
	results := make(chan outcome, workers)

	span := uint64(to-from) + 1
	chunk := span / uint64(workers)
	rem := span % uint64(workers)

	var wg sync.WaitGroup
	lo := uint64(from)
	for i := 0; i < workers; i++ {
		n := chunk
		if uint64(i) < rem {
			n++
		}
		hi := lo + n - 1

		wg.Add(1)
		go func(lo, hi uint32) {
			defer wg.Done()
			res, err := scan(ctx, m, target, earlyExit, lo, hi)
			results <- outcome{res, err}
		}(uint32(lo), uint32(hi))

		lo = hi + 1
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	final := Result{Status: Exhausted}
	var firstErr error
	for out := range results {
		final.Hashes += out.res.Hashes
		switch {
		case out.err != nil:
			// Cancellation of losing workers after a hit is expected;
			// anything else surfaces unless a hit arrives.
			if firstErr == nil {
				firstErr = out.err
			}
		case out.res.Status == Found && final.Status != Found:
			final.Status = Found
			final.Nonce = out.res.Nonce
			final.Digest = out.res.Digest
			cancel() // signal the other workers to stop scanning
		}
	}

	if final.Status == Found {
		return final, nil
	}
	if firstErr != nil {
		return Result{Hashes: final.Hashes}, firstErr
	}
	return final, nil
}
