package storage

import (
	"testing"
	"time"

	"github.com/beancore/beanminer/internal/models"
)

func newTestDB(t *testing.T) *PebbleDB {
	t.Helper()
	db, err := NewPebbleDB(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("close: %v", err)
		}
	})
	return db
}

func TestHeaderStoreRoundTrip(t *testing.T) {
	store := NewHeaderStore(newTestDB(t))

	info := &models.HeaderInfo{
		Hash:         "000000000019d6689c085ae165831e934ff763ae46a2a6c172b3f1b60a8ce26f",
		Height:       0,
		Version:      1,
		PreviousHash: "0000000000000000000000000000000000000000000000000000000000000000",
		MerkleRoot:   "4a5e1e4baab89f3a32518a88c31bc87f618f76673e2cc77ab2127b7afdeda33b",
		Timestamp:    time.Unix(1231006505, 0).UTC(),
		Bits:         "1d00ffff",
		Difficulty:   1,
		Nonce:        2083236893,
	}
	if err := store.Save(info); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.GetByHash(info.Hash)
	if err != nil {
		t.Fatalf("GetByHash: %v", err)
	}
	if got == nil {
		t.Fatal("GetByHash returned nil for saved header")
	}
	if got.Hash != info.Hash || got.Height != info.Height || got.Nonce != info.Nonce ||
		got.Bits != info.Bits || !got.Timestamp.Equal(info.Timestamp) {
		t.Errorf("GetByHash = %+v, want %+v", got, info)
	}
}

func TestHeaderStoreHeightIndex(t *testing.T) {
	store := NewHeaderStore(newTestDB(t))

	info := &models.HeaderInfo{
		Hash:   "00000000839a8e6886ab5951d76f411475428afc90947ee320161bbf18eb6048",
		Height: 1,
		Bits:   "1d00ffff",
	}
	if err := store.Save(info); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.GetByHeight(1)
	if err != nil {
		t.Fatalf("GetByHeight: %v", err)
	}
	if got == nil || got.Hash != info.Hash {
		t.Errorf("GetByHeight(1) = %+v, want hash %s", got, info.Hash)
	}
}

func TestHeaderStoreMissing(t *testing.T) {
	store := NewHeaderStore(newTestDB(t))

	got, err := store.GetByHash("ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff")
	if err != nil {
		t.Fatalf("GetByHash: %v", err)
	}
	if got != nil {
		t.Errorf("GetByHash for unknown hash = %+v, want nil", got)
	}

	gotH, err := store.GetByHeight(42)
	if err != nil {
		t.Fatalf("GetByHeight: %v", err)
	}
	if gotH != nil {
		t.Errorf("GetByHeight for unknown height = %+v, want nil", gotH)
	}
}

func TestSolutionStore(t *testing.T) {
	store := NewSolutionStore(newTestDB(t))

	headerHash := "000000000019d6689c085ae165831e934ff763ae46a2a6c172b3f1b60a8ce26f"
	for _, nonce := range []uint32{2083236893, 42} {
		sol := &models.Solution{
			HeaderHash: headerHash,
			Nonce:      nonce,
			Digest:     headerHash,
			Target:     "00000000ffff0000000000000000000000000000000000000000000000000000",
			FoundAt:    time.Now().UTC(),
		}
		if err := store.Save(sol); err != nil {
			t.Fatalf("Save(nonce=%d): %v", nonce, err)
		}
	}

	solutions, err := store.GetByHeader(headerHash)
	if err != nil {
		t.Fatalf("GetByHeader: %v", err)
	}
	if len(solutions) != 2 {
		t.Fatalf("GetByHeader returned %d solutions, want 2", len(solutions))
	}
	// Keys are zero-padded nonces, so iteration order is numeric.
	if solutions[0].Nonce != 42 || solutions[1].Nonce != 2083236893 {
		t.Errorf("unexpected solution order: %d, %d", solutions[0].Nonce, solutions[1].Nonce)
	}

	other, err := store.GetByHeader("00000000839a8e6886ab5951d76f411475428afc90947ee320161bbf18eb6048")
	if err != nil {
		t.Fatalf("GetByHeader: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("GetByHeader for unknown header returned %d solutions", len(other))
	}
}
