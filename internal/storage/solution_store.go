package storage

import (
	"encoding/json"
	"fmt"

	"github.com/beancore/beanminer/internal/models"
)

// SolutionStore persists found nonces. Search-in-progress state is never
// stored; only terminal results are.
type SolutionStore struct {
	db *PebbleDB
}

// NewSolutionStore creates a new SolutionStore
func NewSolutionStore(db *PebbleDB) *SolutionStore {
	return &SolutionStore{db: db}
}

// solutionKey creates a key for the solutions column family
func solutionKey(headerHash string, nonce uint32) []byte {
	return []byte(fmt.Sprintf("%s:%010d", headerHash, nonce))
}

// Save stores a found solution
func (s *SolutionStore) Save(sol *models.Solution) error {
	data, err := json.Marshal(sol)
	if err != nil {
		return fmt.Errorf("failed to marshal solution: %w", err)
	}
	return s.db.Put(CFSolutions, solutionKey(sol.HeaderHash, sol.Nonce), data)
}

// GetByHeader retrieves all solutions recorded for a header hash
func (s *SolutionStore) GetByHeader(headerHash string) ([]*models.Solution, error) {
	iter, err := s.db.NewPrefixIterator(CFSolutions, []byte(headerHash+":"))
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var solutions []*models.Solution
	for ; iter.Valid(); iter.Next() {
		var sol models.Solution
		if err := json.Unmarshal(iter.Value(), &sol); err != nil {
			return nil, fmt.Errorf("failed to unmarshal solution: %w", err)
		}
		solutions = append(solutions, &sol)
	}
	return solutions, nil
}
