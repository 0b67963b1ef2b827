package storage

import (
	"encoding/json"
	"fmt"

	"github.com/beancore/beanminer/internal/models"
)

// HeaderStore caches headers fetched from the daemon so repeat lookups do
// not hit the RPC connection.
type HeaderStore struct {
	db *PebbleDB
}

// NewHeaderStore creates a new HeaderStore
func NewHeaderStore(db *PebbleDB) *HeaderStore {
	return &HeaderStore{db: db}
}

// heightKey creates a key for the headers_by_height column family
func heightKey(height int64) []byte {
	return []byte(fmt.Sprintf("%012d", height))
}

// Save stores a header, indexed by hash and (when known) by height
func (s *HeaderStore) Save(info *models.HeaderInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}

	batch := s.db.NewBatch()
	defer batch.Destroy()

	if err := s.db.PutBatch(batch, CFHeaders, []byte(info.Hash), data); err != nil {
		return err
	}
	if info.Height >= 0 {
		if err := s.db.PutBatch(batch, CFHeadersByHeight, heightKey(info.Height), []byte(info.Hash)); err != nil {
			return err
		}
	}

	return s.db.WriteBatch(batch)
}

// GetByHash retrieves a cached header by its display-order hash. Returns
// (nil, nil) when absent.
func (s *HeaderStore) GetByHash(hash string) (*models.HeaderInfo, error) {
	data, err := s.db.Get(CFHeaders, []byte(hash))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}

	var info models.HeaderInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to unmarshal header: %w", err)
	}
	return &info, nil
}

// GetByHeight retrieves a cached header by its height
func (s *HeaderStore) GetByHeight(height int64) (*models.HeaderInfo, error) {
	hashData, err := s.db.Get(CFHeadersByHeight, heightKey(height))
	if err != nil {
		return nil, err
	}
	if hashData == nil {
		return nil, nil
	}
	return s.GetByHash(string(hashData))
}
