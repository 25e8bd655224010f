// internal/ledger/memory.go
package ledger

import (
	"context"

	"vendor-matching/internal/models"

	"github.com/patrickmn/go-cache"
)

// MemoryStore keeps selections in process. Entries never expire.
type MemoryStore struct {
	entries *cache.Cache
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: cache.New(cache.NoExpiration, 0)}
}

func (s *MemoryStore) Name() string { return "memory" }

func (s *MemoryStore) Put(_ context.Context, sel models.Selection) error {
	s.entries.Set(Key(sel.RFQID, sel.DemandKey), sel, cache.NoExpiration)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, rfqID, demandKey string) (models.Selection, error) {
	v, ok := s.entries.Get(Key(rfqID, demandKey))
	if !ok {
		return models.Selection{}, ErrNoSelection
	}
	return v.(models.Selection), nil
}

// Len reports how many RFQ demands have a selection.
func (s *MemoryStore) Len() int {
	return s.entries.ItemCount()
}
