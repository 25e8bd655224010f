// internal/ledger/redis.go
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"vendor-matching/internal/models"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps one JSON value per RFQ and demand key without expiry.
type RedisStore struct {
	client redis.Cmdable
	prefix string
}

func NewRedisStore(client redis.Cmdable, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) Name() string { return "redis" }

func (s *RedisStore) key(rfqID, demandKey string) string {
	return s.prefix + Key(rfqID, demandKey)
}

func (s *RedisStore) Put(ctx context.Context, sel models.Selection) error {
	payload, err := json.Marshal(sel)
	if err != nil {
		return fmt.Errorf("encode selection: %w", err)
	}
	return s.client.Set(ctx, s.key(sel.RFQID, sel.DemandKey), payload, 0).Err()
}

func (s *RedisStore) Get(ctx context.Context, rfqID, demandKey string) (models.Selection, error) {
	raw, err := s.client.Get(ctx, s.key(rfqID, demandKey)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Selection{}, ErrNoSelection
	}
	if err != nil {
		return models.Selection{}, err
	}

	var sel models.Selection
	if err := json.Unmarshal(raw, &sel); err != nil {
		return models.Selection{}, fmt.Errorf("decode selection %s: %w", Key(rfqID, demandKey), err)
	}
	return sel, nil
}
