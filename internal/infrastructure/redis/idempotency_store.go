package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
)

var _ inventory.IdempotencyStore = (*IdempotencyStore)(nil)

const idempotencyPrefix = "stock-ledger:idem:"

// IdempotencyStore reclama claves con SET NX + TTL. Una clave reclamada rechaza reintentos
// hasta que vence o se libera (la operación falló).
type IdempotencyStore struct {
	client goredis.UniversalClient
	ttl    time.Duration
}

// NewIdempotencyStore ttl <= 0 usa 24h.
func NewIdempotencyStore(client goredis.UniversalClient, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyStore{client: client, ttl: ttl}
}

// Claim devuelve false si la clave ya estaba reclamada.
func (s *IdempotencyStore) Claim(ctx context.Context, key string) (bool, error) {
	ok, err := s.client.SetNX(ctx, idempotencyPrefix+key, time.Now().UTC().Format(time.RFC3339), s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim idempotency key: %w", err)
	}
	return ok, nil
}

// Release borra la clave para permitir reintentar.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, idempotencyPrefix+key).Err(); err != nil {
		return fmt.Errorf("release idempotency key: %w", err)
	}
	return nil
}
