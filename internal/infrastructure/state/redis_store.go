package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"shopify-preorder-layer/internal/domain"
	"shopify-preorder-layer/internal/ports"

	redis "github.com/redis/go-redis/v9"
)

const keyPrefix = "preorder-layer:oauth:"

// RedisStore keeps OAuth states in redis until they expire or are taken
type RedisStore struct {
	client *redis.Client
}

var _ ports.OAuthStateStore = (*RedisStore)(nil)

// NewRedisStore creates a redis backed state store
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Put stores the state with a TTL matching its expiry
func (s *RedisStore) Put(ctx context.Context, st *domain.OAuthState) error {
	ttl := time.Until(st.ExpiresAt)
	if ttl <= 0 {
		return errors.New("oauth state already expired")
	}
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to encode oauth state: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+st.State, raw, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store oauth state: %w", err)
	}
	return nil
}

// Take returns and deletes the state in one round trip
func (s *RedisStore) Take(ctx context.Context, state string) (*domain.OAuthState, error) {
	raw, err := s.client.GetDel(ctx, keyPrefix+state).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read oauth state: %w", err)
	}

	var st domain.OAuthState
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("failed to decode oauth state: %w", err)
	}
	if time.Now().After(st.ExpiresAt) {
		return nil, nil
	}
	return &st, nil
}
