package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shopify-preorder-layer/internal/domain"
	"shopify-preorder-layer/internal/ports"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const lockReleaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

const (
	keyPrefix    = "preorder-layer:lock:"
	retryBackoff = 25 * time.Millisecond
)

// RedisLocker serializes work across instances with SET NX PX and a
// compare-and-delete release
type RedisLocker struct {
	client *redis.Client
	script *redis.Script
	wait   time.Duration
	logger zerolog.Logger
}

var _ ports.Locker = (*RedisLocker)(nil)

// NewRedisLocker creates a locker that waits at most wait for a key
func NewRedisLocker(client *redis.Client, wait time.Duration, logger zerolog.Logger) *RedisLocker {
	return &RedisLocker{
		client: client,
		script: redis.NewScript(lockReleaseScript),
		wait:   wait,
		logger: logger,
	}
}

// TryLock makes one attempt and returns the owner token when it succeeds
func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	if key == "" {
		return "", false, errors.New("lock key is empty")
	}
	if ttl <= 0 {
		return "", false, errors.New("lock ttl must be positive")
	}

	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, keyPrefix+key, token, ttl).Result()
	if err != nil {
		return "", false, err
	}
	return token, ok, nil
}

// Release deletes the key if token still owns it
func (l *RedisLocker) Release(ctx context.Context, key, token string) error {
	if key == "" || token == "" {
		return nil
	}
	return l.script.Run(ctx, l.client, []string{keyPrefix + key}, token).Err()
}

// Lock retries TryLock until it succeeds or the wait budget is spent
func (l *RedisLocker) Lock(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	deadline := time.Now().Add(l.wait)
	for {
		token, ok, err := l.TryLock(ctx, key, ttl)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if ok {
			return func() {
				// released on a fresh context so a cancelled request still frees the key
				if err := l.Release(context.Background(), key, token); err != nil {
					l.logger.Warn().Err(err).Str("key", key).Msg("Failed to release lock")
				}
			}, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("lock %s: %w", key, domain.ErrBusy)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryBackoff):
		}
	}
}
