package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/andresuchdata/autoorder/internal/config"
	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ErrLocked is returned when another writer holds the ledger lock.
var ErrLocked = errors.New("ledger is being updated by another request, retry shortly")

// RedisLocker serializes ledger writers across server instances.
type RedisLocker struct {
	locker *redislock.Client
	ttl    time.Duration
	wait   time.Duration
}

func NewRedisLocker(client *redis.Client, cfg config.CacheConfig) *RedisLocker {
	return &RedisLocker{
		locker: redislock.New(client),
		ttl:    ttlFromSeconds(cfg.LockTTLSeconds, defaultLockTTL),
		wait:   5 * time.Second,
	}
}

// Lock obtains key, retrying for a few seconds before giving up with ErrLocked.
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	retry := redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), int(l.wait/(100*time.Millisecond)))
	lock, err := l.locker.Obtain(ctx, key, l.ttl, &redislock.Options{RetryStrategy: retry})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrLocked
	}
	if err != nil {
		return nil, fmt.Errorf("obtain lock %s: %w", key, err)
	}

	return func() {
		// Release on a fresh context so a cancelled request still frees the lock.
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := lock.Release(ctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			log.Warn().Err(err).Str("key", key).Msg("failed to release ledger lock")
		}
	}, nil
}
