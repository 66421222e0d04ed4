package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/andresuchdata/autoorder/internal/config"
	"github.com/andresuchdata/autoorder/internal/ledger"
	"github.com/redis/go-redis/v9"
)

const (
	ledgerKeyPrefix  = "autoorder:ledger:"
	ledgerCurrentKey = ledgerKeyPrefix + "current"
)

// LedgerCache keeps the latest ledger snapshot so a restarted or second
// server instance can resume from it.
type LedgerCache interface {
	SaveLedger(ctx context.Context, l *ledger.Ledger) error
	LoadLedger(ctx context.Context) (*ledger.Ledger, bool, error)
}

type redisLedgerCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopLedgerCache struct{}

func NewLedgerCache(client *redis.Client, cfg config.CacheConfig) LedgerCache {
	if client == nil || !cfg.Enabled {
		return &noopLedgerCache{}
	}
	return &redisLedgerCache{
		client: client,
		ttl:    ttlFromSeconds(cfg.LedgerTTLSeconds, defaultCacheTTL),
	}
}

func (c *redisLedgerCache) SaveLedger(ctx context.Context, l *ledger.Ledger) error {
	payload, err := json.Marshal(l.Snapshot())
	if err != nil {
		return fmt.Errorf("encode ledger cache: %w", err)
	}

	pipe := c.client.TxPipeline()
	pipe.Set(ctx, ledgerKeyPrefix+l.ID(), payload, c.ttl)
	pipe.Set(ctx, ledgerCurrentKey, payload, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisLedgerCache) LoadLedger(ctx context.Context) (*ledger.Ledger, bool, error) {
	payload, err := c.client.Get(ctx, ledgerCurrentKey).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var snap ledger.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, false, fmt.Errorf("decode ledger cache: %w", err)
	}
	return ledger.FromSnapshot(snap), true, nil
}

func (noopLedgerCache) SaveLedger(context.Context, *ledger.Ledger) error { return nil }

func (noopLedgerCache) LoadLedger(context.Context) (*ledger.Ledger, bool, error) {
	return nil, false, nil
}
