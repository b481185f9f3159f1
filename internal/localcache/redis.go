package localcache

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"delivery-service/internal/models"

	"github.com/go-redis/redis/v8"
)

//go:embed scripts/increment_promo.lua
var incrementPromoScript string

// RedisCache stores cache entries in Redis under a key prefix
type RedisCache struct {
	rdb             *redis.Client
	prefix          string
	incrementScript *redis.Script
}

// NewRedisCache creates a new Redis-backed cache and checks connectivity
func NewRedisCache(addr, password string, db int) (*RedisCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return NewRedisCacheWithClient(rdb, "storefront:"), nil
}

// NewRedisCacheWithClient wraps an existing client
func NewRedisCacheWithClient(rdb *redis.Client, prefix string) *RedisCache {
	return &RedisCache{
		rdb:             rdb,
		prefix:          prefix,
		incrementScript: redis.NewScript(incrementPromoScript),
	}
}

// GetClient returns the underlying Redis client
func (c *RedisCache) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	return c.rdb.Close()
}

// GetItem returns the value stored under key
func (c *RedisCache) GetItem(ctx context.Context, key string) (string, bool, error) {
	val, err := c.rdb.Get(ctx, c.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, true, nil
}

// SetItem stores value under key without expiry
func (c *RedisCache) SetItem(ctx context.Context, key, value string) error {
	if err := c.rdb.Set(ctx, c.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// IncrementPromoUses runs the increment script so concurrent redemptions
// cannot overshoot max_uses
func (c *RedisCache) IncrementPromoUses(ctx context.Context, code string) (int, error) {
	result, err := c.incrementScript.Run(ctx, c.rdb,
		[]string{c.prefix + KeyPromoCodes}, models.NormalizePromoCode(code)).Result()
	if err != nil {
		return 0, fmt.Errorf("increment promo script failed: %w", err)
	}

	n, ok := result.(int64)
	if !ok {
		return 0, fmt.Errorf("unexpected script result type %T", result)
	}
	if err := redeemError(n); err != nil {
		return 0, err
	}
	return int(n), nil
}

// maxPromoUpdateAttempts bounds optimistic retries when a redemption
// changes the list between WATCH and EXEC
const maxPromoUpdateAttempts = 10

// ErrPromoUpdateConflict is returned when the list kept changing under
// every update attempt
var ErrPromoUpdateConflict = errors.New("promo codes changed concurrently, update abandoned")

// UpdatePromoCodes applies fn inside a WATCH/MULTI transaction on the
// promo-codes key. A redemption committed in between aborts the EXEC and the
// update is retried against the fresh list.
func (c *RedisCache) UpdatePromoCodes(ctx context.Context, fn PromoCodesFunc) error {
	key := c.prefix + KeyPromoCodes

	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("redis get %s: %w", KeyPromoCodes, err)
		}

		updated, err := fn(decodePromoCodes(raw))
		if err != nil {
			return err
		}
		encoded, err := json.Marshal(updated)
		if err != nil {
			return fmt.Errorf("encode %s: %w", KeyPromoCodes, err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, string(encoded), 0)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxPromoUpdateAttempts; attempt++ {
		err := c.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return ErrPromoUpdateConflict
}

var _ Cache = (*RedisCache)(nil)
