package localcache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"delivery-service/internal/models"
)

// MemoryCache keeps entries in process memory. It is used in development and
// tests; contents are lost on restart.
type MemoryCache struct {
	mu    sync.Mutex
	items map[string]string
}

// NewMemoryCache creates an empty in-memory cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{items: make(map[string]string)}
}

// GetItem returns the value stored under key
func (c *MemoryCache) GetItem(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	val, ok := c.items[key]
	return val, ok, nil
}

// SetItem stores value under key
func (c *MemoryCache) SetItem(_ context.Context, key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = value
	return nil
}

// IncrementPromoUses mirrors the Redis script under the cache mutex
func (c *MemoryCache) IncrementPromoUses(_ context.Context, code string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, ok := c.items[KeyPromoCodes]
	if !ok {
		return 0, ErrPromoNotFound
	}

	var codes []models.PromoCode
	if err := json.Unmarshal([]byte(raw), &codes); err != nil {
		return 0, ErrPromoNotFound
	}

	wanted := models.NormalizePromoCode(code)
	for i := range codes {
		if models.NormalizePromoCode(codes[i].Code) != wanted {
			continue
		}
		if !codes[i].Active {
			return 0, redeemError(redeemInactive)
		}
		if codes[i].Exhausted() {
			return 0, redeemError(redeemExhausted)
		}
		codes[i].CurrentUses++

		updated, err := json.Marshal(codes)
		if err != nil {
			return 0, err
		}
		c.items[KeyPromoCodes] = string(updated)
		return codes[i].CurrentUses, nil
	}
	return 0, ErrPromoNotFound
}

// UpdatePromoCodes runs fn under the cache mutex, so it is serialized with
// IncrementPromoUses. fn must not call back into the cache.
func (c *MemoryCache) UpdatePromoCodes(_ context.Context, fn PromoCodesFunc) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	updated, err := fn(decodePromoCodes(c.items[KeyPromoCodes]))
	if err != nil {
		return err
	}
	raw, err := json.Marshal(updated)
	if err != nil {
		return fmt.Errorf("encode %s: %w", KeyPromoCodes, err)
	}
	c.items[KeyPromoCodes] = string(raw)
	return nil
}

var _ Cache = (*MemoryCache)(nil)
