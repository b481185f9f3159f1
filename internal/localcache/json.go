package localcache

import (
	"context"
	"encoding/json"
	"fmt"

	"delivery-service/internal/models"
	"delivery-service/internal/util"

	"go.uber.org/zap"
)

// LoadJSON decodes the value under key into v. Absent keys, read failures and
// malformed payloads all report false; the latter two are logged.
func LoadJSON(ctx context.Context, c Cache, key string, v interface{}) bool {
	raw, ok, err := c.GetItem(ctx, key)
	if err != nil {
		util.GetLogger().Error("Local cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if !ok || raw == "" {
		return false
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		util.GetLogger().Warn("Malformed local cache entry, ignoring",
			zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// StoreJSON encodes v and writes it under key
func StoreJSON(ctx context.Context, c Cache, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return c.SetItem(ctx, key, string(raw))
}

// decodePromoCodes parses a stored promo-codes list. A missing or malformed
// entry decodes as an empty list, as LoadJSON would report it.
func decodePromoCodes(raw string) []models.PromoCode {
	codes := []models.PromoCode{}
	if raw == "" {
		return codes
	}
	if err := json.Unmarshal([]byte(raw), &codes); err != nil {
		util.GetLogger().Warn("Malformed local cache entry, ignoring",
			zap.String("key", KeyPromoCodes), zap.Error(err))
		return []models.PromoCode{}
	}
	return codes
}
