// Package localcache is the durable key-value mirror used when the database is
// unreachable or empty. It owns the key namespace: no other package builds
// cache keys.
package localcache

import (
	"context"
	"errors"

	"delivery-service/internal/models"
)

// Keys stored by the service
const (
	KeySettings         = "settings"
	KeySettingsPending  = "settings_pending_sync"
	KeyDeliverySettings = "delivery_settings"
	KeyProducts         = "products"
	KeyPromoCodes       = "promo_codes"
)

// Promo redemption failures
var (
	ErrPromoNotFound  = errors.New("promo code not found")
	ErrPromoInactive  = errors.New("promo code inactive")
	ErrPromoExhausted = errors.New("promo code usage limit reached")
)

// PromoCodesFunc rewrites the stored promo-codes list. Returning an error
// leaves the list untouched.
type PromoCodesFunc func(codes []models.PromoCode) ([]models.PromoCode, error)

// Cache is the getItem/setItem surface plus the atomic promo-code updates
// the service needs.
type Cache interface {
	// GetItem returns the stored value and whether the key exists
	GetItem(ctx context.Context, key string) (string, bool, error)
	// SetItem stores value under key
	SetItem(ctx context.Context, key, value string) error
	// IncrementPromoUses atomically bumps current_uses of code inside the
	// promo-codes list and returns the new count
	IncrementPromoUses(ctx context.Context, code string) (int, error)
	// UpdatePromoCodes applies fn to the current promo-codes list and stores
	// the result with no redemption landing in between
	UpdatePromoCodes(ctx context.Context, fn PromoCodesFunc) error
}

// redemption status codes shared by the Lua script and the memory driver
const (
	redeemNotFound  = -1
	redeemInactive  = -2
	redeemExhausted = -3
)

func redeemError(code int64) error {
	switch code {
	case redeemNotFound:
		return ErrPromoNotFound
	case redeemInactive:
		return ErrPromoInactive
	case redeemExhausted:
		return ErrPromoExhausted
	}
	return nil
}
