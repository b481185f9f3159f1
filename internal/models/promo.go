package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DiscountKind selects how a promo code discount is computed
type DiscountKind string

// Discount kinds
const (
	DiscountPercentage DiscountKind = "percentage"
	DiscountFixed      DiscountKind = "fixed"
)

// PromoCode is a staff-managed discount code kept in the local cache
type PromoCode struct {
	Code          string          `json:"code"`
	DiscountValue decimal.Decimal `json:"discount_value"`
	DiscountKind  DiscountKind    `json:"discount_type"`
	ExpiresAt     *time.Time      `json:"expires_at"`
	MaxUses       int             `json:"max_uses"`
	CurrentUses   int             `json:"current_uses"`
	Active        bool            `json:"active"`
}

// NormalizePromoCode canonicalises a code for case-insensitive comparison
func NormalizePromoCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Expired reports whether the code is past its expiry at now
func (p PromoCode) Expired(now time.Time) bool {
	return p.ExpiresAt != nil && !now.Before(*p.ExpiresAt)
}

// Exhausted reports whether the usage cap has been reached; 0 means unlimited
func (p PromoCode) Exhausted() bool {
	return p.MaxUses > 0 && p.CurrentUses >= p.MaxUses
}
