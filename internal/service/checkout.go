package service

import (
	"context"

	"delivery-service/internal/models"
	"delivery-service/internal/util"

	"github.com/shopspring/decimal"
)

// DiscountValidator prices a promo code against a subtotal
type DiscountValidator interface {
	Validate(ctx context.Context, code string, subtotal decimal.Decimal) (*Discount, error)
}

// Quote is the priced cart shown before the order is placed
type Quote struct {
	Subtotal     decimal.Decimal `json:"subtotal"`
	Discount     *Discount       `json:"discount,omitempty"`
	DeliveryFee  decimal.Decimal `json:"delivery_fee"`
	Total        decimal.Decimal `json:"total"`
	MinimumOrder decimal.Decimal `json:"minimum_order"`
	BelowMinimum bool            `json:"below_minimum"`
}

// Checkout prices carts from the current settings and promo codes
type Checkout struct {
	settings SettingsProvider
	promos   DiscountValidator
}

// NewCheckout creates a new checkout
func NewCheckout(settings SettingsProvider, promos DiscountValidator) *Checkout {
	return &Checkout{settings: settings, promos: promos}
}

// Quote prices items with the delivery fee and an optional promo code. An
// unusable promo code fails the quote. The minimum order applies to the
// subtotal before discount.
func (c *Checkout) Quote(ctx context.Context, items []models.LineItem, promoCode string) (*Quote, error) {
	ctx, span := util.StartSpan(ctx, "Checkout.Quote")
	defer span.End()

	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.Subtotal())
	}

	settings := c.settings.FetchSettings(ctx)
	quote := &Quote{
		Subtotal:     subtotal,
		DeliveryFee:  settings.DeliveryFee,
		MinimumOrder: settings.MinimumOrder,
		BelowMinimum: subtotal.LessThan(settings.MinimumOrder),
	}

	discount := decimal.Zero
	if models.NormalizePromoCode(promoCode) != "" {
		d, err := c.promos.Validate(ctx, promoCode, subtotal)
		if err != nil {
			return nil, err
		}
		quote.Discount = d
		discount = d.Amount
	}

	quote.Total = subtotal.Sub(discount).Add(settings.DeliveryFee)
	return quote, nil
}
