package service

import (
	"context"
	"testing"

	"delivery-service/internal/localcache"
	"delivery-service/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuote(t *testing.T) {
	promos := NewPromoService(localcache.NewMemoryCache())
	ctx := context.Background()
	_, err := promos.Create(ctx, promoInput("DEZ", "percentage", "10", 0))
	require.NoError(t, err)

	settings := staticSettings{DeliveryFee: decimal.NewFromInt(5), MinimumOrder: decimal.NewFromInt(25)}
	checkout := NewCheckout(settings, promos)

	items := []models.LineItem{{Name: "Pizza", Quantity: 2, Price: decimal.NewFromInt(10)}}

	quote, err := checkout.Quote(ctx, items, "")
	require.NoError(t, err)
	assert.True(t, quote.Subtotal.Equal(decimal.NewFromInt(20)))
	assert.True(t, quote.Total.Equal(decimal.NewFromInt(25)))
	assert.True(t, quote.BelowMinimum)
	assert.Nil(t, quote.Discount)

	quote, err = checkout.Quote(ctx, items, "dez")
	require.NoError(t, err)
	require.NotNil(t, quote.Discount)
	assert.True(t, quote.Discount.Amount.Equal(decimal.NewFromInt(2)))
	assert.True(t, quote.Total.Equal(decimal.NewFromInt(23)))

	_, err = checkout.Quote(ctx, items, "NADA")
	assert.ErrorIs(t, err, localcache.ErrPromoNotFound)
}
