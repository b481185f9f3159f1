package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOrderStatus(t *testing.T) {
	for _, s := range OrderStatuses {
		got, err := ParseOrderStatus(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	_, err := ParseOrderStatus("shipped")
	assert.Error(t, err)
	_, err = ParsePaymentStatus("refunded")
	assert.Error(t, err)

	method, err := ParsePaymentMethod("pix")
	require.NoError(t, err)
	assert.Equal(t, PaymentMethodPix, method)
	_, err = ParsePaymentMethod("voucher")
	assert.Error(t, err)
}

func TestOrderStatus_Terminal(t *testing.T) {
	assert.False(t, OrderStatusPending.Terminal())
	assert.False(t, OrderStatusProcessing.Terminal())
	assert.True(t, OrderStatusDelivered.Terminal())
	assert.True(t, OrderStatusCancelled.Terminal())
}

func TestPaymentMethod_Label(t *testing.T) {
	assert.Equal(t, "Dinheiro", PaymentMethodCash.Label())
	assert.Equal(t, "PIX", PaymentMethodPix.Label())
	assert.Equal(t, "Cartão de Crédito", PaymentMethodCreditCard.Label())
	assert.Equal(t, "Cartão de Débito", PaymentMethodDebitCard.Label())
	assert.Equal(t, "voucher", PaymentMethod("voucher").Label())
}

func TestParseLineItems(t *testing.T) {
	items := ParseLineItems([]byte(`[{"name":"Pizza","quantity":2,"price":"45.90"}]`))
	require.Len(t, items, 1)
	assert.Equal(t, "91.8", items[0].Subtotal().String())

	for _, raw := range []string{``, `null`, `{"name":"Pizza"}`, `"oops"`, `[1,2]`} {
		parsed := ParseLineItems([]byte(raw))
		assert.NotNil(t, parsed, raw)
		assert.Empty(t, parsed, raw)
	}
}

func TestLineItems_ScanValue(t *testing.T) {
	var items LineItems
	require.NoError(t, items.Scan([]byte(`[{"name":"Suco","quantity":1,"price":8}]`)))
	require.Len(t, items, 1)

	v, err := items.Value()
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name":"Suco","quantity":1,"price":"8"}]`, string(v.([]byte)))

	require.NoError(t, items.Scan(nil))
	assert.Empty(t, items)

	v, err = LineItems(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), v)
}

func TestImageRef_JSON(t *testing.T) {
	var raw, wrapped, empty ImageRef
	require.NoError(t, json.Unmarshal([]byte(`"https://x/a.png"`), &raw))
	require.NoError(t, json.Unmarshal([]byte(`{"value":"https://x/b.png"}`), &wrapped))
	require.NoError(t, json.Unmarshal([]byte(`null`), &empty))

	assert.Equal(t, ImageRef{Kind: ImageRaw, Location: "https://x/a.png"}, raw)
	assert.Equal(t, ImageRef{Kind: ImageWrapped, Location: "https://x/b.png"}, wrapped)
	assert.Equal(t, "", empty.URL())

	out, err := json.Marshal(wrapped)
	require.NoError(t, err)
	assert.Equal(t, `"https://x/b.png"`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`42`), &raw))
}

func TestSettingsPatch_Apply(t *testing.T) {
	fee := decimal.NewFromFloat(7.5)
	name := "Bella"
	base := Settings{CompanyName: "Old", MinimumOrder: decimal.NewFromInt(20)}

	got := SettingsPatch{DeliveryFee: &fee, CompanyName: &name}.Apply(base)
	assert.Equal(t, "Bella", got.CompanyName)
	assert.True(t, got.DeliveryFee.Equal(fee))
	assert.True(t, got.MinimumOrder.Equal(decimal.NewFromInt(20)))
	assert.Equal(t, "Old", base.CompanyName)
}

func TestPromoCode_State(t *testing.T) {
	p := PromoCode{MaxUses: 2, CurrentUses: 2}
	assert.True(t, p.Exhausted())
	p.MaxUses = 0
	assert.False(t, p.Exhausted())
	assert.Equal(t, "BEMVINDO", NormalizePromoCode("  bemVindo "))
}
