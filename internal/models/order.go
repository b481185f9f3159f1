package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the fulfillment track of an order
type OrderStatus string

// Order statuses
const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// OrderStatuses lists every fulfillment status in lifecycle order
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// Valid reports whether s is a known fulfillment status
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions leave s
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// ParseOrderStatus converts free text into an OrderStatus
func ParseOrderStatus(raw string) (OrderStatus, error) {
	s := OrderStatus(raw)
	if !s.Valid() {
		return "", fmt.Errorf("invalid order status: %q", raw)
	}
	return s, nil
}

// PaymentStatus is the money-collection track of an order
type PaymentStatus string

// Payment statuses
const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusPaid      PaymentStatus = "paid"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

// Valid reports whether s is a known payment status
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusCancelled:
		return true
	}
	return false
}

// ParsePaymentStatus converts free text into a PaymentStatus
func ParsePaymentStatus(raw string) (PaymentStatus, error) {
	s := PaymentStatus(raw)
	if !s.Valid() {
		return "", fmt.Errorf("invalid payment status: %q", raw)
	}
	return s, nil
}

// PaymentMethod is how the customer pays at delivery or checkout
type PaymentMethod string

// Payment methods
const (
	PaymentMethodCash       PaymentMethod = "cash"
	PaymentMethodPix        PaymentMethod = "pix"
	PaymentMethodCreditCard PaymentMethod = "credit_card"
	PaymentMethodDebitCard  PaymentMethod = "debit_card"
)

// Valid reports whether m is a known payment method
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodPix, PaymentMethodCreditCard, PaymentMethodDebitCard:
		return true
	}
	return false
}

// ParsePaymentMethod converts free text into a PaymentMethod
func ParsePaymentMethod(raw string) (PaymentMethod, error) {
	m := PaymentMethod(raw)
	if !m.Valid() {
		return "", fmt.Errorf("invalid payment method: %q", raw)
	}
	return m, nil
}

// Label returns the customer-facing name of the payment method
func (m PaymentMethod) Label() string {
	switch m {
	case PaymentMethodCash:
		return "Dinheiro"
	case PaymentMethodPix:
		return "PIX"
	case PaymentMethodCreditCard:
		return "Cartão de Crédito"
	case PaymentMethodDebitCard:
		return "Cartão de Débito"
	}
	return string(m)
}

// LineItem is one ordered product line
type LineItem struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// Subtotal returns quantity times unit price
func (li LineItem) Subtotal() decimal.Decimal {
	return li.Price.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// LineItems is stored as a JSON array column
type LineItems []LineItem

// Value implements driver.Valuer
func (items LineItems) Value() (driver.Value, error) {
	if items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]LineItem(items))
}

// Scan implements sql.Scanner. Malformed payloads decode to an empty list.
func (items *LineItems) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	case nil:
		*items = LineItems{}
		return nil
	default:
		*items = LineItems{}
		return nil
	}
	*items = ParseLineItems(raw)
	return nil
}

// ParseLineItems decodes a JSON array of items, returning an empty list when raw
// is not an array of item objects.
func ParseLineItems(raw []byte) LineItems {
	var parsed []LineItem
	if err := json.Unmarshal(raw, &parsed); err != nil || parsed == nil {
		return LineItems{}
	}
	return LineItems(parsed)
}

// Order represents one customer purchase
type Order struct {
	ID              string          `db:"id" json:"id"`
	OrderNumber     int64           `db:"order_number" json:"order_number"`
	CustomerName    string          `db:"customer_name" json:"customer_name"`
	CustomerPhone   string          `db:"customer_phone" json:"customer_phone"`
	CustomerAddress string          `db:"customer_address" json:"customer_address"`
	Items           LineItems       `db:"items" json:"items"`
	TotalAmount     decimal.Decimal `db:"total_amount" json:"total_amount"`
	PaymentMethod   PaymentMethod   `db:"payment_method" json:"payment_method"`
	PaymentStatus   PaymentStatus   `db:"payment_status" json:"payment_status"`
	PaidAt          *time.Time      `db:"paid_at" json:"paid_at,omitempty"`
	Notes           *string         `db:"notes" json:"notes,omitempty"`
	Status          OrderStatus     `db:"status" json:"status"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// NotesText returns the notes or an empty string
func (o *Order) NotesText() string {
	if o.Notes == nil {
		return ""
	}
	return *o.Notes
}

// NewOrder is a validated order-creation payload ready to persist
type NewOrder struct {
	CustomerName    string
	CustomerPhone   string
	CustomerAddress string
	Items           LineItems
	TotalAmount     decimal.Decimal
	PaymentMethod   PaymentMethod
	PaymentStatus   PaymentStatus
	Notes           *string
	Status          OrderStatus
}
