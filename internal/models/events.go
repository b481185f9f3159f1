package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypeOrderCreated              = "ORDER_CREATED"
	EventTypeOrderStatusChanged        = "ORDER_STATUS_CHANGED"
	EventTypeOrderPaymentStatusChanged = "ORDER_PAYMENT_STATUS_CHANGED"
	EventTypeOrderDeleted              = "ORDER_DELETED"
	EventTypeOutboundMessage           = "OUTBOUND_MESSAGE"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderCreatedEvent published when an order is persisted
type OrderCreatedEvent struct {
	BaseEvent
	OrderID       string          `json:"order_id"`
	OrderNumber   int64           `json:"order_number"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	Items         LineItems       `json:"items"`
}

// OrderStatusChangedEvent published when the fulfillment status is written
type OrderStatusChangedEvent struct {
	BaseEvent
	OrderID string      `json:"order_id"`
	Status  OrderStatus `json:"status"`
}

// OrderPaymentStatusChangedEvent published when the payment status is written
type OrderPaymentStatusChangedEvent struct {
	BaseEvent
	OrderID       string        `json:"order_id"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	PaidAt        *time.Time    `json:"paid_at,omitempty"`
}

// OrderDeletedEvent published when staff remove an order
type OrderDeletedEvent struct {
	BaseEvent
	OrderID string `json:"order_id"`
}

// OutboundMessage is a queued customer or staff notification
type OutboundMessage struct {
	BaseEvent
	Destination string `json:"destination"`
	Text        string `json:"text"`
}
