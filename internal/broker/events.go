package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"delivery-service/internal/models"
	"delivery-service/internal/util"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Publisher is the write side of a topic
type Publisher interface {
	PublishEvent(ctx context.Context, key string, event interface{}) error
}

// EventPublisher publishes order lifecycle events and queued notifications
type EventPublisher struct {
	orders   Publisher
	outbound Publisher
}

// NewEventPublisher creates a new event publisher. outbound may be nil when
// notifications are not queued.
func NewEventPublisher(orders, outbound Publisher) *EventPublisher {
	return &EventPublisher{orders: orders, outbound: outbound}
}

func newBaseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now(),
	}
}

func orderKey(orderID string) string {
	return fmt.Sprintf("order-%s", orderID)
}

// PublishOrderCreated publishes ORDER_CREATED
func (ep *EventPublisher) PublishOrderCreated(ctx context.Context, order *models.Order) error {
	event := &models.OrderCreatedEvent{
		BaseEvent:     newBaseEvent(models.EventTypeOrderCreated),
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		TotalAmount:   order.TotalAmount,
		PaymentMethod: order.PaymentMethod,
		Items:         order.Items,
	}
	return ep.orders.PublishEvent(ctx, orderKey(order.ID), event)
}

// PublishOrderStatusChanged publishes ORDER_STATUS_CHANGED
func (ep *EventPublisher) PublishOrderStatusChanged(ctx context.Context, orderID string, status models.OrderStatus) error {
	event := &models.OrderStatusChangedEvent{
		BaseEvent: newBaseEvent(models.EventTypeOrderStatusChanged),
		OrderID:   orderID,
		Status:    status,
	}
	return ep.orders.PublishEvent(ctx, orderKey(orderID), event)
}

// PublishOrderPaymentStatusChanged publishes ORDER_PAYMENT_STATUS_CHANGED
func (ep *EventPublisher) PublishOrderPaymentStatusChanged(ctx context.Context, orderID string, status models.PaymentStatus, paidAt *time.Time) error {
	event := &models.OrderPaymentStatusChangedEvent{
		BaseEvent:     newBaseEvent(models.EventTypeOrderPaymentStatusChanged),
		OrderID:       orderID,
		PaymentStatus: status,
		PaidAt:        paidAt,
	}
	return ep.orders.PublishEvent(ctx, orderKey(orderID), event)
}

// PublishOrderDeleted publishes ORDER_DELETED
func (ep *EventPublisher) PublishOrderDeleted(ctx context.Context, orderID string) error {
	event := &models.OrderDeletedEvent{
		BaseEvent: newBaseEvent(models.EventTypeOrderDeleted),
		OrderID:   orderID,
	}
	return ep.orders.PublishEvent(ctx, orderKey(orderID), event)
}

// PublishOutboundMessage queues a notification, keyed by destination so
// messages to one number stay ordered
func (ep *EventPublisher) PublishOutboundMessage(ctx context.Context, msg *models.OutboundMessage) error {
	if ep.outbound == nil {
		return fmt.Errorf("outbound message queue not configured")
	}
	return ep.outbound.PublishEvent(ctx, msg.Destination, msg)
}

// EventHandler routes incoming messages by event type
type EventHandler struct {
	onOutboundMessage func(context.Context, *models.OutboundMessage) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnOutboundMessage registers a handler for queued notifications
func (eh *EventHandler) OnOutboundMessage(handler func(context.Context, *models.OutboundMessage) error) {
	eh.onOutboundMessage = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	switch baseEvent.EventType {
	case models.EventTypeOutboundMessage:
		if eh.onOutboundMessage != nil {
			var event models.OutboundMessage
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal OutboundMessage event: %w", err)
			}
			return eh.onOutboundMessage(ctx, &event)
		}

	default:
		util.GetLogger().Debug("Unhandled event type",
			zap.String("type", baseEvent.EventType),
			zap.String("event_id", baseEvent.EventID))
	}

	return nil
}
