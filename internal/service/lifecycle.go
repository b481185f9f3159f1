package service

import (
	"context"
	"errors"
	"fmt"

	"delivery-service/internal/models"
	"delivery-service/internal/notify"
	"delivery-service/internal/util"

	"go.uber.org/zap"
)

var (
	// ErrTerminalState is returned when a delivered or cancelled order is moved
	ErrTerminalState = errors.New("order is already delivered or cancelled")
	// ErrInvalidTransition is returned for a move outside the allowed set
	ErrInvalidTransition = errors.New("status transition not allowed")
	// ErrUpdateFailed is returned when the store refused a write
	ErrUpdateFailed = errors.New("order update failed")
)

// Sound names the cue the dashboard plays after a status change
type Sound string

// Sound cues, one per destination status
const (
	SoundNewOrder       Sound = "new-order"
	SoundOrderReceived  Sound = "order-received"
	SoundOrderDelivered Sound = "order-delivered"
	SoundOrderCancelled Sound = "order-cancelled"
)

// SoundFor returns the cue for reaching status
func SoundFor(status models.OrderStatus) Sound {
	switch status {
	case models.OrderStatusProcessing:
		return SoundOrderReceived
	case models.OrderStatusDelivered:
		return SoundOrderDelivered
	case models.OrderStatusCancelled:
		return SoundOrderCancelled
	}
	return SoundNewOrder
}

var transitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusPending:    {models.OrderStatusProcessing, models.OrderStatusDelivered, models.OrderStatusCancelled},
	models.OrderStatusProcessing: {models.OrderStatusDelivered, models.OrderStatusCancelled},
	models.OrderStatusDelivered:  {},
	models.OrderStatusCancelled:  {},
}

// AllowedTransitions lists the statuses reachable from status. Terminal
// statuses yield an empty list.
func AllowedTransitions(status models.OrderStatus) []models.OrderStatus {
	next := transitions[status]
	out := make([]models.OrderStatus, len(next))
	copy(out, next)
	return out
}

func transitionAllowed(from, to models.OrderStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// customer messages sent on entering a status from another
var transitionTemplates = map[[2]models.OrderStatus]notify.Template{
	{models.OrderStatusPending, models.OrderStatusProcessing}:   notify.TemplateReceived,
	{models.OrderStatusProcessing, models.OrderStatusDelivered}: notify.TemplateDelivery,
}

var statusLabels = map[models.OrderStatus]string{
	models.OrderStatusPending:    "pendente",
	models.OrderStatusProcessing: "em preparo",
	models.OrderStatusDelivered:  "entregue",
	models.OrderStatusCancelled:  "cancelado",
}

var paymentLabels = map[models.PaymentStatus]string{
	models.PaymentStatusPending:   "pendente",
	models.PaymentStatusPaid:      "pago",
	models.PaymentStatusFailed:    "falhou",
	models.PaymentStatusCancelled: "cancelado",
}

// OrderWriter is the part of the order repository the controller drives
type OrderWriter interface {
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) bool
	UpdatePaymentStatus(ctx context.Context, id string, status models.PaymentStatus) bool
	DeleteOrder(ctx context.Context, id string) bool
}

// TransitionResult is what the dashboard needs to react to a change
type TransitionResult struct {
	Order        *models.Order   `json:"order"`
	Sound        Sound           `json:"sound,omitempty"`
	Toast        string          `json:"toast"`
	Notification *notify.Outcome `json:"notification,omitempty"`
}

// LifecycleController drives orders through their fulfillment statuses
type LifecycleController struct {
	orders   OrderWriter
	settings SettingsProvider
	notifier Notifier
	logger   *zap.Logger
}

// NewLifecycleController creates a new lifecycle controller
func NewLifecycleController(orders OrderWriter, settings SettingsProvider, notifier Notifier) *LifecycleController {
	return &LifecycleController{
		orders:   orders,
		settings: settings,
		notifier: notifier,
		logger:   util.GetLogger(),
	}
}

// Transition moves order id to status to, messaging the customer when the
// move is confirm-received or out-for-delivery.
func (c *LifecycleController) Transition(ctx context.Context, id string, to models.OrderStatus) (*TransitionResult, error) {
	ctx, span := util.StartOrderSpan(ctx, "LifecycleController.Transition", id)
	defer span.End()

	order, err := c.orders.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	from := order.Status
	if from.Terminal() {
		return nil, fmt.Errorf("%w: order %d is %s", ErrTerminalState, order.OrderNumber, from)
	}
	if !transitionAllowed(from, to) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, from, to)
	}

	if !c.orders.UpdateOrderStatus(ctx, id, to) {
		return nil, ErrUpdateFailed
	}
	order.Status = to

	result := &TransitionResult{
		Order: order,
		Sound: SoundFor(to),
		Toast: fmt.Sprintf("Pedido #%d %s", order.OrderNumber, statusLabels[to]),
	}

	if template, ok := transitionTemplates[[2]models.OrderStatus{from, to}]; ok {
		outcome := c.notify(ctx, template, order)
		result.Notification = &outcome
	}

	c.logger.Info("Order status changed",
		zap.String("order_id", id),
		zap.String("from", string(from)),
		zap.String("to", string(to)))
	return result, nil
}

// SetPaymentStatus records a payment status change
func (c *LifecycleController) SetPaymentStatus(ctx context.Context, id string, status models.PaymentStatus) (*TransitionResult, error) {
	ctx, span := util.StartOrderSpan(ctx, "LifecycleController.SetPaymentStatus", id)
	defer span.End()

	if !c.orders.UpdatePaymentStatus(ctx, id, status) {
		return nil, ErrUpdateFailed
	}

	order, err := c.orders.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	return &TransitionResult{
		Order: order,
		Toast: fmt.Sprintf("Pagamento do pedido #%d %s", order.OrderNumber, paymentLabels[status]),
	}, nil
}

// SendConfirmation sends the order-confirmation message on demand
func (c *LifecycleController) SendConfirmation(ctx context.Context, id string) (*notify.Outcome, error) {
	ctx, span := util.StartOrderSpan(ctx, "LifecycleController.SendConfirmation", id)
	defer span.End()

	order, err := c.orders.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	outcome := c.notify(ctx, notify.TemplateConfirmation, order)
	return &outcome, nil
}

// Delete removes an order, typically one flagged as fraudulent
func (c *LifecycleController) Delete(ctx context.Context, id string) error {
	if !c.orders.DeleteOrder(ctx, id) {
		return ErrUpdateFailed
	}
	return nil
}

func (c *LifecycleController) notify(ctx context.Context, template notify.Template, order *models.Order) notify.Outcome {
	settings := c.settings.FetchSettings(ctx)
	message, err := notify.Compose(template, order, &settings)
	if err != nil {
		c.logger.Error("Failed to compose message", zap.String("order_id", order.ID), zap.Error(err))
		return notify.Outcome{Reason: err.Error()}
	}
	return c.notifier.Dispatch(ctx, template, order.CustomerPhone, message)
}
