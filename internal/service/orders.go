package service

import (
	"context"
	"fmt"
	"time"

	"delivery-service/internal/models"
	"delivery-service/internal/store"
	"delivery-service/internal/util"
	"delivery-service/internal/validation"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderRepository reads and writes orders.
//
// Failure reporting is deliberately asymmetric: CreateOrder returns an error
// that callers must handle, while the status, payment and delete writes log
// store failures and report them only as a false result.
type OrderRepository struct {
	store   OrderStore
	changes ChangeSubscriber
	events  OrderEventPublisher
	now     func() time.Time
	logger  *zap.Logger
}

// NewOrderRepository creates a new order repository. changes and events may
// be nil.
func NewOrderRepository(store OrderStore, changes ChangeSubscriber, events OrderEventPublisher) *OrderRepository {
	return &OrderRepository{
		store:   store,
		changes: changes,
		events:  events,
		now:     time.Now,
		logger:  util.GetLogger(),
	}
}

// ListOrders retrieves every order, newest first
func (r *OrderRepository) ListOrders(ctx context.Context) ([]models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderRepository.ListOrders")
	defer span.End()

	rows, err := r.store.ListOrders(ctx)
	if err != nil {
		util.SpanError(span, err)
		r.logger.Error("Failed to list orders", zap.Error(err))
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	orders := make([]models.Order, 0, len(rows))
	for i := range rows {
		orders = append(orders, r.toOrder(&rows[i]))
	}
	return orders, nil
}

// GetOrder retrieves an order by ID
func (r *OrderRepository) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	ctx, span := util.StartOrderSpan(ctx, "OrderRepository.GetOrder", id)
	defer span.End()

	row, err := r.store.GetOrder(ctx, id)
	if err != nil {
		util.SpanError(span, err)
		return nil, err
	}
	order := r.toOrder(row)
	return &order, nil
}

// CreateOrder validates and persists a checkout submission. Validation
// failures come back as *validation.Error and nothing is written.
func (r *OrderRepository) CreateOrder(ctx context.Context, in validation.OrderInput) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderRepository.CreateOrder")
	defer span.End()

	newOrder, err := validation.ValidateOrder(in)
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues("validation").Inc()
		return nil, err
	}

	row, err := r.store.InsertOrder(ctx, uuid.New().String(), newOrder)
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues("db_error").Inc()
		util.SpanError(span, err)
		r.logger.Error("Failed to create order", zap.Error(err))
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	order := r.toOrder(row)
	util.OrdersCreatedTotal.Inc()
	r.logger.Info("Order created",
		zap.String("order_id", order.ID),
		zap.Int64("order_number", order.OrderNumber))

	if r.events != nil {
		if err := r.events.PublishOrderCreated(ctx, &order); err != nil {
			r.logger.Error("Failed to publish OrderCreated event", zap.Error(err))
		}
	}

	return &order, nil
}

// UpdateOrderStatus writes the fulfillment status. Unknown statuses are
// refused without touching the store. Reports false on any failure.
func (r *OrderRepository) UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) bool {
	ctx, span := util.StartOrderSpan(ctx, "OrderRepository.UpdateOrderStatus", id)
	defer span.End()

	if !status.Valid() {
		r.logger.Warn("Refusing unknown order status",
			zap.String("order_id", id), zap.String("status", string(status)))
		util.OrderStatusTransitionsTotal.WithLabelValues("invalid", "rejected").Inc()
		return false
	}

	if err := r.store.UpdateOrderStatus(ctx, id, status); err != nil {
		util.SpanError(span, err)
		r.logger.Error("Failed to update order status",
			zap.String("order_id", id), zap.String("status", string(status)), zap.Error(err))
		util.OrderStatusTransitionsTotal.WithLabelValues(string(status), "error").Inc()
		return false
	}
	util.OrderStatusTransitionsTotal.WithLabelValues(string(status), "ok").Inc()

	if r.events != nil {
		if err := r.events.PublishOrderStatusChanged(ctx, id, status); err != nil {
			r.logger.Error("Failed to publish OrderStatusChanged event", zap.Error(err))
		}
	}
	return true
}

// UpdatePaymentStatus writes the payment status, stamping paid_at when the
// order becomes paid. A previously stamped paid_at is never cleared.
func (r *OrderRepository) UpdatePaymentStatus(ctx context.Context, id string, status models.PaymentStatus) bool {
	ctx, span := util.StartOrderSpan(ctx, "OrderRepository.UpdatePaymentStatus", id)
	defer span.End()

	if !status.Valid() {
		r.logger.Warn("Refusing unknown payment status",
			zap.String("order_id", id), zap.String("payment_status", string(status)))
		util.PaymentStatusUpdatesTotal.WithLabelValues("invalid", "rejected").Inc()
		return false
	}

	var paidAt *time.Time
	if status == models.PaymentStatusPaid {
		t := r.now().UTC()
		paidAt = &t
	}

	if err := r.store.UpdatePaymentStatus(ctx, id, status, paidAt); err != nil {
		util.SpanError(span, err)
		r.logger.Error("Failed to update payment status",
			zap.String("order_id", id), zap.String("payment_status", string(status)), zap.Error(err))
		util.PaymentStatusUpdatesTotal.WithLabelValues(string(status), "error").Inc()
		return false
	}
	util.PaymentStatusUpdatesTotal.WithLabelValues(string(status), "ok").Inc()

	if r.events != nil {
		if err := r.events.PublishOrderPaymentStatusChanged(ctx, id, status, paidAt); err != nil {
			r.logger.Error("Failed to publish OrderPaymentStatusChanged event", zap.Error(err))
		}
	}
	return true
}

// DeleteOrder removes an order. Reports false on any failure.
func (r *OrderRepository) DeleteOrder(ctx context.Context, id string) bool {
	ctx, span := util.StartOrderSpan(ctx, "OrderRepository.DeleteOrder", id)
	defer span.End()

	if err := r.store.DeleteOrder(ctx, id); err != nil {
		util.SpanError(span, err)
		r.logger.Error("Failed to delete order", zap.String("order_id", id), zap.Error(err))
		return false
	}
	util.OrdersDeletedTotal.Inc()
	r.logger.Info("Order deleted", zap.String("order_id", id))

	if r.events != nil {
		if err := r.events.PublishOrderDeleted(ctx, id); err != nil {
			r.logger.Error("Failed to publish OrderDeleted event", zap.Error(err))
		}
	}
	return true
}

// Watch publishes the full order list now and again after every change to
// the orders table. A failed reload is logged and skipped, leaving the
// subscriber with the last good list. The returned func unsubscribes.
func (r *OrderRepository) Watch(ctx context.Context, onChange func([]models.Order)) func() {
	r.reload(ctx, store.OperationResync, onChange)
	if r.changes == nil {
		return func() {}
	}
	return r.changes.Subscribe(store.TableOrders, func(ev store.ChangeEvent) {
		r.reload(ctx, ev.Operation, onChange)
	})
}

func (r *OrderRepository) reload(ctx context.Context, operation string, onChange func([]models.Order)) {
	if ctx.Err() != nil {
		return
	}
	orders, err := r.ListOrders(ctx)
	if err != nil {
		util.OrderListRefetchTotal.WithLabelValues(store.TableOrders, "error").Inc()
		return
	}
	util.OrderListRefetchTotal.WithLabelValues(store.TableOrders, "ok").Inc()
	r.logger.Debug("Order list reloaded",
		zap.String("operation", operation), zap.Int("count", len(orders)))
	onChange(orders)
}

// toOrder maps a stored row, falling back to pending for statuses and to cash
// for payment methods written by something other than this service.
func (r *OrderRepository) toOrder(row *store.OrderRow) models.Order {
	status, err := models.ParseOrderStatus(row.Status)
	if err != nil {
		r.logger.Warn("Coercing unknown order status",
			zap.String("order_id", row.ID), zap.String("status", row.Status))
		status = models.OrderStatusPending
	}
	paymentStatus, err := models.ParsePaymentStatus(row.PaymentStatus)
	if err != nil {
		r.logger.Warn("Coercing unknown payment status",
			zap.String("order_id", row.ID), zap.String("payment_status", row.PaymentStatus))
		paymentStatus = models.PaymentStatusPending
	}
	paymentMethod, err := models.ParsePaymentMethod(row.PaymentMethod)
	if err != nil {
		r.logger.Warn("Coercing unknown payment method",
			zap.String("order_id", row.ID), zap.String("payment_method", row.PaymentMethod))
		paymentMethod = models.PaymentMethodCash
	}

	return models.Order{
		ID:              row.ID,
		OrderNumber:     row.OrderNumber,
		CustomerName:    row.CustomerName,
		CustomerPhone:   row.CustomerPhone,
		CustomerAddress: row.CustomerAddress,
		Items:           models.ParseLineItems(row.Items),
		TotalAmount:     row.TotalAmount,
		PaymentMethod:   paymentMethod,
		PaymentStatus:   paymentStatus,
		PaidAt:          row.PaidAt,
		Notes:           row.Notes,
		Status:          status,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
}
