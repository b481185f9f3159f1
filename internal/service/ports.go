package service

import (
	"context"
	"time"

	"delivery-service/internal/models"
	"delivery-service/internal/notify"
	"delivery-service/internal/store"
)

// OrderStore is the persistence surface the order repository needs
type OrderStore interface {
	ListOrders(ctx context.Context) ([]store.OrderRow, error)
	GetOrder(ctx context.Context, id string) (*store.OrderRow, error)
	InsertOrder(ctx context.Context, id string, order models.NewOrder) (*store.OrderRow, error)
	UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) error
	UpdatePaymentStatus(ctx context.Context, id string, status models.PaymentStatus, paidAt *time.Time) error
	DeleteOrder(ctx context.Context, id string) error
}

// SettingsStore persists the single settings row
type SettingsStore interface {
	GetSettings(ctx context.Context) (*models.Settings, error)
	InsertSettings(ctx context.Context, settings models.Settings) error
	UpdateSettings(ctx context.Context, settings models.Settings) error
}

// ProductStore persists the menu
type ProductStore interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	InsertProduct(ctx context.Context, p *models.Product) error
	UpdateProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id string) error
}

// ChangeSubscriber delivers row change events per table
type ChangeSubscriber interface {
	Subscribe(table string, fn func(store.ChangeEvent)) func()
}

// OrderEventPublisher announces committed order writes
type OrderEventPublisher interface {
	PublishOrderCreated(ctx context.Context, order *models.Order) error
	PublishOrderStatusChanged(ctx context.Context, orderID string, status models.OrderStatus) error
	PublishOrderPaymentStatusChanged(ctx context.Context, orderID string, status models.PaymentStatus, paidAt *time.Time) error
	PublishOrderDeleted(ctx context.Context, orderID string) error
}

// Notifier sends a composed message to a raw phone number
type Notifier interface {
	Dispatch(ctx context.Context, template notify.Template, rawPhone, message string) notify.Outcome
}

// SettingsProvider yields the current business settings
type SettingsProvider interface {
	FetchSettings(ctx context.Context) models.Settings
}
