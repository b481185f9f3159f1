package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"delivery-service/internal/models"

	"github.com/shopspring/decimal"
)

const orderColumns = `id, order_number, customer_name, customer_phone, customer_address, items,
	total_amount, payment_method, payment_status, paid_at, notes, status, created_at, updated_at`

// OrderRow is an orders row as stored. Enumerations and the items payload are
// left raw so callers decide how to coerce them.
type OrderRow struct {
	ID              string          `db:"id"`
	OrderNumber     int64           `db:"order_number"`
	CustomerName    string          `db:"customer_name"`
	CustomerPhone   string          `db:"customer_phone"`
	CustomerAddress string          `db:"customer_address"`
	Items           []byte          `db:"items"`
	TotalAmount     decimal.Decimal `db:"total_amount"`
	PaymentMethod   string          `db:"payment_method"`
	PaymentStatus   string          `db:"payment_status"`
	PaidAt          *time.Time      `db:"paid_at"`
	Notes           *string         `db:"notes"`
	Status          string          `db:"status"`
	CreatedAt       time.Time       `db:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at"`
}

// ListOrders retrieves all orders, newest first
func (s *Store) ListOrders(ctx context.Context) ([]OrderRow, error) {
	rows := []OrderRow{}
	err := s.db.SelectContext(ctx, &rows,
		"SELECT "+orderColumns+" FROM orders ORDER BY created_at DESC")
	return rows, err
}

// GetOrder retrieves an order by ID
func (s *Store) GetOrder(ctx context.Context, id string) (*OrderRow, error) {
	var row OrderRow
	err := s.db.GetContext(ctx, &row,
		"SELECT "+orderColumns+" FROM orders WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// InsertOrder persists a new order. The order number is assigned by the
// database sequence.
func (s *Store) InsertOrder(ctx context.Context, id string, order models.NewOrder) (*OrderRow, error) {
	query := `
		INSERT INTO orders (id, customer_name, customer_phone, customer_address, items,
			total_amount, payment_method, payment_status, notes, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + orderColumns

	var row OrderRow
	err := s.db.GetContext(ctx, &row, query,
		id, order.CustomerName, order.CustomerPhone, order.CustomerAddress, order.Items,
		order.TotalAmount, string(order.PaymentMethod), string(order.PaymentStatus),
		order.Notes, string(order.Status))
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// UpdateOrderStatus updates the fulfillment status
func (s *Store) UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2",
		string(status), id)
	if err != nil {
		return err
	}
	return expectAffected(res, "order", id)
}

// UpdatePaymentStatus updates the payment status. A nil paidAt leaves any
// existing paid_at untouched.
func (s *Store) UpdatePaymentStatus(ctx context.Context, id string, status models.PaymentStatus, paidAt *time.Time) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE orders SET payment_status = $1, paid_at = COALESCE($2::timestamptz, paid_at), updated_at = NOW() WHERE id = $3",
		string(status), paidAt, id)
	if err != nil {
		return err
	}
	return expectAffected(res, "order", id)
}

// DeleteOrder removes an order row
func (s *Store) DeleteOrder(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM orders WHERE id = $1", id)
	if err != nil {
		return err
	}
	return expectAffected(res, "order", id)
}

func expectAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return nil
}
