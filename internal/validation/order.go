package validation

import (
	"strings"

	"delivery-service/internal/models"

	"github.com/shopspring/decimal"
)

// OrderItemInput is one raw line item from checkout
type OrderItemInput struct {
	Name     string          `json:"name" validate:"required,max=200"`
	Quantity int             `json:"quantity" validate:"gte=1,lte=100"`
	Price    decimal.Decimal `json:"price" validate:"gte=0,lte=99999.99"`
}

// OrderInput is the raw order-creation payload
type OrderInput struct {
	CustomerName    string           `json:"customer_name" validate:"min=2,max=100,personname"`
	CustomerPhone   string           `json:"customer_phone" validate:"min=8,max=20,phone"`
	CustomerAddress string           `json:"customer_address" validate:"min=5,max=500"`
	Items           []OrderItemInput `json:"items" validate:"min=1,dive"`
	TotalAmount     decimal.Decimal  `json:"total_amount" validate:"gte=0"`
	PaymentMethod   string           `json:"payment_method" validate:"oneof=cash pix credit_card debit_card"`
	PaymentStatus   string           `json:"payment_status" validate:"omitempty,oneof=pending paid failed cancelled"`
	Notes           string           `json:"notes" validate:"max=1000"`
	Status          string           `json:"status" validate:"omitempty,oneof=pending processing delivered cancelled"`
}

// SanitizeOrder returns a cleaned copy of in: whitespace collapsed in names,
// markup and control characters stripped from free text.
func SanitizeOrder(in OrderInput) OrderInput {
	out := in
	out.CustomerName = collapse(in.CustomerName)
	out.CustomerPhone = strings.TrimSpace(in.CustomerPhone)
	out.CustomerAddress = stripMarkup(in.CustomerAddress)
	out.Notes = stripMarkup(in.Notes)
	out.PaymentMethod = strings.ToLower(strings.TrimSpace(in.PaymentMethod))
	out.PaymentStatus = strings.ToLower(strings.TrimSpace(in.PaymentStatus))
	out.Status = strings.ToLower(strings.TrimSpace(in.Status))

	out.Items = make([]OrderItemInput, len(in.Items))
	for i, item := range in.Items {
		item.Name = collapse(stripMarkup(item.Name))
		out.Items[i] = item
	}
	return out
}

// ValidateOrder sanitizes and checks an order payload. Absent payment and
// fulfillment statuses default to pending. The total is carried through as
// given; it is not recomputed from the items.
func ValidateOrder(in OrderInput) (models.NewOrder, error) {
	clean := SanitizeOrder(in)
	if err := check(clean); err != nil {
		return models.NewOrder{}, err
	}

	items := make(models.LineItems, len(clean.Items))
	for i, item := range clean.Items {
		items[i] = models.LineItem{
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price,
		}
	}

	order := models.NewOrder{
		CustomerName:    clean.CustomerName,
		CustomerPhone:   clean.CustomerPhone,
		CustomerAddress: clean.CustomerAddress,
		Items:           items,
		TotalAmount:     clean.TotalAmount,
		PaymentMethod:   models.PaymentMethod(clean.PaymentMethod),
		PaymentStatus:   models.PaymentStatusPending,
		Status:          models.OrderStatusPending,
	}
	if clean.PaymentStatus != "" {
		order.PaymentStatus = models.PaymentStatus(clean.PaymentStatus)
	}
	if clean.Status != "" {
		order.Status = models.OrderStatus(clean.Status)
	}
	if clean.Notes != "" {
		notes := clean.Notes
		order.Notes = &notes
	}
	return order, nil
}
