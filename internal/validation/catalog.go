package validation

import (
	"time"

	"delivery-service/internal/models"

	"github.com/shopspring/decimal"
)

// ProductInput is a raw product create/update payload
type ProductInput struct {
	Name        string          `json:"name" validate:"min=2,max=100"`
	Description string          `json:"description" validate:"max=1000"`
	Price       decimal.Decimal `json:"price" validate:"gte=0,lte=99999.99"`
	Category    string          `json:"category" validate:"max=100"`
	Image       string          `json:"image" validate:"omitempty,max=2048"`
	Available   *bool           `json:"available"`
}

// ValidateProduct sanitizes and checks a product payload. Products are
// available unless the payload says otherwise.
func ValidateProduct(in ProductInput) (models.Product, error) {
	in.Name = collapse(stripMarkup(in.Name))
	in.Description = stripMarkup(in.Description)
	in.Category = collapse(stripMarkup(in.Category))
	if err := check(in); err != nil {
		return models.Product{}, err
	}

	available := true
	if in.Available != nil {
		available = *in.Available
	}
	return models.Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Category:    in.Category,
		Image:       models.ImageRef{Kind: models.ImageRaw, Location: in.Image},
		Available:   available,
	}, nil
}

// PromoCodeInput is a raw promo code create/update payload
type PromoCodeInput struct {
	Code          string          `json:"code" validate:"min=3,max=20,promocode"`
	DiscountValue decimal.Decimal `json:"discount_value" validate:"gt=0"`
	DiscountKind  string          `json:"discount_type" validate:"oneof=percentage fixed"`
	ExpiresAt     *time.Time      `json:"expires_at"`
	MaxUses       int             `json:"max_uses" validate:"gte=0"`
	Active        *bool           `json:"active"`
}

// ValidatePromoCode sanitizes and checks a promo code. Percentage discounts
// must lie in [1, 100].
func ValidatePromoCode(in PromoCodeInput) (models.PromoCode, error) {
	in.Code = models.NormalizePromoCode(in.Code)
	if err := check(in); err != nil {
		return models.PromoCode{}, err
	}
	if models.DiscountKind(in.DiscountKind) == models.DiscountPercentage &&
		(in.DiscountValue.LessThan(decimal.NewFromInt(1)) || in.DiscountValue.GreaterThan(decimal.NewFromInt(100))) {
		return models.PromoCode{}, &Error{Messages: []string{"discount_value: percentage must be between 1 and 100"}}
	}

	active := true
	if in.Active != nil {
		active = *in.Active
	}
	return models.PromoCode{
		Code:          in.Code,
		DiscountValue: in.DiscountValue,
		DiscountKind:  models.DiscountKind(in.DiscountKind),
		ExpiresAt:     in.ExpiresAt,
		MaxUses:       in.MaxUses,
		Active:        active,
	}, nil
}
