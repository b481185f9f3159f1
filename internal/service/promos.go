package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"delivery-service/internal/localcache"
	"delivery-service/internal/models"
	"delivery-service/internal/util"
	"delivery-service/internal/validation"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	// ErrPromoExpired is returned for a code past its expiry
	ErrPromoExpired = errors.New("promo code expired")
	// ErrPromoExists is returned when creating a duplicate code
	ErrPromoExists = errors.New("promo code already exists")
)

// Discount is the result of applying a promo code to a subtotal
type Discount struct {
	Code   string              `json:"code"`
	Kind   models.DiscountKind `json:"discount_type"`
	Value  decimal.Decimal     `json:"discount_value"`
	Amount decimal.Decimal     `json:"amount"`
}

// PromoService manages promo codes, which live only in the local cache. Every
// write goes through the cache's atomic list update so staff edits and
// redemptions never overwrite each other.
type PromoService struct {
	cache  localcache.Cache
	now    func() time.Time
	logger *zap.Logger
}

// NewPromoService creates a new promo service
func NewPromoService(cache localcache.Cache) *PromoService {
	return &PromoService{
		cache:  cache,
		now:    time.Now,
		logger: util.GetLogger(),
	}
}

// List returns every promo code
func (s *PromoService) List(ctx context.Context) []models.PromoCode {
	promos := []models.PromoCode{}
	if !localcache.LoadJSON(ctx, s.cache, localcache.KeyPromoCodes, &promos) {
		return []models.PromoCode{}
	}
	return promos
}

// Create adds a promo code with a zero use count
func (s *PromoService) Create(ctx context.Context, in validation.PromoCodeInput) (*models.PromoCode, error) {
	promo, err := validation.ValidatePromoCode(in)
	if err != nil {
		return nil, err
	}
	promo.CurrentUses = 0

	err = s.cache.UpdatePromoCodes(ctx, func(promos []models.PromoCode) ([]models.PromoCode, error) {
		if indexOfPromo(promos, promo.Code) >= 0 {
			return nil, fmt.Errorf("%w: %s", ErrPromoExists, promo.Code)
		}
		return append(promos, promo), nil
	})
	if err != nil {
		return nil, s.saveError(err)
	}
	s.logger.Info("Promo code created", zap.String("code", promo.Code))
	return &promo, nil
}

// Update replaces the code identified by code, keeping its use count as
// stored at write time. The code itself may be renamed.
func (s *PromoService) Update(ctx context.Context, code string, in validation.PromoCodeInput) (*models.PromoCode, error) {
	promo, err := validation.ValidatePromoCode(in)
	if err != nil {
		return nil, err
	}

	err = s.cache.UpdatePromoCodes(ctx, func(promos []models.PromoCode) ([]models.PromoCode, error) {
		i := indexOfPromo(promos, code)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", localcache.ErrPromoNotFound, models.NormalizePromoCode(code))
		}
		if j := indexOfPromo(promos, promo.Code); j >= 0 && j != i {
			return nil, fmt.Errorf("%w: %s", ErrPromoExists, promo.Code)
		}
		promo.CurrentUses = promos[i].CurrentUses
		promos[i] = promo
		return promos, nil
	})
	if err != nil {
		return nil, s.saveError(err)
	}
	return &promo, nil
}

// Delete removes a promo code
func (s *PromoService) Delete(ctx context.Context, code string) error {
	err := s.cache.UpdatePromoCodes(ctx, func(promos []models.PromoCode) ([]models.PromoCode, error) {
		i := indexOfPromo(promos, code)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", localcache.ErrPromoNotFound, models.NormalizePromoCode(code))
		}
		return append(promos[:i], promos[i+1:]...), nil
	})
	return s.saveError(err)
}

// Validate checks that code can be used now and computes its discount on
// subtotal. Percentage discounts round to cents; fixed discounts never exceed
// the subtotal.
func (s *PromoService) Validate(ctx context.Context, code string, subtotal decimal.Decimal) (*Discount, error) {
	promo, err := s.usable(ctx, code)
	if err != nil {
		return nil, err
	}

	var amount decimal.Decimal
	switch promo.DiscountKind {
	case models.DiscountPercentage:
		amount = subtotal.Mul(promo.DiscountValue).Div(decimal.NewFromInt(100)).Round(2)
	default:
		amount = decimal.Min(promo.DiscountValue, subtotal)
	}

	return &Discount{
		Code:   promo.Code,
		Kind:   promo.DiscountKind,
		Value:  promo.DiscountValue,
		Amount: amount,
	}, nil
}

// Redeem consumes one use of code. The counter is incremented atomically in
// the cache, so concurrent redemptions cannot exceed max uses.
func (s *PromoService) Redeem(ctx context.Context, code string) (int, error) {
	if _, err := s.usable(ctx, code); err != nil {
		util.PromoRedemptionsTotal.WithLabelValues(redemptionResult(err)).Inc()
		return 0, err
	}

	uses, err := s.cache.IncrementPromoUses(ctx, models.NormalizePromoCode(code))
	if err != nil {
		util.PromoRedemptionsTotal.WithLabelValues(redemptionResult(err)).Inc()
		return 0, err
	}
	util.PromoRedemptionsTotal.WithLabelValues("ok").Inc()
	s.logger.Info("Promo code redeemed",
		zap.String("code", models.NormalizePromoCode(code)), zap.Int("uses", uses))
	return uses, nil
}

func (s *PromoService) usable(ctx context.Context, code string) (*models.PromoCode, error) {
	normalized := models.NormalizePromoCode(code)
	promos := s.List(ctx)
	i := indexOfPromo(promos, normalized)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", localcache.ErrPromoNotFound, normalized)
	}
	promo := promos[i]
	switch {
	case !promo.Active:
		return nil, fmt.Errorf("%w: %s", localcache.ErrPromoInactive, normalized)
	case promo.Expired(s.now()):
		return nil, fmt.Errorf("%w: %s", ErrPromoExpired, normalized)
	case promo.Exhausted():
		return nil, fmt.Errorf("%w: %s", localcache.ErrPromoExhausted, normalized)
	}
	return &promo, nil
}

// saveError wraps cache failures; domain errors from the update pass through
func (s *PromoService) saveError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrPromoExists), errors.Is(err, localcache.ErrPromoNotFound):
		return err
	}
	return fmt.Errorf("failed to save promo codes: %w", err)
}

func indexOfPromo(promos []models.PromoCode, code string) int {
	code = models.NormalizePromoCode(code)
	for i := range promos {
		if models.NormalizePromoCode(promos[i].Code) == code {
			return i
		}
	}
	return -1
}

func redemptionResult(err error) string {
	switch {
	case errors.Is(err, localcache.ErrPromoNotFound):
		return "not_found"
	case errors.Is(err, localcache.ErrPromoInactive):
		return "inactive"
	case errors.Is(err, ErrPromoExpired):
		return "expired"
	case errors.Is(err, localcache.ErrPromoExhausted):
		return "exhausted"
	}
	return "error"
}
