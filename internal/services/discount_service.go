package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"freshmart/internal/domain"
	"freshmart/internal/repos"
	"freshmart/internal/validate"
)

type DiscountService struct {
	Store *repos.Store
	Now   func() time.Time
}

func NewDiscountService(store *repos.Store) *DiscountService {
	return &DiscountService{Store: store, Now: time.Now}
}

// resolveDiscount returns the code when it exists and has not expired, nil otherwise.
func resolveDiscount(ctx context.Context, r *repos.DiscountRepo, code string, now time.Time) (*domain.DiscountCode, error) {
	if strings.TrimSpace(code) == "" {
		return nil, nil
	}
	d, err := r.Get(ctx, code)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !d.Valid(now) {
		return nil, nil
	}
	return d, nil
}

type DiscountCheck struct {
	Valid  bool             `json:"valid"`
	Code   string           `json:"code,omitempty"`
	Amount *decimal.Decimal `json:"amount,omitempty"`
}

// Validate reports whether code can be redeemed now. Amount is the percentage.
func (s *DiscountService) Validate(ctx context.Context, code string) (*DiscountCheck, error) {
	if strings.TrimSpace(code) == "" {
		return nil, domain.Invalid("discount code is required")
	}
	code, ok := validate.Code(code)
	if !ok {
		return nil, domain.Invalid("discount code may only contain letters, digits, '-' and '_'")
	}
	d, err := resolveDiscount(ctx, s.Store.Discounts, code, s.Now())
	if err != nil {
		return nil, err
	}
	if d == nil {
		return &DiscountCheck{Valid: false}, nil
	}
	pct := d.Percentage
	return &DiscountCheck{Valid: true, Code: d.Code, Amount: &pct}, nil
}
