package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"freshmart/internal/domain"
	"freshmart/internal/repos"
)

type AddressService struct {
	Store *repos.Store
}

type AddressInput struct {
	Street    string `json:"street" validate:"required,max=200"`
	City      string `json:"city" validate:"required,max=100"`
	State     string `json:"state" validate:"required,max=50"`
	ZipCode   string `json:"zipCode" validate:"required,zip"`
	IsDefault bool   `json:"isDefault"`
}

// AddressPatch carries only the fields the client sent.
type AddressPatch struct {
	Street    *string `json:"street" validate:"omitempty,min=1,max=200"`
	City      *string `json:"city" validate:"omitempty,min=1,max=100"`
	State     *string `json:"state" validate:"omitempty,min=1,max=50"`
	ZipCode   *string `json:"zipCode" validate:"omitempty,zip"`
	IsDefault *bool   `json:"isDefault"`
}

func (p AddressPatch) empty() bool {
	return p.Street == nil && p.City == nil && p.State == nil && p.ZipCode == nil && p.IsDefault == nil
}

func (s *AddressService) List(ctx context.Context, userID string) ([]domain.Address, error) {
	return s.Store.Addresses.List(ctx, userID)
}

// Create stores a new address. The user's first address is always the default.
func (s *AddressService) Create(ctx context.Context, userID string, in AddressInput) (*domain.Address, error) {
	now := time.Now().UTC()
	a := &domain.Address{
		ID:        uuid.NewString(),
		UserID:    userID,
		Street:    strings.TrimSpace(in.Street),
		City:      strings.TrimSpace(in.City),
		State:     strings.TrimSpace(in.State),
		ZipCode:   strings.TrimSpace(in.ZipCode),
		IsDefault: in.IsDefault,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := s.Store.InTx(ctx, func(tx *repos.Tx) error {
		n, err := tx.Addresses.Count(ctx, userID)
		if err != nil {
			return err
		}
		if n == 0 {
			a.IsDefault = true
		}
		if a.IsDefault {
			if err := tx.Addresses.ClearDefault(ctx, userID); err != nil {
				return err
			}
		}
		return tx.Addresses.Create(ctx, a)
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *AddressService) Update(ctx context.Context, userID, id string, p AddressPatch) (*domain.Address, error) {
	if p.empty() {
		return nil, domain.Invalid("no fields provided for update")
	}
	var out *domain.Address
	err := s.Store.InTx(ctx, func(tx *repos.Tx) error {
		a, err := tx.Addresses.Get(ctx, userID, id)
		if err != nil {
			return err
		}
		if p.Street != nil {
			a.Street = strings.TrimSpace(*p.Street)
		}
		if p.City != nil {
			a.City = strings.TrimSpace(*p.City)
		}
		if p.State != nil {
			a.State = strings.TrimSpace(*p.State)
		}
		if p.ZipCode != nil {
			a.ZipCode = strings.TrimSpace(*p.ZipCode)
		}
		if p.IsDefault != nil {
			if *p.IsDefault && !a.IsDefault {
				if err := tx.Addresses.ClearDefault(ctx, userID); err != nil {
					return err
				}
			}
			a.IsDefault = *p.IsDefault
		}
		a.UpdatedAt = time.Now().UTC()
		if err := tx.Addresses.Update(ctx, a); err != nil {
			return err
		}
		out = a
		return nil
	})
	return out, err
}

func (s *AddressService) Delete(ctx context.Context, userID, id string) error {
	return s.Store.Addresses.Delete(ctx, userID, id)
}
