package services

import (
	"context"

	"freshmart/internal/domain"
	"freshmart/internal/pricing"
	"freshmart/internal/repos"
)

type CartService struct {
	Store    *repos.Store
	Products ProductReader
}

func NewCartService(store *repos.Store, products ProductReader) *CartService {
	if products == nil {
		products = store.Products
	}
	return &CartService{Store: store, Products: products}
}

type CartView struct {
	UserID  string            `json:"userId"`
	Items   []domain.CartItem `json:"items"`
	Summary pricing.Summary   `json:"summary"`
}

func cartLines(items []domain.CartItem) []pricing.Line {
	lines := make([]pricing.Line, 0, len(items))
	for _, it := range items {
		lines = append(lines, pricing.Line{UnitPrice: it.Product.Price, Quantity: it.Quantity})
	}
	return lines
}

func (s *CartService) view(ctx context.Context, r repos.Repos, userID string) (*CartView, error) {
	items, err := r.Carts.Items(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &CartView{UserID: userID, Items: items, Summary: pricing.Calculate(cartLines(items), nil)}, nil
}

// Get returns the cart; a user without one gets an empty cart.
func (s *CartService) Get(ctx context.Context, userID string) (*CartView, error) {
	return s.view(ctx, s.Store.Repos, userID)
}

func (s *CartService) Item(ctx context.Context, userID, itemID string) (*domain.CartItem, error) {
	return s.Store.Carts.Item(ctx, userID, itemID)
}

// Add puts quantity of a product in the cart, merging with an existing line.
func (s *CartService) Add(ctx context.Context, userID, productID string, qty int) (*CartView, error) {
	if qty <= 0 {
		return nil, domain.Invalid("quantity must be a positive integer")
	}
	if _, err := s.Products.Get(ctx, productID); err != nil {
		return nil, err
	}

	var out *CartView
	err := s.Store.InTx(ctx, func(tx *repos.Tx) error {
		cartID, err := tx.Carts.EnsureCart(ctx, userID)
		if err != nil {
			return err
		}
		if _, err := tx.Carts.UpsertItem(ctx, cartID, productID, qty); err != nil {
			return err
		}
		out, err = s.view(ctx, tx.Repos, userID)
		return err
	})
	return out, err
}

// UpdateQuantity sets a line's quantity; zero or less removes the line.
func (s *CartService) UpdateQuantity(ctx context.Context, userID, itemID string, qty int) (*CartView, error) {
	var out *CartView
	err := s.Store.InTx(ctx, func(tx *repos.Tx) error {
		if _, err := tx.Carts.Item(ctx, userID, itemID); err != nil {
			return err
		}
		if qty <= 0 {
			if _, err := tx.Carts.DeleteItem(ctx, userID, itemID); err != nil {
				return err
			}
		} else if err := tx.Carts.SetQuantity(ctx, userID, itemID, qty); err != nil {
			return err
		}
		var err error
		out, err = s.view(ctx, tx.Repos, userID)
		return err
	})
	return out, err
}

// Remove deletes a line; removing a line that is already gone is not an error.
func (s *CartService) Remove(ctx context.Context, userID, itemID string) error {
	_, err := s.Store.Carts.DeleteItem(ctx, userID, itemID)
	return err
}

func (s *CartService) Clear(ctx context.Context, userID string) error {
	_, err := s.Store.Carts.Clear(ctx, userID)
	return err
}
