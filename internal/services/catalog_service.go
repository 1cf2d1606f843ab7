package services

import (
	"context"

	"freshmart/internal/domain"
	"freshmart/internal/repos"
)

// ProductReader is the single-product lookup used by the catalog and the cart.
type ProductReader interface {
	Get(ctx context.Context, id string) (*domain.Product, error)
}

type CatalogService struct {
	Store    *repos.Store
	Products ProductReader
}

// NewCatalogService reads products through products when given, else straight from the store.
func NewCatalogService(store *repos.Store, products ProductReader) *CatalogService {
	if products == nil {
		products = store.Products
	}
	return &CatalogService{Store: store, Products: products}
}

type ProductPage struct {
	Products []domain.Product `json:"products"`
	Total    int              `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"pageSize"`
}

func (s *CatalogService) List(ctx context.Context, f repos.ProductFilter) (*ProductPage, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize <= 0 || f.PageSize > 100 {
		f.PageSize = 20
	}
	items, total, err := s.Store.Products.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return &ProductPage{Products: items, Total: total, Page: f.Page, PageSize: f.PageSize}, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return s.Products.Get(ctx, id)
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.Store.Categories.List(ctx)
}
