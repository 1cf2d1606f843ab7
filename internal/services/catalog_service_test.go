package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freshmart/internal/domain"
	"freshmart/internal/repos"
	"freshmart/internal/services"
)

func TestCatalogListAndGet(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	svc := services.NewCatalogService(s, nil)

	page, err := svc.List(ctx, repos.ProductFilter{Category: "Dairy", SortBy: "price"})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 20, page.PageSize)
	require.Len(t, page.Products, 3)
	assert.Equal(t, "Whole Milk (Gallon)", page.Products[0].Name)

	_, err = svc.GetProduct(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCachedProductsFallsThroughWhenRedisIsDown(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })

	cached := services.NewCachedProducts(s.Products, rdb)
	p, err := cached.Get(ctx, apples)
	require.NoError(t, err)
	assert.Equal(t, "Organic Apples", p.Name)

	_, err = cached.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// the cart reads through the same cache
	carts := services.NewCartService(s, cached)
	view, err := carts.Add(ctx, shopperID, apples, 1)
	require.NoError(t, err)
	assert.Len(t, view.Items, 1)
}

func TestCartQuantityUpdates(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	carts := services.NewCartService(s, nil)

	_, err := carts.Add(ctx, shopperID, apples, 0)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = carts.Add(ctx, shopperID, "missing", 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	view, err := carts.Add(ctx, shopperID, apples, 2)
	require.NoError(t, err)
	view, err = carts.Add(ctx, shopperID, apples, 1)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 3, view.Items[0].Quantity)
	assert.Equal(t, "11.97", view.Summary.Subtotal.StringFixed(2))

	itemID := view.Items[0].ID
	_, err = carts.UpdateQuantity(ctx, adminID, itemID, 5)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	view, err = carts.UpdateQuantity(ctx, shopperID, itemID, 0)
	require.NoError(t, err)
	assert.Empty(t, view.Items)

	require.NoError(t, carts.Remove(ctx, shopperID, itemID))
}

func TestDiscountValidate(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	svc := services.NewDiscountService(s)

	_, err := svc.Validate(ctx, " ")
	assert.ErrorIs(t, err, domain.ErrValidation)

	res, err := svc.Validate(ctx, "fresh20")
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, "FRESH20", res.Code)
	require.NotNil(t, res.Amount)
	assert.True(t, res.Amount.Equal(decimal.NewFromInt(20)))

	for _, code := range []string{"SPRING5", "NOPE"} {
		res, err := svc.Validate(ctx, code)
		require.NoError(t, err)
		assert.False(t, res.Valid, code)
	}
}

func TestAddressDefaults(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	svc := &services.AddressService{Store: s}
	in := services.AddressInput{Street: "1 Main St", City: "Austin", State: "TX", ZipCode: "73301"}

	first, err := svc.Create(ctx, shopperID, in)
	require.NoError(t, err)
	assert.True(t, first.IsDefault)

	in.Street = "2 Elm St"
	in.IsDefault = true
	second, err := svc.Create(ctx, shopperID, in)
	require.NoError(t, err)

	list, err := svc.List(ctx, shopperID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.False(t, list[1].IsDefault)

	_, err = svc.Update(ctx, shopperID, first.ID, services.AddressPatch{})
	assert.ErrorIs(t, err, domain.ErrValidation)

	city := "Dallas"
	_, err = svc.Update(ctx, adminID, first.ID, services.AddressPatch{City: &city})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	yes := true
	got, err := svc.Update(ctx, shopperID, first.ID, services.AddressPatch{City: &city, IsDefault: &yes})
	require.NoError(t, err)
	assert.Equal(t, "Dallas", got.City)
	assert.True(t, got.IsDefault)

	require.NoError(t, svc.Delete(ctx, shopperID, second.ID))
	assert.ErrorIs(t, svc.Delete(ctx, shopperID, second.ID), domain.ErrNotFound)
}
