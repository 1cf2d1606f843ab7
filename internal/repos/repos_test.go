package repos_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freshmart/internal/domain"
	"freshmart/internal/repos"
)

var shopperID = repos.UserID("shopper@freshmart.test")

func openStore(t *testing.T) *repos.Store {
	t.Helper()
	s, err := repos.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenSeedsCatalog(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	p, err := s.Products.Get(ctx, repos.ProductID("Organic Apples"))
	require.NoError(t, err)
	assert.Equal(t, "Organic Apples", p.Name)
	assert.Equal(t, "3.99", p.Price.StringFixed(2))
	assert.True(t, p.InStock)

	eggs, err := s.Products.Get(ctx, repos.ProductID("Cage-Free Eggs (Dozen)"))
	require.NoError(t, err)
	assert.False(t, eggs.InStock)

	_, err = s.Products.Get(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProductListSearchAndSort(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	got, total, err := s.Products.List(ctx, repos.ProductFilter{Search: "ORGANIC", SortBy: "price", Desc: true})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, got, 2)
	assert.Equal(t, "Organic Apples", got[0].Name)
	assert.Equal(t, "Organic Spinach", got[1].Name)

	page, total, err := s.Products.List(ctx, repos.ProductFilter{SortBy: "name", Page: 2, PageSize: 3})
	require.NoError(t, err)
	assert.Equal(t, 10, total)
	require.Len(t, page, 3)
	assert.Equal(t, "Cage-Free Eggs (Dozen)", page[0].Name)

	dairy, _, err := s.Products.List(ctx, repos.ProductFilter{Category: "dairy"})
	require.NoError(t, err)
	assert.Len(t, dairy, 3)
}

func TestCartUpsertIncrementsQuantity(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	apples := repos.ProductID("Organic Apples")

	cartID, err := s.Carts.EnsureCart(ctx, shopperID)
	require.NoError(t, err)
	again, err := s.Carts.EnsureCart(ctx, shopperID)
	require.NoError(t, err)
	assert.Equal(t, cartID, again)

	first, err := s.Carts.UpsertItem(ctx, cartID, apples, 2)
	require.NoError(t, err)
	second, err := s.Carts.UpsertItem(ctx, cartID, apples, 3)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	items, err := s.Carts.Items(ctx, shopperID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Quantity)
	assert.Equal(t, "Organic Apples", items[0].Product.Name)
}

func TestCartItemScopedToOwner(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	adminID := repos.UserID("admin@freshmart.test")

	cartID, err := s.Carts.EnsureCart(ctx, shopperID)
	require.NoError(t, err)
	itemID, err := s.Carts.UpsertItem(ctx, cartID, repos.ProductID("Artisan Bread"), 1)
	require.NoError(t, err)

	_, err = s.Carts.Item(ctx, adminID, itemID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, s.Carts.SetQuantity(ctx, adminID, itemID, 4), domain.ErrNotFound)

	removed, err := s.Carts.DeleteItem(ctx, adminID, itemID)
	require.NoError(t, err)
	assert.False(t, removed)

	n, err := s.Carts.Clear(ctx, shopperID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	_, err = s.Carts.CartID(ctx, shopperID)
	require.NoError(t, err)
}

func TestAddressSingleDefaultEnforced(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	mk := func(isDefault bool) *domain.Address {
		return &domain.Address{
			ID: uuid.NewString(), UserID: shopperID, Street: "1 Main St", City: "Austin",
			State: "TX", ZipCode: "78701", IsDefault: isDefault, CreatedAt: now, UpdatedAt: now,
		}
	}
	require.NoError(t, s.Addresses.Create(ctx, mk(true)))
	require.Error(t, s.Addresses.Create(ctx, mk(true)))
	require.NoError(t, s.Addresses.Create(ctx, mk(false)))

	list, err := s.Addresses.List(ctx, shopperID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.True(t, list[0].IsDefault)
}

func TestInTxRollsBack(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.InTx(ctx, func(tx *repos.Tx) error {
		cartID, err := tx.Carts.EnsureCart(ctx, shopperID)
		if err != nil {
			return err
		}
		if _, err := tx.Carts.UpsertItem(ctx, cartID, repos.ProductID("Avocado (Each)"), 1); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.Carts.CartID(ctx, shopperID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDiscountLookupIsCaseInsensitive(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	d, err := s.Discounts.Get(ctx, " save10 ")
	require.NoError(t, err)
	assert.Equal(t, "SAVE10", d.Code)
	assert.True(t, d.Valid(time.Now()))

	expired, err := s.Discounts.Get(ctx, "spring5")
	require.NoError(t, err)
	assert.False(t, expired.Valid(time.Now()))

	_, err = s.Discounts.Get(ctx, "NOPE")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserEmailUnique(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	err := s.Users.Create(ctx, &domain.User{ID: uuid.NewString(), Email: "SHOPPER@freshmart.test", Hash: "x", Role: domain.RoleUser})
	assert.ErrorIs(t, err, domain.ErrConflict)

	u, err := s.Users.ByEmail(ctx, "Shopper@FreshMart.test")
	require.NoError(t, err)
	assert.Equal(t, shopperID, u.ID)
}

func TestSessionRevoke(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	id := uuid.NewString()

	require.NoError(t, s.Sessions.Create(ctx, id, shopperID, time.Now().Add(time.Hour)))
	sess, err := s.Sessions.Get(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, sess.RevokedAt)

	require.NoError(t, s.Sessions.Revoke(ctx, id))
	sess, err = s.Sessions.Get(ctx, id)
	require.NoError(t, err)
	assert.NotNil(t, sess.RevokedAt)
}

func TestOutboxLifecycle(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	require.NoError(t, s.Outbox.Add(ctx, &repos.OutboxEvent{
		AggregateType: "order", AggregateID: "o-1", EventType: "order.placed",
		Topic: "orders", Payload: []byte(`{"orderId":"o-1"}`),
	}))
	evs, err := s.Outbox.Unpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.JSONEq(t, `{"orderId":"o-1"}`, string(evs[0].Payload))

	require.NoError(t, s.Outbox.MarkFailed(ctx, evs[0].ID, "broker down"))
	evs, err = s.Outbox.Unpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.Equal(t, 1, evs[0].Attempts)

	require.NoError(t, s.Outbox.MarkPublished(ctx, evs[0].ID))
	evs, err = s.Outbox.Unpublished(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, evs)
}

func TestCategoriesDerivedFromProducts(t *testing.T) {
	s := openStore(t)

	cats, err := s.Categories.List(context.Background())
	require.NoError(t, err)
	require.Len(t, cats, 5)
	assert.Equal(t, domain.Category{Name: "Bakery", ProductCount: 1, InStockCount: 1}, cats[0])
	assert.Equal(t, domain.Category{Name: "Dairy", ProductCount: 3, InStockCount: 2}, cats[1])
	assert.Equal(t, "Produce", cats[3].Name)
	assert.Equal(t, 4, cats[3].ProductCount)
}
