package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"freshmart/internal/repos"
	"freshmart/internal/services"
)

var (
	shopperID = repos.UserID("shopper@freshmart.test")
	adminID   = repos.UserID("admin@freshmart.test")

	apples = repos.ProductID("Organic Apples")
	bread  = repos.ProductID("Artisan Bread")
	eggs   = repos.ProductID("Cage-Free Eggs (Dozen)")
)

func openStore(t *testing.T) *repos.Store {
	t.Helper()
	s, err := repos.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func fillCart(t *testing.T, s *repos.Store, userID string) {
	t.Helper()
	carts := services.NewCartService(s, nil)
	ctx := context.Background()
	_, err := carts.Add(ctx, userID, apples, 2)
	require.NoError(t, err)
	_, err = carts.Add(ctx, userID, bread, 1)
	require.NoError(t, err)
}

func outboxTypes(t *testing.T, s *repos.Store) []string {
	t.Helper()
	evs, err := s.Outbox.Unpublished(context.Background(), 100)
	require.NoError(t, err)
	out := make([]string, 0, len(evs))
	for _, ev := range evs {
		out = append(out, ev.EventType)
	}
	return out
}
