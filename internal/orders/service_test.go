package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/kevmwangi/shoplink-backend/internal/listings"
	"github.com/kevmwangi/shoplink-backend/pkg/db/models"
	pkgerrors "github.com/kevmwangi/shoplink-backend/pkg/errors"
	"github.com/kevmwangi/shoplink-backend/pkg/pagination"
)

func newServiceTestEnv(t *testing.T) (*Service, Repository, *models.Shop) {
	t.Helper()
	db := newTestDB(t)
	sellers := `
CREATE TABLE IF NOT EXISTS shops (
  id TEXT PRIMARY KEY,
  owner_user_id TEXT NOT NULL,
  name TEXT NOT NULL,
  description TEXT,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS warehouses (
  id TEXT PRIMARY KEY,
  owner_user_id TEXT NOT NULL,
  name TEXT NOT NULL,
  location TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(sellers).Error)

	shop := &models.Shop{ID: uuid.New(), OwnerUserID: uuid.New(), Name: "Corner Minimart"}
	require.NoError(t, db.Create(shop).Error)

	repo := NewRepository(db)
	svc, err := NewService(repo, listings.NewRepository(db))
	require.NoError(t, err)
	return svc, repo, shop
}

func TestGetOrderVisibility(t *testing.T) {
	svc, repo, shop := newServiceTestEnv(t)
	ctx := context.Background()

	buyerID := uuid.New()
	order := seedOrder(t, repo, buyerID, shop.ID, time.Now().UTC())

	// Buyer and owning seller can read it.
	found, err := svc.GetOrder(ctx, buyerID, order.ID)
	require.NoError(t, err)
	require.Equal(t, order.ID, found.ID)

	_, err = svc.GetOrder(ctx, shop.OwnerUserID, order.ID)
	require.NoError(t, err)

	// A stranger cannot.
	_, err = svc.GetOrder(ctx, uuid.New(), order.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = svc.GetOrder(ctx, buyerID, uuid.New())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestListSellerOrdersOwnership(t *testing.T) {
	svc, repo, shop := newServiceTestEnv(t)
	ctx := context.Background()

	seedOrder(t, repo, uuid.New(), shop.ID, time.Now().UTC())
	ref := SellerRef{ShopID: &shop.ID}

	list, err := svc.ListSellerOrders(ctx, shop.OwnerUserID, ref, pagination.Params{}, SellerOrderFilters{})
	require.NoError(t, err)
	require.Len(t, list.Orders, 1)

	_, err = svc.ListSellerOrders(ctx, uuid.New(), ref, pagination.Params{}, SellerOrderFilters{})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = svc.ListSellerOrders(ctx, shop.OwnerUserID, SellerRef{}, pagination.Params{}, SellerOrderFilters{})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
