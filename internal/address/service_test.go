package address

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	pkgerrors "github.com/kevmwangi/shoplink-backend/pkg/errors"
)

func newAddressDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:address_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS addresses (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  recipient TEXT NOT NULL,
  line1 TEXT NOT NULL,
  line2 TEXT,
  city TEXT NOT NULL,
  state TEXT NOT NULL,
  postal_code TEXT NOT NULL,
  country TEXT NOT NULL,
  phone TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(ddl).Error)
	return db
}

func validParams() CreateParams {
	return CreateParams{
		Recipient:  "Wanjiku Kamau",
		Line1:      "14 Riverside Drive",
		City:       "Nairobi",
		State:      "Nairobi County",
		PostalCode: "00100",
		Country:    "KE",
	}
}

func TestCreateAndList(t *testing.T) {
	db := newAddressDB(t)
	svc, err := NewService(db)
	require.NoError(t, err)
	ctx := context.Background()

	userID := uuid.New()
	created, err := svc.Create(ctx, userID, validParams())
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID)

	rows, err := svc.List(ctx, userID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "Wanjiku Kamau", rows[0].Recipient)

	params := validParams()
	params.City = " "
	_, err = svc.Create(ctx, userID, params)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestDelete(t *testing.T) {
	db := newAddressDB(t)
	svc, err := NewService(db)
	require.NoError(t, err)
	ctx := context.Background()

	userID := uuid.New()
	created, err := svc.Create(ctx, userID, validParams())
	require.NoError(t, err)

	// Another user cannot delete it.
	err = svc.Delete(ctx, uuid.New(), created.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	require.NoError(t, svc.Delete(ctx, userID, created.ID))

	rows, err := svc.List(ctx, userID)
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestIsOwnedAddress(t *testing.T) {
	db := newAddressDB(t)
	svc, err := NewService(db)
	require.NoError(t, err)
	ctx := context.Background()

	userID := uuid.New()
	created, err := svc.Create(ctx, userID, validParams())
	require.NoError(t, err)

	owned, err := svc.IsOwnedAddress(ctx, userID, created.ID)
	require.NoError(t, err)
	require.True(t, owned)

	owned, err = svc.IsOwnedAddress(ctx, uuid.New(), created.ID)
	require.NoError(t, err)
	require.False(t, owned)

	owned, err = svc.IsOwnedAddress(ctx, userID, uuid.New())
	require.NoError(t, err)
	require.False(t, owned)
}
