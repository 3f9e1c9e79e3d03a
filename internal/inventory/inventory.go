// Package inventory applies guarded stock mutations for shop and warehouse
// pools. Every decrement is a conditional UPDATE so concurrent settlements
// can never drive a quantity below zero.
package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgdb "github.com/kevmwangi/shoplink-backend/pkg/db"
	"github.com/kevmwangi/shoplink-backend/pkg/enums"
	pkgerrors "github.com/kevmwangi/shoplink-backend/pkg/errors"
)

// Ref identifies one stock pool row.
type Ref struct {
	Kind enums.InventoryKind
	ID   uuid.UUID
}

// ShortageDetail describes a failed decrement for error payloads.
type ShortageDetail struct {
	ListingID uuid.UUID `json:"listing_id"`
	Requested int       `json:"requested"`
}

// statementError classifies a failed statement. Statement and lock-wait
// timeouts mean another settlement holds the row; callers may retry, so
// they map to CONFLICT rather than a dependency failure.
func statementError(err error, msg string) error {
	if pkgdb.IsLockTimeout(err) {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, msg)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}

func tableFor(kind enums.InventoryKind) (string, error) {
	switch kind {
	case enums.InventoryKindShop:
		return "shop_inventories", nil
	case enums.InventoryKindWarehouse:
		return "warehouse_inventories", nil
	default:
		return "", pkgerrors.New(pkgerrors.CodeValidation, "unknown inventory kind")
	}
}

// Decrement subtracts qty from the referenced pool. The WHERE clause guards
// the floor; zero rows affected means another transaction drained the stock
// first and the caller gets INSUFFICIENT_STOCK.
func Decrement(ctx context.Context, tx *gorm.DB, ref Ref, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for inventory decrement")
	}
	table, err := tableFor(ref.Kind)
	if err != nil {
		return err
	}

	res := tx.WithContext(ctx).Exec(`
		UPDATE `+table+`
		SET stock_quantity = stock_quantity - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND stock_quantity >= ?
	`, qty, ref.ID, qty)
	if res.Error != nil {
		return statementError(res.Error, "decrement inventory")
	}
	if res.RowsAffected == 0 {
		// Zero rows is ambiguous: the guard lost, or the row never existed.
		var count int64
		if err := tx.WithContext(ctx).Table(table).Where("id = ?", ref.ID).Count(&count).Error; err != nil {
			return statementError(err, "check inventory row")
		}
		if count == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "inventory row not found")
		}
		return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
			WithDetails(ShortageDetail{ListingID: ref.ID, Requested: qty})
	}
	return nil
}

// Increment returns qty to the referenced pool. Used by cancellation and
// returns; it never fails on quantity since stock only grows.
func Increment(ctx context.Context, tx *gorm.DB, ref Ref, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for inventory increment")
	}
	table, err := tableFor(ref.Kind)
	if err != nil {
		return err
	}

	res := tx.WithContext(ctx).Exec(`
		UPDATE `+table+`
		SET stock_quantity = stock_quantity + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, qty, ref.ID)
	if res.Error != nil {
		return statementError(res.Error, "increment inventory")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "inventory row not found")
	}
	return nil
}
