package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/kevmwangi/shoplink-backend/pkg/enums"
)

type contextKey string

const (
	ctxUserID      contextKey = "user_id"
	ctxRole        contextKey = "actor_role"
	ctxShopID      contextKey = "shop_id"
	ctxWarehouseID contextKey = "warehouse_id"
)

// ActorFromContext returns the authenticated user id and role, or uuid.Nil
// when the request carried no valid claims.
func ActorFromContext(ctx context.Context) (uuid.UUID, enums.UserRole) {
	if ctx == nil {
		return uuid.Nil, ""
	}
	id, _ := ctx.Value(ctxUserID).(uuid.UUID)
	role, _ := ctx.Value(ctxRole).(enums.UserRole)
	return id, role
}

func ShopIDFromContext(ctx context.Context) *uuid.UUID {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxShopID).(uuid.UUID); ok {
		return &v
	}
	return nil
}

func WarehouseIDFromContext(ctx context.Context) *uuid.UUID {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxWarehouseID).(uuid.UUID); ok {
		return &v
	}
	return nil
}

// WithActor seeds the context the way Auth does; test helpers use it to
// exercise handlers without minting tokens.
func WithActor(ctx context.Context, userID uuid.UUID, role enums.UserRole) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxUserID, userID)
	return context.WithValue(ctx, ctxRole, role)
}

func WithShopID(ctx context.Context, shopID uuid.UUID) context.Context {
	return context.WithValue(ctx, ctxShopID, shopID)
}

func WithWarehouseID(ctx context.Context, warehouseID uuid.UUID) context.Context {
	return context.WithValue(ctx, ctxWarehouseID, warehouseID)
}
