package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/kevmwangi/shoplink-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID      uuid.UUID
	Role        enums.UserRole
	ShopID      *uuid.UUID
	WarehouseID *uuid.UUID
	JTI         string
}

// AccessTokenClaims represents the typed JWT issued to clients. Retailers
// carry their shop id and wholesalers their warehouse id so handlers can
// scope queries without a lookup.
type AccessTokenClaims struct {
	UserID      uuid.UUID      `json:"user_id"`
	Role        enums.UserRole `json:"role"`
	ShopID      *uuid.UUID     `json:"shop_id,omitempty"`
	WarehouseID *uuid.UUID     `json:"warehouse_id,omitempty"`
	jwt.RegisteredClaims
}
