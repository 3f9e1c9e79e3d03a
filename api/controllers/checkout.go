package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kevmwangi/shoplink-backend/api/middleware"
	"github.com/kevmwangi/shoplink-backend/api/responses"
	"github.com/kevmwangi/shoplink-backend/api/validators"
	"github.com/kevmwangi/shoplink-backend/internal/settlement"
	"github.com/kevmwangi/shoplink-backend/pkg/enums"
	pkgerrors "github.com/kevmwangi/shoplink-backend/pkg/errors"
	"github.com/kevmwangi/shoplink-backend/pkg/logger"
)

type checkoutRequest struct {
	DeliveryAddressID uuid.UUID `json:"delivery_address_id" validate:"required"`
	PaymentMethod     string    `json:"payment_method" validate:"required"`
	PaymentReference  string    `json:"payment_reference"`
}

type wholesaleOrderRequest struct {
	ShopID               uuid.UUID `json:"shop_id" validate:"required"`
	WarehouseInventoryID uuid.UUID `json:"warehouse_inventory_id" validate:"required"`
	Quantity             int       `json:"quantity" validate:"required,min=1"`
	Proxy                bool      `json:"proxy"`
	SellingPrice         string    `json:"selling_price"`
	PaymentMethod        string    `json:"payment_method" validate:"required"`
	PaymentReference     string    `json:"payment_reference"`
}

type settlementResponse struct {
	OrderIDs    []uuid.UUID `json:"order_ids"`
	TotalAmount string      `json:"total_amount"`
}

// Checkout settles the customer's cart into per-shop orders.
func Checkout(svc *settlement.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.ActorFromContext(r.Context())

		var req checkoutRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method := enums.PaymentMethod(req.PaymentMethod)
		result, err := svc.SettleCart(r.Context(), userID, settlement.SettleCartParams{
			DeliveryAddressID: req.DeliveryAddressID,
			PaymentMethod:     method,
			PaymentReference:  req.PaymentReference,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, settlementResponse{
			OrderIDs:    result.OrderIDs,
			TotalAmount: result.TotalAmount.StringFixed(2),
		})
	}
}

// PlaceWholesaleOrder lets a retailer buy bulk stock from a warehouse
// listing, optionally landing it in their shop as a proxy listing.
func PlaceWholesaleOrder(svc *settlement.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.ActorFromContext(r.Context())

		var req wholesaleOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sellingPrice := decimal.Zero
		if req.Proxy {
			parsed, err := decimal.NewFromString(req.SellingPrice)
			if err != nil || parsed.IsNegative() || parsed.IsZero() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "selling_price must be a positive decimal for proxy purchases"))
				return
			}
			sellingPrice = parsed
		}

		result, err := svc.PlaceWholesaleOrder(r.Context(), userID, settlement.WholesaleOrderParams{
			ShopID:               req.ShopID,
			WarehouseInventoryID: req.WarehouseInventoryID,
			Quantity:             req.Quantity,
			Proxy:                req.Proxy,
			SellingPrice:         sellingPrice,
			PaymentMethod:        enums.PaymentMethod(req.PaymentMethod),
			PaymentReference:     req.PaymentReference,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, settlementResponse{
			OrderIDs:    result.OrderIDs,
			TotalAmount: result.TotalAmount.StringFixed(2),
		})
	}
}
