package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kevmwangi/shoplink-backend/api/middleware"
	"github.com/kevmwangi/shoplink-backend/api/responses"
	"github.com/kevmwangi/shoplink-backend/api/validators"
	"github.com/kevmwangi/shoplink-backend/internal/listings"
	"github.com/kevmwangi/shoplink-backend/pkg/enums"
	pkgerrors "github.com/kevmwangi/shoplink-backend/pkg/errors"
	"github.com/kevmwangi/shoplink-backend/pkg/logger"
)

type createListingRequest struct {
	Kind          string    `json:"kind" validate:"required"`
	LocationID    uuid.UUID `json:"location_id" validate:"required"`
	ProductID     uuid.UUID `json:"product_id" validate:"required"`
	StockQuantity int       `json:"stock_quantity" validate:"required,min=1"`
	Price         string    `json:"price" validate:"required"`
}

type adjustStockRequest struct {
	Kind  string `json:"kind" validate:"required"`
	Delta int    `json:"delta" validate:"required"`
}

type updatePriceRequest struct {
	Kind  string `json:"kind" validate:"required"`
	Price string `json:"price" validate:"required"`
}

// CreateListing puts an existing product up for sale on the seller's
// shop or warehouse ledger.
func CreateListing(svc *listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.ActorFromContext(r.Context())

		var req createListingRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		price, err := decimal.NewFromString(req.Price)
		if err != nil || !price.IsPositive() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "price must be a positive decimal"))
			return
		}

		switch enums.InventoryKind(req.Kind) {
		case enums.InventoryKindShop:
			created, err := svc.CreateShopListing(r.Context(), userID, listings.CreateShopListingParams{
				ShopID:        req.LocationID,
				ProductID:     req.ProductID,
				StockQuantity: req.StockQuantity,
				Price:         price,
			})
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccessStatus(w, http.StatusCreated, created)
		case enums.InventoryKindWarehouse:
			created, err := svc.CreateWarehouseListing(r.Context(), userID, listings.CreateWarehouseListingParams{
				WarehouseID:   req.LocationID,
				ProductID:     req.ProductID,
				StockQuantity: req.StockQuantity,
				Price:         price,
			})
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccessStatus(w, http.StatusCreated, created)
		default:
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "kind must be shop or warehouse"))
		}
	}
}

// AdjustListingStock restocks (or corrects down) an existing listing by
// a signed delta.
func AdjustListingStock(svc *listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.ActorFromContext(r.Context())
		listingID, err := pathUUID(r, "listingID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req adjustStockRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		kind := enums.InventoryKind(req.Kind)
		if !kind.IsValid() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "kind must be shop or warehouse"))
			return
		}

		if err := svc.AdjustStock(r.Context(), userID, listings.AdjustStockParams{
			Kind:      kind,
			ListingID: listingID,
			Delta:     req.Delta,
		}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "adjusted"})
	}
}

func UpdateListingPrice(svc *listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.ActorFromContext(r.Context())
		listingID, err := pathUUID(r, "listingID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updatePriceRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		kind := enums.InventoryKind(req.Kind)
		if !kind.IsValid() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "kind must be shop or warehouse"))
			return
		}

		price, err := decimal.NewFromString(req.Price)
		if err != nil || !price.IsPositive() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "price must be a positive decimal"))
			return
		}

		if err := svc.UpdatePrice(r.Context(), userID, listings.UpdatePriceParams{
			Kind:      kind,
			ListingID: listingID,
			Price:     price,
		}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "updated"})
	}
}

func ListShopListings(svc *listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopID, err := pathUUID(r, "shopID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items, err := svc.ListShopListings(r.Context(), shopID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

func ListWarehouseListings(svc *listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		warehouseID, err := pathUUID(r, "warehouseID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items, err := svc.ListWarehouseListings(r.Context(), warehouseID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}
