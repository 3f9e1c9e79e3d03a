package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kevmwangi/shoplink-backend/api/middleware"
	"github.com/kevmwangi/shoplink-backend/api/responses"
	"github.com/kevmwangi/shoplink-backend/api/validators"
	"github.com/kevmwangi/shoplink-backend/internal/products"
	"github.com/kevmwangi/shoplink-backend/pkg/enums"
	pkgerrors "github.com/kevmwangi/shoplink-backend/pkg/errors"
	"github.com/kevmwangi/shoplink-backend/pkg/logger"
)

type createProductRequest struct {
	Name         string    `json:"name" validate:"required,max=200"`
	Description  string    `json:"description" validate:"max=2000"`
	Category     string    `json:"category" validate:"required"`
	Images       []string  `json:"images" validate:"max=10,dive,max=500"`
	LocationID   uuid.UUID `json:"location_id" validate:"required"`
	InitialStock int       `json:"initial_stock" validate:"required,min=1"`
	Price        string    `json:"price" validate:"required"`
}

// CreateProduct adds a catalog entry and seeds the seller's initial
// listing; the seller's role decides which ledger receives it.
func CreateProduct(svc *products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, role := middleware.ActorFromContext(r.Context())

		var req createProductRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		price, err := decimal.NewFromString(req.Price)
		if err != nil || !price.IsPositive() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "price must be a positive decimal"))
			return
		}

		created, err := svc.CreateProduct(r.Context(), userID, role, products.CreateProductParams{
			Name:         validators.SanitizeString(req.Name, 200),
			Description:  validators.SanitizeString(req.Description, 2000),
			Category:     enums.ProductCategory(req.Category),
			Images:       req.Images,
			LocationID:   req.LocationID,
			InitialStock: req.InitialStock,
			Price:        price,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

func GetProduct(svc *products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := pathUUID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.GetProduct(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func ListProducts(svc *products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters := products.ListFilters{}
		if raw := strings.TrimSpace(r.URL.Query().Get("category")); raw != "" {
			category := enums.ProductCategory(raw)
			if !category.IsValid() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid category filter"))
				return
			}
			filters.Category = &category
		}

		items, nextCursor, err := svc.ListProducts(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"products":    items,
			"next_cursor": nextCursor,
		})
	}
}
