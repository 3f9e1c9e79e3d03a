package controllers

import (
	"net/http"

	"github.com/kevmwangi/shoplink-backend/api/middleware"
	"github.com/kevmwangi/shoplink-backend/api/responses"
	"github.com/kevmwangi/shoplink-backend/api/validators"
	"github.com/kevmwangi/shoplink-backend/internal/address"
	"github.com/kevmwangi/shoplink-backend/pkg/logger"
)

type createAddressRequest struct {
	Recipient  string  `json:"recipient" validate:"required,max=120"`
	Line1      string  `json:"line1" validate:"required,max=200"`
	Line2      *string `json:"line2" validate:"omitempty,max=200"`
	City       string  `json:"city" validate:"required,max=100"`
	State      string  `json:"state" validate:"required,max=100"`
	PostalCode string  `json:"postal_code" validate:"required,max=20"`
	Country    string  `json:"country" validate:"required,max=100"`
	Phone      *string `json:"phone" validate:"omitempty,max=20"`
}

func CreateAddress(svc *address.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.ActorFromContext(r.Context())

		var req createAddressRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), userID, address.CreateParams{
			Recipient:  validators.SanitizeString(req.Recipient, 120),
			Line1:      validators.SanitizeString(req.Line1, 200),
			Line2:      req.Line2,
			City:       validators.SanitizeString(req.City, 100),
			State:      validators.SanitizeString(req.State, 100),
			PostalCode: validators.SanitizeString(req.PostalCode, 20),
			Country:    validators.SanitizeString(req.Country, 100),
			Phone:      req.Phone,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

func ListAddresses(svc *address.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.ActorFromContext(r.Context())
		items, err := svc.List(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

func DeleteAddress(svc *address.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.ActorFromContext(r.Context())
		addressID, err := pathUUID(r, "addressID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), userID, addressID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
