package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kevmwangi/shoplink-backend/api/validators"
	pkgerrors "github.com/kevmwangi/shoplink-backend/pkg/errors"
	"github.com/kevmwangi/shoplink-backend/pkg/pagination"
)

const maxPageLimit = 200

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name)
	}
	return id, nil
}

func pageParams(r *http.Request) (pagination.Params, error) {
	params := pagination.Params{
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}
	limit, err := validators.ParseQueryInt(r, "limit", 0, 0, maxPageLimit)
	if err != nil {
		return params, err
	}
	params.Limit = limit
	return params, nil
}
