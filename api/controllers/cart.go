package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shelfline/shelfline-backend/api/middleware"
	"github.com/shelfline/shelfline-backend/api/responses"
	"github.com/shelfline/shelfline-backend/api/validators"
	"github.com/shelfline/shelfline-backend/internal/cart"
	pkgerrors "github.com/shelfline/shelfline-backend/pkg/errors"
	"github.com/shelfline/shelfline-backend/pkg/logger"
)

type cartAddRequest struct {
	ISBN string `json:"isbn" validate:"required"`
}

// CartFetch returns the patron's staged titles.
func CartFetch(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email, ok := patronEmail(w, r, logg)
		if !ok {
			return
		}
		items, err := svc.Get(r.Context(), email)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": items})
	}
}

// CartAdd stages a title for the patron's next borrow batch.
func CartAdd(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email, ok := patronEmail(w, r, logg)
		if !ok {
			return
		}
		var payload cartAddRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items, err := svc.Add(r.Context(), email, payload.ISBN)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{"items": items})
	}
}

// CartRemove drops one staged title.
func CartRemove(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email, ok := patronEmail(w, r, logg)
		if !ok {
			return
		}
		isbn := validators.SanitizeString(chi.URLParam(r, "isbn"), 32)
		if isbn == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "isbn is required"))
			return
		}
		items, err := svc.Remove(r.Context(), email, isbn)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": items})
	}
}

// CartClear empties the cart.
func CartClear(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email, ok := patronEmail(w, r, logg)
		if !ok {
			return
		}
		if err := svc.Clear(r.Context(), email); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": []cart.Item{}})
	}
}

func patronEmail(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (string, bool) {
	email := middleware.MemberEmailFromContext(r.Context())
	if email == "" {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "member context missing"))
		return "", false
	}
	return email, true
}
