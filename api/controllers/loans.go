package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/shelfline/shelfline-backend/api/responses"
	"github.com/shelfline/shelfline-backend/api/validators"
	"github.com/shelfline/shelfline-backend/internal/cart"
	"github.com/shelfline/shelfline-backend/internal/circulation"
	"github.com/shelfline/shelfline-backend/internal/students"
	"github.com/shelfline/shelfline-backend/pkg/enums"
	pkgerrors "github.com/shelfline/shelfline-backend/pkg/errors"
	"github.com/shelfline/shelfline-backend/pkg/logger"
	"github.com/shelfline/shelfline-backend/pkg/pagination"
)

type issueRequest struct {
	Kind     string   `json:"kind" validate:"required"`
	ISBNs    []string `json:"isbns" validate:"omitempty,dive,required"`
	FromCart bool     `json:"from_cart"`
}

// PatronIssue checks out one or more titles to the logged-in patron. With
// from_cart set the staged cart supplies the batch and is cleared once every
// title in it has been issued.
func PatronIssue(circ circulation.Service, roster students.Service, cartSvc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email, ok := patronEmail(w, r, logg)
		if !ok {
			return
		}

		var payload issueRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		kind, err := enums.ParseLoanKind(strings.TrimSpace(payload.Kind))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid loan kind"))
			return
		}

		isbns := payload.ISBNs
		if payload.FromCart {
			items, err := cartSvc.Get(r.Context(), email)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			isbns = isbns[:0]
			for _, item := range items {
				isbns = append(isbns, item.ISBN)
			}
		}
		if len(isbns) == 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "no titles to issue"))
			return
		}

		student, err := roster.GetByEmail(r.Context(), email)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		results, err := circ.Issue(r.Context(), kind, circulation.Patron{
			Email:      student.Email,
			Name:       student.Name,
			USN:        student.USN,
			Branch:     student.Branch,
			Department: student.Department,
		}, isbns)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if payload.FromCart && allIssued(results) {
			// The cart empties only once the whole batch went through; a
			// partial batch leaves it as-is for the retry. The loans already
			// stand, so a failed clear is not worth failing the request over.
			if err := cartSvc.Clear(r.Context(), email); err != nil {
				logg.Error(r.Context(), "clear cart after issue", err)
			}
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{"results": results})
	}
}

// PatronLoans lists the logged-in patron's loan records.
func PatronLoans(circ circulation.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email, ok := patronEmail(w, r, logg)
		if !ok {
			return
		}
		input, err := loanListInput(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.PatronEmail = email

		result, err := circ.ListLoans(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"records":     circulation.FromModels(result.Records),
			"next_cursor": result.NextCursor,
		})
	}
}

// PatronLoanDetail serves a single record, guarded by ownership.
func PatronLoanDetail(circ circulation.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email, ok := patronEmail(w, r, logg)
		if !ok {
			return
		}
		id, err := uuid.Parse(chi.URLParam(r, "loanId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid loan id"))
			return
		}

		record, err := circ.GetRecord(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !strings.EqualFold(record.PatronEmail, email) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "loan record not found"))
			return
		}
		responses.WriteSuccess(w, circulation.FromModel(record))
	}
}

func allIssued(results []circulation.IssueResult) bool {
	for _, result := range results {
		if !result.Issued {
			return false
		}
	}
	return len(results) > 0
}

func loanListInput(r *http.Request) (circulation.ListLoansInput, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return circulation.ListLoansInput{}, err
	}

	query := r.URL.Query()
	input := circulation.ListLoansInput{
		Pagination: pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(query.Get("cursor")),
		},
	}

	if raw := strings.TrimSpace(query.Get("kind")); raw != "" {
		kind, err := enums.ParseLoanKind(raw)
		if err != nil {
			return circulation.ListLoansInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid loan kind")
		}
		input.Kind = &kind
	}
	if raw := strings.TrimSpace(query.Get("status")); raw != "" {
		status, err := enums.ParseLoanStatus(raw)
		if err != nil {
			return circulation.ListLoansInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid loan status")
		}
		input.Status = &status
	}
	if query.Get("overdue") == "true" {
		now := time.Now().UTC()
		input.OverdueAsOf = &now
	}
	return input, nil
}
