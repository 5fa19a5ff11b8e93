package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/shelfline/shelfline-backend/api/responses"
	"github.com/shelfline/shelfline-backend/api/validators"
	"github.com/shelfline/shelfline-backend/internal/circulation"
	"github.com/shelfline/shelfline-backend/internal/students"
	"github.com/shelfline/shelfline-backend/pkg/enums"
	pkgerrors "github.com/shelfline/shelfline-backend/pkg/errors"
	"github.com/shelfline/shelfline-backend/pkg/logger"
)

type adminIssueRequest struct {
	Kind        string   `json:"kind" validate:"required"`
	PatronEmail string   `json:"patron_email" validate:"required,email"`
	ISBNs       []string `json:"isbns" validate:"required,min=1,dive,required"`
}

// AdminIssueLoans checks out titles to a patron at the circulation desk.
func AdminIssueLoans(circ circulation.Service, roster students.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload adminIssueRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		kind, err := enums.ParseLoanKind(strings.TrimSpace(payload.Kind))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid loan kind"))
			return
		}

		student, err := roster.GetByEmail(r.Context(), payload.PatronEmail)
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
		}, payload.ISBNs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{"results": results})
	}
}

// AdminReturnLoan processes a return. An unpaid penalty on an overdue loan
// blocks the return until it is cleared.
func AdminReturnLoan(circ circulation.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseLoanID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := circ.Return(r.Context(), id, time.Now().UTC())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"record":         circulation.FromModel(result.Record),
			"penalty_amount": result.PenaltyAmount,
		})
	}
}

type adminReturnBatchRequest struct {
	RecordIDs []uuid.UUID `json:"record_ids" validate:"required,min=1"`
}

// AdminReturnLoans takes back several loans at once, all-or-nothing. Any
// missing record or unsettled penalty in the batch aborts every return.
func AdminReturnLoans(circ circulation.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload adminReturnBatchRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := circ.ReturnItems(r.Context(), payload.RecordIDs, time.Now().UTC())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		returned := make([]map[string]any, 0, len(summary.Returned))
		for _, item := range summary.Returned {
			returned = append(returned, map[string]any{
				"record":         circulation.FromModel(item.Record),
				"penalty_amount": item.PenaltyAmount,
			})
		}
		responses.WriteSuccess(w, map[string]any{"returned": returned})
	}
}

// AdminClearPenalty marks today's settlement on a loan's outstanding fee.
func AdminClearPenalty(circ circulation.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseLoanID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := circ.ClearPenalty(r.Context(), id, time.Now().UTC())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, circulation.FromModel(record))
	}
}

// AdminListLoans pages through loan records, optionally scoped to a patron.
func AdminListLoans(circ circulation.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input, err := loanListInput(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.PatronEmail = validators.SanitizeString(r.URL.Query().Get("patron_email"), 256)

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

// AdminGetLoan serves one loan record.
func AdminGetLoan(circ circulation.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseLoanID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		record, err := circ.GetRecord(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, circulation.FromModel(record))
	}
}

func parseLoanID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "loanId"))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid loan id")
	}
	return id, nil
}
