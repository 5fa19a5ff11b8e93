package controllers

import (
	"net/http"
	"strings"

	"github.com/shelfline/shelfline-backend/api/responses"
	"github.com/shelfline/shelfline-backend/api/validators"
	"github.com/shelfline/shelfline-backend/internal/entrylog"
	"github.com/shelfline/shelfline-backend/pkg/logger"
	"github.com/shelfline/shelfline-backend/pkg/pagination"
)

// AdminListEntryLogs pages through library visits. open=true narrows the
// list to patrons currently inside.
func AdminListEntryLogs(svc entrylog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		query := r.URL.Query()
		result, err := svc.List(r.Context(), entrylog.ListEntriesInput{
			PatronEmail: validators.SanitizeString(query.Get("patron_email"), 256),
			OpenOnly:    query.Get("open") == "true",
			Pagination: pagination.Params{
				Limit:  limit,
				Cursor: strings.TrimSpace(query.Get("cursor")),
			},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"entries":     entrylog.FromModels(result.Entries),
			"next_cursor": result.NextCursor,
		})
	}
}
