package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/shelfline/shelfline-backend/api/responses"
	"github.com/shelfline/shelfline-backend/api/validators"
	"github.com/shelfline/shelfline-backend/internal/catalog"
	pkgerrors "github.com/shelfline/shelfline-backend/pkg/errors"
	"github.com/shelfline/shelfline-backend/pkg/logger"
	"github.com/shelfline/shelfline-backend/pkg/pagination"
)

// BrowseBooks serves the catalog listing both portals share. Filters arrive
// as query parameters; pages use cursor pagination.
func BrowseBooks(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		query := r.URL.Query()
		input := catalog.ListBooksInput{
			Filters: catalog.BookListFilters{
				Category: validators.SanitizeString(query.Get("category"), 128),
				Type:     validators.SanitizeString(query.Get("type"), 128),
				Author:   validators.SanitizeString(query.Get("author"), 128),
				Query:    validators.SanitizeString(query.Get("q"), 256),
			},
			Pagination: pagination.Params{
				Limit:  limit,
				Cursor: strings.TrimSpace(query.Get("cursor")),
			},
		}

		result, err := svc.ListBooks(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"books":       catalog.FromModels(result.Books),
			"next_cursor": result.NextCursor,
		})
	}
}

// GetBook serves a single title by its catalog id.
func GetBook(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "bookId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid book id"))
			return
		}

		book, err := svc.GetBook(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, catalog.FromModel(book))
	}
}

// ListTaxonomies serves the author/category/type lists the browse filters
// are built from.
func ListTaxonomies(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authors, err := svc.ListAuthors(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		categories, err := svc.ListCategories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		types, err := svc.ListBookTypes(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"authors":    catalog.AuthorNames(authors),
			"categories": catalog.CategoryNames(categories),
			"types":      catalog.BookTypeNames(types),
		})
	}
}
