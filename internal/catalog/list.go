package catalog

import (
	"github.com/shelfline/shelfline-backend/pkg/pagination"
)

// BookListFilters describe the supported filter knobs for the catalog browse endpoint.
type BookListFilters struct {
	Category string `json:"category,omitempty"`
	Type     string `json:"type,omitempty"`
	Author   string `json:"author,omitempty"`
	Query    string `json:"q,omitempty"`
}

// ListBooksInput captures the inputs needed to paginate/filter the catalog.
type ListBooksInput struct {
	Filters    BookListFilters
	Pagination pagination.Params
}
