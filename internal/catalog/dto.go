package catalog

import (
	"time"

	"github.com/google/uuid"

	"github.com/shelfline/shelfline-backend/pkg/db/models"
)

// BookDTO is the transport shape for a catalog title.
type BookDTO struct {
	ID             uuid.UUID `json:"id"`
	ISBN           string    `json:"isbn"`
	Title          string    `json:"title"`
	Author         string    `json:"author"`
	Publisher      string    `json:"publisher,omitempty"`
	Type           string    `json:"type,omitempty"`
	Categories     []string  `json:"categories"`
	Tags           []string  `json:"tags,omitempty"`
	AvailableCount int       `json:"available_count"`
	ShelfCode      string    `json:"shelf_code,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func FromModel(b *models.Book) *BookDTO {
	if b == nil {
		return nil
	}
	return &BookDTO{
		ID:             b.ID,
		ISBN:           b.ISBN,
		Title:          b.Title,
		Author:         b.Author,
		Publisher:      b.Publisher,
		Type:           b.Type,
		Categories:     append([]string(nil), b.Categories...),
		Tags:           append([]string(nil), b.Tags...),
		AvailableCount: b.AvailableCount,
		ShelfCode:      b.ShelfCode,
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
	}
}

// FromModels maps a catalog page.
func FromModels(list []models.Book) []BookDTO {
	out := make([]BookDTO, 0, len(list))
	for i := range list {
		out = append(out, *FromModel(&list[i]))
	}
	return out
}

// NameDTO is the transport shape shared by the taxonomy lists.
type NameDTO struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

func AuthorNames(list []models.Author) []NameDTO {
	out := make([]NameDTO, 0, len(list))
	for _, a := range list {
		out = append(out, NameDTO{ID: a.ID, Name: a.Name})
	}
	return out
}

func CategoryNames(list []models.Category) []NameDTO {
	out := make([]NameDTO, 0, len(list))
	for _, c := range list {
		out = append(out, NameDTO{ID: c.ID, Name: c.Name})
	}
	return out
}

func BookTypeNames(list []models.BookType) []NameDTO {
	out := make([]NameDTO, 0, len(list))
	for _, b := range list {
		out = append(out, NameDTO{ID: b.ID, Name: b.Name})
	}
	return out
}
