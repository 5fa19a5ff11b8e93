package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Book is the canonical catalog record for a title. AvailableCount is only
// mutated through the catalog availability queries, never assigned directly.
type Book struct {
	ID             uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	ISBN           string         `gorm:"column:isbn;not null;uniqueIndex:books_isbn_key"`
	Title          string         `gorm:"column:title;not null"`
	Author         string         `gorm:"column:author;not null"`
	Publisher      string         `gorm:"column:publisher"`
	Type           string         `gorm:"column:type"`
	Categories     pq.StringArray `gorm:"column:categories;type:text[]"`
	Tags           pq.StringArray `gorm:"column:tags;type:text[]"`
	AvailableCount int            `gorm:"column:available_count;not null;default:0"`
	ShelfCode      string         `gorm:"column:shelf_code"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (b *Book) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
