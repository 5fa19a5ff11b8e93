package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shelfline/shelfline-backend/pkg/enums"
)

// LoanRecord captures one title issued to one patron. Reading-room checkouts
// and take-home borrows share the shape and are discriminated by Kind. A
// partial unique index (patron_email, isbn, kind) over active rows backs the
// one-active-loan-per-title-per-patron contract.
type LoanRecord struct {
	ID               uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	Kind             enums.LoanKind   `gorm:"column:kind;not null;index"`
	PatronEmail      string           `gorm:"column:patron_email;not null;index"`
	PatronName       string           `gorm:"column:patron_name;not null"`
	USN              string           `gorm:"column:usn;not null"`
	Branch           string           `gorm:"column:branch"`
	Department       string           `gorm:"column:department"`
	ISBN             string           `gorm:"column:isbn;not null;index"`
	BookTitle        string           `gorm:"column:book_title;not null"`
	Status           enums.LoanStatus `gorm:"column:status;not null;default:'active'"`
	DueAt            time.Time        `gorm:"column:due_at;not null"`
	ReturnedAt       *time.Time       `gorm:"column:returned_at"`
	PenaltyAmount    int              `gorm:"column:penalty_amount;not null;default:0"`
	PenaltyPaidToday bool             `gorm:"column:penalty_paid_today;not null;default:false"`
	PenaltyPaidAt    *time.Time       `gorm:"column:penalty_paid_at"`
	EvidencePhoto    *string          `gorm:"column:evidence_photo"`
	CreatedAt        time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (l *LoanRecord) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
