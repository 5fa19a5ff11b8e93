package circulation

import (
	"time"

	"github.com/google/uuid"

	"github.com/shelfline/shelfline-backend/pkg/db/models"
	"github.com/shelfline/shelfline-backend/pkg/enums"
)

// LoanRecordDTO is the transport shape for a loan record.
type LoanRecordDTO struct {
	ID               uuid.UUID        `json:"id"`
	Kind             enums.LoanKind   `json:"kind"`
	PatronEmail      string           `json:"patron_email"`
	PatronName       string           `json:"patron_name"`
	USN              string           `json:"usn"`
	Branch           string           `json:"branch,omitempty"`
	Department       string           `json:"department,omitempty"`
	ISBN             string           `json:"isbn"`
	BookTitle        string           `json:"book_title"`
	Status           enums.LoanStatus `json:"status"`
	DueAt            time.Time        `json:"due_at"`
	ReturnedAt       *time.Time       `json:"returned_at,omitempty"`
	PenaltyAmount    int              `json:"penalty_amount"`
	PenaltyPaidToday bool             `json:"penalty_paid_today"`
	PenaltyPaidAt    *time.Time       `json:"penalty_paid_at,omitempty"`
	EvidencePhoto    *string          `json:"evidence_photo,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

func FromModel(l *models.LoanRecord) *LoanRecordDTO {
	if l == nil {
		return nil
	}
	return &LoanRecordDTO{
		ID:               l.ID,
		Kind:             l.Kind,
		PatronEmail:      l.PatronEmail,
		PatronName:       l.PatronName,
		USN:              l.USN,
		Branch:           l.Branch,
		Department:       l.Department,
		ISBN:             l.ISBN,
		BookTitle:        l.BookTitle,
		Status:           l.Status,
		DueAt:            l.DueAt,
		ReturnedAt:       l.ReturnedAt,
		PenaltyAmount:    l.PenaltyAmount,
		PenaltyPaidToday: l.PenaltyPaidToday,
		PenaltyPaidAt:    l.PenaltyPaidAt,
		EvidencePhoto:    l.EvidencePhoto,
		CreatedAt:        l.CreatedAt,
		UpdatedAt:        l.UpdatedAt,
	}
}

// FromModels maps a page of loan records.
func FromModels(list []models.LoanRecord) []LoanRecordDTO {
	out := make([]LoanRecordDTO, 0, len(list))
	for i := range list {
		out = append(out, *FromModel(&list[i]))
	}
	return out
}
