package students

import (
	"time"

	"github.com/google/uuid"

	"github.com/shelfline/shelfline-backend/pkg/db/models"
)

// StudentDTO is the transport shape that omits the credential hash.
type StudentDTO struct {
	ID         uuid.UUID `json:"id"`
	USN        string    `json:"usn"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Branch     string    `json:"branch,omitempty"`
	Department string    `json:"department,omitempty"`
	Batch      string    `json:"batch,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// StaffDTO is the transport shape for back-office accounts.
type StaffDTO struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func FromModel(s *models.Student) *StudentDTO {
	if s == nil {
		return nil
	}
	return &StudentDTO{
		ID:         s.ID,
		USN:        s.USN,
		Name:       s.Name,
		Email:      s.Email,
		Branch:     s.Branch,
		Department: s.Department,
		Batch:      s.Batch,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
}

func FromStaffModel(s *models.Staff) *StaffDTO {
	if s == nil {
		return nil
	}
	return &StaffDTO{
		ID:        s.ID,
		Email:     s.Email,
		Name:      s.Name,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

// FromModels maps a roster page.
func FromModels(list []models.Student) []StudentDTO {
	out := make([]StudentDTO, 0, len(list))
	for i := range list {
		out = append(out, *FromModel(&list[i]))
	}
	return out
}
