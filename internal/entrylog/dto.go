package entrylog

import (
	"time"

	"github.com/google/uuid"

	"github.com/shelfline/shelfline-backend/pkg/db/models"
)

// EntryDTO is the transport shape for a library visit.
type EntryDTO struct {
	ID          uuid.UUID  `json:"id"`
	PatronEmail string     `json:"patron_email"`
	PatronName  string     `json:"patron_name"`
	USN         string     `json:"usn"`
	InTime      time.Time  `json:"in_time"`
	OutTime     *time.Time `json:"out_time,omitempty"`
}

func FromModel(e *models.EntryLog) *EntryDTO {
	if e == nil {
		return nil
	}
	return &EntryDTO{
		ID:          e.ID,
		PatronEmail: e.PatronEmail,
		PatronName:  e.PatronName,
		USN:         e.USN,
		InTime:      e.InTime,
		OutTime:     e.OutTime,
	}
}

// FromModels maps a page of visits.
func FromModels(list []models.EntryLog) []EntryDTO {
	out := make([]EntryDTO, 0, len(list))
	for i := range list {
		out = append(out, *FromModel(&list[i]))
	}
	return out
}
