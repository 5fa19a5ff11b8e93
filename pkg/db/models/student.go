package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Student is a registered patron. USN is the university serial number used as
// the human-facing key; email is what loan records reference.
type Student struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	USN          string    `gorm:"column:usn;not null;uniqueIndex:students_usn_key"`
	Name         string    `gorm:"column:name;not null"`
	Email        string    `gorm:"column:email;not null;uniqueIndex:students_email_key"`
	Branch       string    `gorm:"column:branch"`
	Department   string    `gorm:"column:department"`
	Batch        string    `gorm:"column:batch"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *Student) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
