package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EntryLog records a patron's physical visit. OutTime stays nil while the
// session is open; the cron worker closes logs idle past the timeout.
type EntryLog struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	PatronEmail string     `gorm:"column:patron_email;not null;index"`
	PatronName  string     `gorm:"column:patron_name;not null"`
	USN         string     `gorm:"column:usn;not null"`
	InTime      time.Time  `gorm:"column:in_time;not null"`
	OutTime     *time.Time `gorm:"column:out_time"`
}

func (e *EntryLog) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
