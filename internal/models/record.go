package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Record carries the identity shared by every stored row. IDs are UUIDv7 so
// they sort by creation time.
type Record struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// BeforeCreate assigns an ID unless the caller supplied one.
func (r *Record) BeforeCreate(*gorm.DB) error {
	if r.ID != "" {
		return nil
	}
	id, err := uuid.NewV7()
	if err != nil {
		return err
	}
	r.ID = id.String()
	return nil
}
