package models

import "time"

// MoodEvent is an immutable entry in the append-only mood log.
type MoodEvent struct {
	Record

	Mood      Mood      `gorm:"type:varchar(32);not null;index" json:"mood"`
	Emoji     string    `gorm:"type:varchar(64);not null" json:"emoji"`
	Timestamp time.Time `gorm:"not null;index" json:"timestamp"`
	Owner     string    `gorm:"type:varchar(128);index;not null;default:'default'" json:"owner"`
}
