package models

import (
	"gorm.io/datatypes"
)

// DeliveryReport summarises a single push fan-out. Trigger holds the
// notification tag; the payload itself is not kept.
type DeliveryReport struct {
	Record

	Trigger      string         `gorm:"type:varchar(32);not null;index" json:"trigger"`
	Title        string         `gorm:"type:varchar(255)" json:"title"`
	Total        int            `json:"total"`
	SuccessCount int            `json:"success_count"`
	FailureCount int            `json:"failure_count"`
	PrunedCount  int            `json:"pruned_count"`
	DurationMs   int64          `json:"duration_ms"`
	Failures     datatypes.JSON `json:"failures"`
}
