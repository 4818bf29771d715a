package models

import "time"

// DefaultOwner is used when a subscription or mood carries no explicit owner.
const DefaultOwner = "default"

// MaxEndpointLength bounds push service endpoint URLs.
const MaxEndpointLength = 512

// PushSubscription is a browser-issued delivery target. Endpoint is unique;
// re-subscribing overwrites the keys and owner but keeps CreatedAt.
type PushSubscription struct {
	Record

	Endpoint  string    `gorm:"type:varchar(512);uniqueIndex;not null" json:"endpoint"`
	P256dh    string    `gorm:"type:text;not null" json:"p256dh"`
	Auth      string    `gorm:"type:text;not null" json:"auth"`
	Owner     string    `gorm:"type:varchar(128);index;not null;default:'default'" json:"owner"`
	UpdatedAt time.Time `json:"updated_at"`
}
