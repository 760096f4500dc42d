package model

import "time"

// Device represents one physical asset in the shared pool.
type Device struct {
	ID           int64   `gorm:"primaryKey" json:"id"` // Assigned by the id allocator, never reused
	Name         string  `gorm:"uniqueIndex;size:256;not null" json:"name"`
	Description  string  `gorm:"size:1024" json:"description"`
	SerialNumber string  `gorm:"size:128" json:"serialNumber"`
	Manufacturer string  `gorm:"size:128" json:"manufacturer"`
	Image        string  `gorm:"type:text" json:"-"` // base64 of the attached image, empty when unset
	ImageMime    string  `gorm:"size:64" json:"-"`
	TakenBy      *string `gorm:"size:128;index" json:"takenBy"` // login of the current holder, nil when available
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
