package model

import "time"

// User represents one credentialed member of the team.
type User struct {
	Login     string    `gorm:"primaryKey;size:128" json:"login"`
	Password  string    `gorm:"size:256;not null" json:"-"`
	CreatedAt time.Time `gorm:"not null"`
}
