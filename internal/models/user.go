package models

import "time"

// User mirrors the identity provider profile for a signed-in person.
// Rows are upserted on first authenticated request and never hard-deleted.
type User struct {
	ID          string    `gorm:"primaryKey;size:64" json:"id"`
	DisplayName string    `gorm:"size:128" json:"display_name"`
	Email       string    `gorm:"size:255;index" json:"email"`
	PhotoURL    string    `gorm:"size:512" json:"photo_url"`
	IsAdmin     bool      `gorm:"not null;default:false" json:"is_admin"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
