package models

import (
	"time"

	"gorm.io/datatypes"
)

// Note is a private study note. Content is an arbitrary JSON document owned
// by the editor; its shape is validated at the service boundary.
type Note struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	OwnerID   string         `gorm:"size:64;index;not null" json:"owner_id"`
	Title     string         `gorm:"size:255" json:"title"`
	Content   datatypes.JSON `gorm:"type:json" json:"content"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
