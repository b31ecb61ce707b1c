package models

import "time"

// Video is the metadata record for a lesson video hosted on the media CDN.
// The media file itself lives under PublicID; deleting a video must destroy
// the remote asset before this row is removed.
type Video struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Title        string    `gorm:"size:255;not null" json:"title"`
	Description  string    `gorm:"type:text" json:"description"`
	UploaderID   string    `gorm:"size:64;index" json:"uploader_id"`
	URL          string    `gorm:"size:512" json:"url"`
	ThumbnailURL string    `gorm:"size:512" json:"thumbnail_url"`
	PublicID     string    `gorm:"size:255;index" json:"public_id"`
	ResourceType string    `gorm:"size:32;default:video" json:"resource_type"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Comment is a public remark attached to a video.
type Comment struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	VideoID        uint      `gorm:"index;not null" json:"video_id"`
	AuthorID       string    `gorm:"size:64;index" json:"author_id"`
	AuthorName     string    `gorm:"size:128" json:"author_name"`
	AuthorPhotoURL string    `gorm:"size:512" json:"author_photo_url"`
	Body           string    `gorm:"type:text" json:"body"`
	CreatedAt      time.Time `json:"created_at"`
}
