package dto

import (
	"time"

	"github.com/park-academy/park-api/internal/models"
)

// VideoCreateRequest registers metadata for a video already stored on the CDN.
type VideoCreateRequest struct {
	Title        string `json:"title" validate:"required,min=1,max=255"`
	Description  string `json:"description" validate:"omitempty,max=5000"`
	URL          string `json:"url" validate:"required,url,max=512"`
	PublicID     string `json:"public_id" validate:"required,max=255"`
	ResourceType string `json:"resource_type" validate:"omitempty,oneof=video image raw"`
}

// VideoResponse is the serialized representation of a video.
type VideoResponse struct {
	ID           uint      `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	UploaderID   string    `json:"uploader_id"`
	URL          string    `json:"url"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	PublicID     string    `json:"public_id"`
	ResourceType string    `json:"resource_type"`
	CreatedAt    time.Time `json:"created_at"`
}

// CommentCreateRequest posts a public comment on a video.
type CommentCreateRequest struct {
	Body string `json:"body" validate:"required,min=1,max=2000"`
}

// CommentResponse is the serialized representation of a comment.
type CommentResponse struct {
	ID             uint      `json:"id"`
	VideoID        uint      `json:"video_id"`
	AuthorID       string    `json:"author_id"`
	AuthorName     string    `json:"author_name"`
	AuthorPhotoURL string    `json:"author_photo_url,omitempty"`
	Body           string    `json:"body"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewVideoResponse converts a video model into a DTO.
func NewVideoResponse(video models.Video) VideoResponse {
	return VideoResponse{
		ID:           video.ID,
		Title:        video.Title,
		Description:  video.Description,
		UploaderID:   video.UploaderID,
		URL:          video.URL,
		ThumbnailURL: video.ThumbnailURL,
		PublicID:     video.PublicID,
		ResourceType: video.ResourceType,
		CreatedAt:    video.CreatedAt,
	}
}

// NewVideoResponseSlice converts a slice of videos into DTOs.
func NewVideoResponseSlice(videos []models.Video) []VideoResponse {
	out := make([]VideoResponse, 0, len(videos))
	for _, video := range videos {
		out = append(out, NewVideoResponse(video))
	}
	return out
}

// NewCommentResponse converts a comment model into a DTO.
func NewCommentResponse(comment models.Comment) CommentResponse {
	return CommentResponse{
		ID:             comment.ID,
		VideoID:        comment.VideoID,
		AuthorID:       comment.AuthorID,
		AuthorName:     comment.AuthorName,
		AuthorPhotoURL: comment.AuthorPhotoURL,
		Body:           comment.Body,
		CreatedAt:      comment.CreatedAt,
	}
}

// NewCommentResponseSlice converts a slice of comments into DTOs.
func NewCommentResponseSlice(comments []models.Comment) []CommentResponse {
	out := make([]CommentResponse, 0, len(comments))
	for _, comment := range comments {
		out = append(out, NewCommentResponse(comment))
	}
	return out
}
