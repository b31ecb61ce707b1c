package dto

import (
	"time"

	"github.com/park-academy/park-api/internal/models"
)

// ProfileResponse is the public display profile of a user.
type ProfileResponse struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	PhotoURL    string    `json:"photo_url,omitempty"`
	IsAdmin     bool      `json:"is_admin"`
	CreatedAt   time.Time `json:"created_at"`
}

// ProfileUpdateRequest updates the caller's own display profile.
type ProfileUpdateRequest struct {
	DisplayName *string `json:"display_name" validate:"omitempty,min=1,max=128"`
	PhotoURL    *string `json:"photo_url" validate:"omitempty,url,max=512"`
}

// NewProfileResponse converts a user model into a DTO.
func NewProfileResponse(user models.User) ProfileResponse {
	return ProfileResponse{
		ID:          user.ID,
		DisplayName: user.DisplayName,
		Email:       user.Email,
		PhotoURL:    user.PhotoURL,
		IsAdmin:     user.IsAdmin,
		CreatedAt:   user.CreatedAt,
	}
}

// NewProfileResponseSlice converts a slice of users into DTOs.
func NewProfileResponseSlice(users []models.User) []ProfileResponse {
	out := make([]ProfileResponse, 0, len(users))
	for _, user := range users {
		out = append(out, NewProfileResponse(user))
	}
	return out
}
