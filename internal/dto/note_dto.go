package dto

import (
	"encoding/json"
	"time"

	"github.com/park-academy/park-api/internal/models"
)

// NoteCreateRequest creates a study note. Content is an arbitrary JSON
// document validated against the note schema at the service boundary.
type NoteCreateRequest struct {
	Title   string          `json:"title" validate:"required,min=1,max=255"`
	Content json.RawMessage `json:"content" validate:"required"`
}

// NoteUpdateRequest updates an existing note.
type NoteUpdateRequest struct {
	Title   *string         `json:"title" validate:"omitempty,min=1,max=255"`
	Content json.RawMessage `json:"content"`
}

// NoteResponse is the serialized representation of a note.
type NoteResponse struct {
	ID        uint            `json:"id"`
	OwnerID   string          `json:"owner_id"`
	Title     string          `json:"title"`
	Content   json.RawMessage `json:"content"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewNoteResponse converts a note model into a DTO.
func NewNoteResponse(note models.Note) NoteResponse {
	return NoteResponse{
		ID:        note.ID,
		OwnerID:   note.OwnerID,
		Title:     note.Title,
		Content:   json.RawMessage(note.Content),
		CreatedAt: note.CreatedAt,
		UpdatedAt: note.UpdatedAt,
	}
}

// NewNoteResponseSlice converts a slice of notes into DTOs.
func NewNoteResponseSlice(notes []models.Note) []NoteResponse {
	out := make([]NoteResponse, 0, len(notes))
	for _, note := range notes {
		out = append(out, NewNoteResponse(note))
	}
	return out
}
