package dto

import (
	"time"

	"github.com/park-academy/park-api/internal/models"
)

// SendMessageRequest is the payload for posting a message into a thread.
type SendMessageRequest struct {
	Body string `json:"body" validate:"required,min=1,max=4000"`
}

// MessageActions lists the per-message operations available to the viewer.
type MessageActions struct {
	CanDeleteForEveryone bool `json:"can_delete_for_everyone"`
	CanDeleteForMe       bool `json:"can_delete_for_me"`
}

// RenderedMessage is a message as a specific viewer is allowed to see it.
// Messages the viewer hid for themself are never rendered at all.
type RenderedMessage struct {
	ID        uint           `json:"id"`
	SenderID  string         `json:"sender_id"`
	Body      string         `json:"body"`
	Deleted   bool           `json:"deleted"`
	ReadBy    []string       `json:"read_by"`
	CreatedAt time.Time      `json:"created_at"`
	Actions   MessageActions `json:"actions"`
}

// ThreadSnapshot is the full visible state of one thread for one viewer.
// Subscribers receive a complete snapshot on every change, never a diff.
type ThreadSnapshot struct {
	ThreadKind models.ThreadKind `json:"thread_kind"`
	ThreadID   string            `json:"thread_id"`
	Messages   []RenderedMessage `json:"messages"`
}

// ConversationResponse is the serialized form of a 1:1 thread, annotated
// with the peer's display profile when it could be resolved.
type ConversationResponse struct {
	ID            string     `json:"id"`
	PeerID        string     `json:"peer_id"`
	PeerName      string     `json:"peer_name"`
	PeerPhotoURL  string     `json:"peer_photo_url,omitempty"`
	LastMessage   string     `json:"last_message"`
	LastMessageAt *time.Time `json:"last_message_at"`
	LastMessageBy string     `json:"last_message_by"`
	CreatedAt     time.Time  `json:"created_at"`
}

// GroupResponse is the serialized form of a group thread.
type GroupResponse struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	CreatedBy     string     `json:"created_by"`
	Participants  []string   `json:"participants"`
	LastMessage   string     `json:"last_message"`
	LastMessageAt *time.Time `json:"last_message_at"`
	LastMessageBy string     `json:"last_message_by"`
	CreatedAt     time.Time  `json:"created_at"`
}

// DirectoryResponse is the merged thread listing for one user. Conversations
// and groups render in separate sections; no cross-merge ordering applies.
type DirectoryResponse struct {
	Conversations []ConversationResponse `json:"conversations"`
	Groups        []GroupResponse        `json:"groups"`
}

// StartConversationRequest opens (or returns) the 1:1 thread with a peer.
type StartConversationRequest struct {
	PeerID string `json:"peer_id" validate:"required,max=64"`
}

// CreateGroupRequest creates a named group thread.
type CreateGroupRequest struct {
	Name         string   `json:"name" validate:"required,min=1,max=128"`
	Participants []string `json:"participants" validate:"required,min=1,dive,required,max=64"`
}

// NewGroupResponse converts a group model into a DTO.
func NewGroupResponse(group models.Group) GroupResponse {
	return GroupResponse{
		ID:            group.ID,
		Name:          group.Name,
		CreatedBy:     group.CreatedBy,
		Participants:  group.Participants,
		LastMessage:   group.LastMessage,
		LastMessageAt: group.LastMessageAt,
		LastMessageBy: group.LastMessageBy,
		CreatedAt:     group.CreatedAt,
	}
}

// NewGroupResponseSlice converts a slice of groups into DTOs.
func NewGroupResponseSlice(groups []models.Group) []GroupResponse {
	out := make([]GroupResponse, 0, len(groups))
	for _, group := range groups {
		out = append(out, NewGroupResponse(group))
	}
	return out
}
