package models

import (
	"sort"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// ThreadKind distinguishes 1:1 conversations from named groups.
type ThreadKind string

const (
	// ThreadKindPrivate is a 1:1 conversation between exactly two users.
	ThreadKindPrivate ThreadKind = "private"
	// ThreadKindGroup is a named group with one or more participants.
	ThreadKindGroup ThreadKind = "group"
)

// ConversationKey derives the deterministic id for an unordered participant
// pair. Both orderings of the same pair map to the same key, which makes
// conversation creation an idempotent keyed write instead of a
// lookup-then-create race.
func ConversationKey(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return strings.Join(pair, "__")
}

// Conversation is a 1:1 thread. Its primary key is the pair key, so at most
// one row can ever exist per unordered participant pair.
type Conversation struct {
	ID             string     `gorm:"primaryKey;size:160" json:"id"`
	ParticipantLow string     `gorm:"size:64;index" json:"participant_low"`
	ParticipantHi  string     `gorm:"size:64;index" json:"participant_hi"`
	LastMessage    string     `gorm:"type:text" json:"last_message"`
	LastMessageAt  *time.Time `json:"last_message_at"`
	LastMessageBy  string     `gorm:"size:64" json:"last_message_by"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Participants returns both member ids.
func (c Conversation) Participants() []string {
	return []string{c.ParticipantLow, c.ParticipantHi}
}

// Peer returns the other participant for the given viewer, or "" when the
// viewer is not a member.
func (c Conversation) Peer(viewer string) string {
	switch viewer {
	case c.ParticipantLow:
		return c.ParticipantHi
	case c.ParticipantHi:
		return c.ParticipantLow
	}
	return ""
}

// HasParticipant reports whether the user belongs to the conversation.
func (c Conversation) HasParticipant(userID string) bool {
	return userID != "" && (userID == c.ParticipantLow || userID == c.ParticipantHi)
}

// Group is a named multi-member thread created explicitly by a user. Deleting
// a group cascades to all of its messages.
type Group struct {
	ID            string                      `gorm:"primaryKey;size:64" json:"id"`
	Name          string                      `gorm:"size:128;not null" json:"name"`
	CreatedBy     string                      `gorm:"size:64;index" json:"created_by"`
	Participants  datatypes.JSONSlice[string] `json:"participants"`
	LastMessage   string                      `gorm:"type:text" json:"last_message"`
	LastMessageAt *time.Time                  `json:"last_message_at"`
	LastMessageBy string                      `gorm:"size:64" json:"last_message_by"`
	CreatedAt     time.Time                   `json:"created_at"`
	UpdatedAt     time.Time                   `json:"updated_at"`
}

// GroupMember indexes group membership for queries. The JSON participant
// list on Group stays the serialized source of truth; rows here mirror it.
type GroupMember struct {
	GroupID string `gorm:"size:64;index;uniqueIndex:idx_group_member" json:"group_id"`
	UserID  string `gorm:"size:64;index;uniqueIndex:idx_group_member" json:"user_id"`
}

// HasParticipant reports whether the user belongs to the group.
func (g Group) HasParticipant(userID string) bool {
	if userID == "" {
		return false
	}
	for _, id := range g.Participants {
		if id == userID {
			return true
		}
	}
	return false
}
