package models

import (
	"time"

	"gorm.io/datatypes"
)

// DeletedBody replaces the text of a message once it has been deleted for
// everyone. The replacement is irreversible.
const DeletedBody = "This message was deleted"

// Message belongs to exactly one thread, either a private conversation or a
// group. Both thread kinds share the same receipt field; the split
// readBy/read shape of the legacy store is unified here.
type Message struct {
	ID                 uint                        `gorm:"primaryKey" json:"id"`
	ThreadKind         ThreadKind                  `gorm:"size:16;index:idx_messages_thread" json:"thread_kind"`
	ThreadID           string                      `gorm:"size:160;index:idx_messages_thread" json:"thread_id"`
	SenderID           string                      `gorm:"size:64;index" json:"sender_id"`
	Body               string                      `gorm:"type:text" json:"body"`
	ReadBy             datatypes.JSONSlice[string] `json:"read_by"`
	DeletedFor         datatypes.JSONSlice[string] `json:"deleted_for"`
	DeletedForEveryone bool                        `gorm:"not null;default:false" json:"deleted_for_everyone"`
	CreatedAt          time.Time                   `gorm:"index" json:"created_at"`
	UpdatedAt          time.Time                   `json:"updated_at"`
}

// ReadByUser reports whether the user already appears in the receipt set.
func (m Message) ReadByUser(userID string) bool {
	return containsID(m.ReadBy, userID)
}

// DeletedForUser reports whether the user hid this message for themself.
func (m Message) DeletedForUser(userID string) bool {
	return containsID(m.DeletedFor, userID)
}

func containsID(set datatypes.JSONSlice[string], userID string) bool {
	for _, id := range set {
		if id == userID {
			return true
		}
	}
	return false
}
