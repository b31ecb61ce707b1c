package service

import (
	"github.com/park-academy/park-api/internal/dto"
	"github.com/park-academy/park-api/internal/models"
)

// VisibleMessages maps the raw ordered message list of a thread onto what a
// single viewer is allowed to see. It is a pure function: safe to call on
// every snapshot, never fails, and preserves chronological order.
//
// Rules, applied per message in order:
//  1. The viewer hid it for themself: dropped entirely, as if it never
//     existed for them.
//  2. Deleted for everyone: rendered with the fixed placeholder body and no
//     actions. This state is terminal.
//  3. Otherwise rendered unmodified. Only the sender ever gets delete
//     actions; other viewers get none.
func VisibleMessages(messages []models.Message, viewer string) []dto.RenderedMessage {
	rendered := make([]dto.RenderedMessage, 0, len(messages))

	for _, message := range messages {
		if message.DeletedForUser(viewer) {
			continue
		}

		entry := dto.RenderedMessage{
			ID:        message.ID,
			SenderID:  message.SenderID,
			Body:      message.Body,
			ReadBy:    append([]string(nil), message.ReadBy...),
			CreatedAt: message.CreatedAt,
		}

		if message.DeletedForEveryone {
			entry.Deleted = true
			entry.Body = models.DeletedBody
		} else if message.SenderID == viewer {
			entry.Actions = dto.MessageActions{
				CanDeleteForEveryone: true,
				CanDeleteForMe:       true,
			}
		}

		rendered = append(rendered, entry)
	}

	return rendered
}

// NewThreadSnapshot renders the full visible state of a thread for a viewer.
func NewThreadSnapshot(kind models.ThreadKind, threadID string, messages []models.Message, viewer string) dto.ThreadSnapshot {
	return dto.ThreadSnapshot{
		ThreadKind: kind,
		ThreadID:   threadID,
		Messages:   VisibleMessages(messages, viewer),
	}
}

// UnreadMessageIDs returns the ids the viewer should mark read on display:
// messages they did not author, have not hidden, and are not yet in the
// receipt set of. The guard keeps render paths from issuing redundant writes.
func UnreadMessageIDs(messages []models.Message, viewer string) []uint {
	var ids []uint
	for _, message := range messages {
		if message.SenderID == viewer {
			continue
		}
		if message.DeletedForUser(viewer) {
			continue
		}
		if message.ReadByUser(viewer) {
			continue
		}
		ids = append(ids, message.ID)
	}
	return ids
}
