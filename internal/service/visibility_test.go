package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/park-academy/park-api/internal/models"
)

func fixtureMessages() []models.Message {
	base := time.Now().Add(-time.Hour)
	return []models.Message{
		{ID: 1, SenderID: "alice", Body: "hi bob", CreatedAt: base},
		{ID: 2, SenderID: "bob", Body: "hi alice", ReadBy: []string{"alice"}, CreatedAt: base.Add(time.Minute)},
		{ID: 3, SenderID: "alice", Body: "typo", DeletedForEveryone: true, CreatedAt: base.Add(2 * time.Minute)},
		{ID: 4, SenderID: "bob", Body: "just for me gone", DeletedFor: []string{"bob"}, CreatedAt: base.Add(3 * time.Minute)},
	}
}

func TestVisibleMessagesDropsMessagesHiddenForViewer(t *testing.T) {
	rendered := VisibleMessages(fixtureMessages(), "bob")

	ids := make([]uint, 0, len(rendered))
	for _, entry := range rendered {
		ids = append(ids, entry.ID)
	}
	require.Equal(t, []uint{1, 2, 3}, ids)

	// The other participant still sees the hidden message.
	rendered = VisibleMessages(fixtureMessages(), "alice")
	require.Len(t, rendered, 4)
}

func TestVisibleMessagesRendersGlobalDeleteAsPlaceholder(t *testing.T) {
	for _, viewer := range []string{"alice", "bob"} {
		rendered := VisibleMessages(fixtureMessages(), viewer)
		for _, entry := range rendered {
			if entry.ID != 3 {
				continue
			}
			require.True(t, entry.Deleted)
			require.Equal(t, models.DeletedBody, entry.Body)
			require.False(t, entry.Actions.CanDeleteForEveryone)
			require.False(t, entry.Actions.CanDeleteForMe)
		}
	}
}

func TestVisibleMessagesGrantsActionsToSenderOnly(t *testing.T) {
	rendered := VisibleMessages(fixtureMessages(), "alice")
	for _, entry := range rendered {
		switch entry.ID {
		case 1:
			require.True(t, entry.Actions.CanDeleteForEveryone)
			require.True(t, entry.Actions.CanDeleteForMe)
		case 2, 4:
			require.False(t, entry.Actions.CanDeleteForEveryone)
			require.False(t, entry.Actions.CanDeleteForMe)
		}
	}
}

func TestVisibleMessagesPreservesOrderAndReadBy(t *testing.T) {
	rendered := VisibleMessages(fixtureMessages(), "alice")
	for i := 1; i < len(rendered); i++ {
		require.False(t, rendered[i].CreatedAt.Before(rendered[i-1].CreatedAt))
	}
	require.Equal(t, []string{"alice"}, rendered[1].ReadBy)
}

func TestUnreadMessageIDsSkipsOwnHiddenAndAlreadyRead(t *testing.T) {
	messages := fixtureMessages()

	// bob authored 2 and 4, hid 4, and has read nothing else.
	require.Equal(t, []uint{1, 3}, UnreadMessageIDs(messages, "bob"))

	// alice already read 2, authored 1 and 3, never hid anything.
	require.Equal(t, []uint{4}, UnreadMessageIDs(messages, "alice"))
}

func TestNewThreadSnapshotCarriesThreadIdentity(t *testing.T) {
	snapshot := NewThreadSnapshot(models.ThreadKindPrivate, "alice__bob", fixtureMessages(), "bob")
	require.Equal(t, models.ThreadKindPrivate, snapshot.ThreadKind)
	require.Equal(t, "alice__bob", snapshot.ThreadID)
	require.Len(t, snapshot.Messages, 3)
}
