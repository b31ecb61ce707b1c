package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/park-academy/park-api/internal/models"
)

func seedMessage(t *testing.T, repo MessageRepository, threadID, sender, body string) models.Message {
	t.Helper()
	message := models.Message{
		ThreadKind: models.ThreadKindPrivate,
		ThreadID:   threadID,
		SenderID:   sender,
		Body:       body,
	}
	require.NoError(t, repo.Create(context.Background(), &message))
	return message
}

func TestMessageListByThreadOrdersChronologically(t *testing.T) {
	db := setupTestDB(t, &models.Message{})
	repo := NewMessageRepository(db)
	ctx := context.Background()

	first := seedMessage(t, repo, "alice__bob", "alice", "one")
	second := seedMessage(t, repo, "alice__bob", "bob", "two")
	seedMessage(t, repo, "alice__carol", "alice", "elsewhere")

	messages, err := repo.ListByThread(ctx, models.ThreadKindPrivate, "alice__bob")
	require.NoError(t, err)
	require.Len(t, messages, 2)
	require.Equal(t, first.ID, messages[0].ID)
	require.Equal(t, second.ID, messages[1].ID)
}

func TestMessageAddReadIsIdempotent(t *testing.T) {
	db := setupTestDB(t, &models.Message{})
	repo := NewMessageRepository(db)
	ctx := context.Background()

	message := seedMessage(t, repo, "alice__bob", "alice", "hello")

	updated, changed, err := repo.AddRead(ctx, message.ID, "bob")
	require.NoError(t, err)
	require.True(t, changed)
	require.True(t, updated.ReadByUser("bob"))

	// A repeat receipt is a no-op, not a duplicate entry.
	updated, changed, err = repo.AddRead(ctx, message.ID, "bob")
	require.NoError(t, err)
	require.False(t, changed)
	require.Len(t, updated.ReadBy, 1)
}

func TestMessageAddDeletedForHidesPerUser(t *testing.T) {
	db := setupTestDB(t, &models.Message{})
	repo := NewMessageRepository(db)
	ctx := context.Background()

	message := seedMessage(t, repo, "alice__bob", "alice", "hello")

	updated, changed, err := repo.AddDeletedFor(ctx, message.ID, "bob")
	require.NoError(t, err)
	require.True(t, changed)
	require.True(t, updated.DeletedForUser("bob"))
	require.False(t, updated.DeletedForUser("alice"))

	_, changed, err = repo.AddDeletedFor(ctx, message.ID, "bob")
	require.NoError(t, err)
	require.False(t, changed)
}

func TestMessageMarkDeletedForEveryone(t *testing.T) {
	db := setupTestDB(t, &models.Message{})
	repo := NewMessageRepository(db)
	ctx := context.Background()

	message := seedMessage(t, repo, "alice__bob", "alice", "secret")

	updated, err := repo.MarkDeletedForEveryone(ctx, message.ID)
	require.NoError(t, err)
	require.True(t, updated.DeletedForEveryone)
	require.Equal(t, models.DeletedBody, updated.Body)

	// Terminal state: repeating changes nothing.
	again, err := repo.MarkDeletedForEveryone(ctx, message.ID)
	require.NoError(t, err)
	require.True(t, again.DeletedForEveryone)
	require.Equal(t, models.DeletedBody, again.Body)
}
