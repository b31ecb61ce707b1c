package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/park-academy/park-api/internal/models"
)

func setupTestDB(t *testing.T, entities ...interface{}) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(entities...))
	return db
}

func TestConversationGetOrCreateIsKeyedOnThePair(t *testing.T) {
	db := setupTestDB(t, &models.Conversation{})
	repo := NewConversationRepository(db)
	ctx := context.Background()

	first, err := repo.GetOrCreate(ctx, "alice", "bob")
	require.NoError(t, err)

	// Opening from the other side must land on the same row.
	second, err := repo.GetOrCreate(ctx, "bob", "alice")
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, db.Model(&models.Conversation{}).Count(&count).Error)
	require.EqualValues(t, 1, count)

	require.Equal(t, models.ConversationKey("bob", "alice"), first.ID)
	require.ElementsMatch(t, []string{"alice", "bob"}, first.Participants())
}

func TestConversationListByParticipantOrdersByRecency(t *testing.T) {
	db := setupTestDB(t, &models.Conversation{})
	repo := NewConversationRepository(db)
	ctx := context.Background()

	older, err := repo.GetOrCreate(ctx, "alice", "bob")
	require.NoError(t, err)
	newer, err := repo.GetOrCreate(ctx, "alice", "carol")
	require.NoError(t, err)

	require.NoError(t, repo.UpdateSummary(ctx, older.ID, "hi", "bob", time.Now().Add(-time.Hour)))
	require.NoError(t, repo.UpdateSummary(ctx, newer.ID, "hello", "carol", time.Now()))

	conversations, err := repo.ListByParticipant(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, conversations, 2)
	require.Equal(t, newer.ID, conversations[0].ID)
	require.Equal(t, older.ID, conversations[1].ID)

	// Not a participant of anything.
	conversations, err = repo.ListByParticipant(ctx, "mallory")
	require.NoError(t, err)
	require.Empty(t, conversations)
}

func TestConversationUpdateSummary(t *testing.T) {
	db := setupTestDB(t, &models.Conversation{})
	repo := NewConversationRepository(db)
	ctx := context.Background()

	conversation, err := repo.GetOrCreate(ctx, "alice", "bob")
	require.NoError(t, err)

	at := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.UpdateSummary(ctx, conversation.ID, "see you", "alice", at))

	stored, err := repo.FindByID(ctx, conversation.ID)
	require.NoError(t, err)
	require.Equal(t, "see you", stored.LastMessage)
	require.Equal(t, "alice", stored.LastMessageBy)
	require.NotNil(t, stored.LastMessageAt)
	require.WithinDuration(t, at, *stored.LastMessageAt, time.Second)
}
