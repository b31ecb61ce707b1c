package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/park-academy/park-api/internal/models"
)

func TestGroupCreateAndListByParticipant(t *testing.T) {
	db := setupTestDB(t, &models.Group{}, &models.GroupMember{})
	repo := NewGroupRepository(db)
	ctx := context.Background()

	group := models.Group{
		ID:           uuid.NewString(),
		Name:         "study circle",
		CreatedBy:    "alice",
		Participants: []string{"alice", "bob"},
	}
	require.NoError(t, repo.Create(ctx, &group))

	for _, member := range []string{"alice", "bob"} {
		groups, err := repo.ListByParticipant(ctx, member)
		require.NoError(t, err)
		require.Len(t, groups, 1)
		require.Equal(t, group.ID, groups[0].ID)
	}

	groups, err := repo.ListByParticipant(ctx, "mallory")
	require.NoError(t, err)
	require.Empty(t, groups)
}

func TestGroupDeleteCascadeRemovesMessagesAndMembers(t *testing.T) {
	db := setupTestDB(t, &models.Group{}, &models.GroupMember{}, &models.Message{})
	repo := NewGroupRepository(db)
	messages := NewMessageRepository(db)
	ctx := context.Background()

	group := models.Group{
		ID:           uuid.NewString(),
		Name:         "temp",
		CreatedBy:    "alice",
		Participants: []string{"alice", "bob"},
	}
	require.NoError(t, repo.Create(ctx, &group))

	message := models.Message{
		ThreadKind: models.ThreadKindGroup,
		ThreadID:   group.ID,
		SenderID:   "alice",
		Body:       "going away",
	}
	require.NoError(t, messages.Create(ctx, &message))

	require.NoError(t, repo.DeleteCascade(ctx, group.ID))

	_, err := repo.FindByID(ctx, group.ID)
	require.Error(t, err)

	remaining, err := messages.ListByThread(ctx, models.ThreadKindGroup, group.ID)
	require.NoError(t, err)
	require.Empty(t, remaining)

	var members int64
	require.NoError(t, db.Model(&models.GroupMember{}).Where("group_id = ?", group.ID).Count(&members).Error)
	require.EqualValues(t, 0, members)
}
