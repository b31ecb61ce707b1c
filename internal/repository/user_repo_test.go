package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/park-academy/park-api/internal/models"
)

func TestUserUpsertNeverTouchesAdminFlag(t *testing.T) {
	db := setupTestDB(t, &models.User{})
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := models.User{ID: "alice", DisplayName: "Alice", Email: "alice@example.com"}
	require.NoError(t, repo.Upsert(ctx, &user))

	_, err := repo.SetAdmin(ctx, "alice", true)
	require.NoError(t, err)

	// A later token sync must not revoke the role.
	refreshed := models.User{ID: "alice", DisplayName: "Alice A.", Email: "alice@example.com"}
	require.NoError(t, repo.Upsert(ctx, &refreshed))

	stored, err := repo.FindByID(ctx, "alice")
	require.NoError(t, err)
	require.True(t, stored.IsAdmin)
	require.Equal(t, "Alice A.", stored.DisplayName)
}

func TestUserListFiltersBySearch(t *testing.T) {
	db := setupTestDB(t, &models.User{})
	repo := NewUserRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &models.User{ID: "u1", DisplayName: "Alice Park", Email: "alice@example.com"}))
	require.NoError(t, repo.Upsert(ctx, &models.User{ID: "u2", DisplayName: "Bob Stone", Email: "bob@example.com"}))

	users, total, err := repo.List(ctx, "alice", 10, 0)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Len(t, users, 1)
	require.Equal(t, "u1", users[0].ID)

	users, total, err = repo.List(ctx, "", 10, 0)
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Len(t, users, 2)
}
