package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/park-academy/park-api/internal/dto"
	"github.com/park-academy/park-api/internal/models"
	"github.com/park-academy/park-api/internal/repository"
)

type threadFixture struct {
	service       ThreadService
	conversations repository.ConversationRepository
	groups        repository.GroupRepository
	users         repository.UserRepository
	redis         *miniredis.Miniredis
}

func newThreadFixture(t *testing.T) threadFixture {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Conversation{}, &models.Group{}, &models.GroupMember{}, &models.Message{}))

	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	conversations := repository.NewConversationRepository(db)
	groups := repository.NewGroupRepository(db)
	users := repository.NewUserRepository(db)

	svc := NewThreadService(conversations, groups, users, validator.New(validator.WithRequiredStructEnabled()), client, time.Minute, zerolog.Nop())

	return threadFixture{
		service:       svc,
		conversations: conversations,
		groups:        groups,
		users:         users,
		redis:         server,
	}
}

func TestStartConversationConvergesOnOneThread(t *testing.T) {
	f := newThreadFixture(t)
	ctx := context.Background()

	first, err := f.service.StartConversation(ctx, "alice", "bob")
	require.NoError(t, err)
	second, err := f.service.StartConversation(ctx, "bob", "alice")
	require.NoError(t, err)

	require.Equal(t, first.ID, second.ID)
	require.Equal(t, "bob", first.PeerID)
	require.Equal(t, "alice", second.PeerID)
}

func TestStartConversationRejectsSelf(t *testing.T) {
	f := newThreadFixture(t)

	_, err := f.service.StartConversation(context.Background(), "alice", "alice")
	require.ErrorIs(t, err, ErrSelfConversation)
}

func TestDirectoryResolvesPeerProfiles(t *testing.T) {
	f := newThreadFixture(t)
	ctx := context.Background()

	require.NoError(t, f.users.Upsert(ctx, &models.User{ID: "bob", DisplayName: "Bob Stone", PhotoURL: "https://cdn.example.com/bob.png"}))

	_, err := f.service.StartConversation(ctx, "alice", "bob")
	require.NoError(t, err)
	_, err = f.service.StartConversation(ctx, "alice", "ghost")
	require.NoError(t, err)

	directory, err := f.service.Directory(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, directory.Conversations, 2)

	byPeer := map[string]dto.ConversationResponse{}
	for _, conversation := range directory.Conversations {
		byPeer[conversation.PeerID] = conversation
	}

	require.Equal(t, "Bob Stone", byPeer["bob"].PeerName)
	require.Equal(t, "https://cdn.example.com/bob.png", byPeer["bob"].PeerPhotoURL)

	// Unknown peers degrade to the raw id instead of failing the listing.
	require.Equal(t, "ghost", byPeer["ghost"].PeerName)
}

func TestDirectoryUsesCacheUntilInvalidated(t *testing.T) {
	f := newThreadFixture(t)
	ctx := context.Background()

	_, err := f.service.StartConversation(ctx, "alice", "bob")
	require.NoError(t, err)

	directory, err := f.service.Directory(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, directory.Conversations, 1)
	require.True(t, f.redis.Exists("park:directory:alice"))

	// A new thread invalidates the cached listing for every participant.
	_, err = f.service.StartConversation(ctx, "carol", "alice")
	require.NoError(t, err)
	require.False(t, f.redis.Exists("park:directory:alice"))

	directory, err = f.service.Directory(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, directory.Conversations, 2)
}

func TestCreateGroupAlwaysIncludesCreator(t *testing.T) {
	f := newThreadFixture(t)
	ctx := context.Background()

	group, err := f.service.CreateGroup(ctx, "alice", dto.CreateGroupRequest{
		Name:         "study circle",
		Participants: []string{"bob", "bob", "carol"},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"alice", "bob", "carol"}, group.Participants)
	require.Equal(t, "alice", group.CreatedBy)
}

func TestDeleteGroupIsCreatorOnly(t *testing.T) {
	f := newThreadFixture(t)
	ctx := context.Background()

	group, err := f.service.CreateGroup(ctx, "alice", dto.CreateGroupRequest{
		Name:         "temp",
		Participants: []string{"bob"},
	})
	require.NoError(t, err)

	err = f.service.DeleteGroup(ctx, "bob", group.ID)
	require.ErrorIs(t, err, ErrNotGroupCreator)

	require.NoError(t, f.service.DeleteGroup(ctx, "alice", group.ID))

	directory, err := f.service.Directory(ctx, "bob")
	require.NoError(t, err)
	require.Empty(t, directory.Groups)
}
