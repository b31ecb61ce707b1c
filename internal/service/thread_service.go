package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/park-academy/park-api/internal/dto"
	"github.com/park-academy/park-api/internal/models"
	"github.com/park-academy/park-api/internal/repository"
)

var (
	// ErrSelfConversation indicates an attempt to open a thread with oneself.
	ErrSelfConversation = errors.New("cannot start a conversation with yourself")
	// ErrNotGroupCreator indicates a group delete by somebody other than its creator.
	ErrNotGroupCreator = errors.New("only the group creator may delete the group")
)

// ThreadService owns thread lifecycle and the per-user thread directory.
type ThreadService interface {
	StartConversation(ctx context.Context, userID, peerID string) (dto.ConversationResponse, error)
	CreateGroup(ctx context.Context, userID string, payload dto.CreateGroupRequest) (dto.GroupResponse, error)
	DeleteGroup(ctx context.Context, userID, groupID string) error
	Directory(ctx context.Context, userID string) (dto.DirectoryResponse, error)
}

type threadService struct {
	conversations repository.ConversationRepository
	groups        repository.GroupRepository
	users         repository.UserRepository
	validator     *validator.Validate
	redis         *redis.Client
	cacheTTL      time.Duration
	logger        zerolog.Logger
	tracer        trace.Tracer
}

// NewThreadService constructs the thread directory service.
func NewThreadService(
	conversations repository.ConversationRepository,
	groups repository.GroupRepository,
	users repository.UserRepository,
	validate *validator.Validate,
	redisClient *redis.Client,
	cacheTTL time.Duration,
	logger zerolog.Logger,
) ThreadService {
	return &threadService{
		conversations: conversations,
		groups:        groups,
		users:         users,
		validator:     validate,
		redis:         redisClient,
		cacheTTL:      cacheTTL,
		logger:        logger.With().Str("component", "thread_service").Logger(),
		tracer:        otel.Tracer("github.com/park-academy/park-api/internal/service/thread"),
	}
}

func (s *threadService) StartConversation(ctx context.Context, userID, peerID string) (dto.ConversationResponse, error) {
	if userID == peerID {
		return dto.ConversationResponse{}, ErrSelfConversation
	}

	spanCtx, span := s.tracer.Start(ctx, "threads.start_conversation", trace.WithAttributes(
		attribute.String("conversation.user_id", userID),
		attribute.String("conversation.peer_id", peerID),
	))
	defer span.End()

	conversation, err := s.conversations.GetOrCreate(spanCtx, userID, peerID)
	if err != nil {
		span.RecordError(err)
		return dto.ConversationResponse{}, err
	}

	s.invalidateDirectory(spanCtx, userID, peerID)

	profiles := s.profiles(spanCtx, []string{peerID})
	return s.conversationResponse(conversation, userID, profiles), nil
}

func (s *threadService) CreateGroup(ctx context.Context, userID string, payload dto.CreateGroupRequest) (dto.GroupResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.GroupResponse{}, err
	}

	participants := uniqueWith(payload.Participants, userID)

	group := models.Group{
		ID:           uuid.NewString(),
		Name:         payload.Name,
		CreatedBy:    userID,
		Participants: participants,
	}

	if err := s.groups.Create(ctx, &group); err != nil {
		return dto.GroupResponse{}, err
	}

	s.invalidateDirectory(ctx, participants...)

	return dto.NewGroupResponse(group), nil
}

// DeleteGroup removes the group and cascades to every message it owns.
// Only the creator may do this.
func (s *threadService) DeleteGroup(ctx context.Context, userID, groupID string) error {
	group, err := s.groups.FindByID(ctx, groupID)
	if err != nil {
		return err
	}

	if group.CreatedBy != userID {
		return ErrNotGroupCreator
	}

	if err := s.groups.DeleteCascade(ctx, groupID); err != nil {
		return err
	}

	s.invalidateDirectory(ctx, group.Participants...)
	return nil
}

// Directory lists the user's threads in two sections, each sorted by recency.
// Peer profile lookups are best-effort: a failed lookup degrades a 1:1 entry
// to showing the raw peer id, it never fails the listing.
func (s *threadService) Directory(ctx context.Context, userID string) (dto.DirectoryResponse, error) {
	if cached, ok := s.cachedDirectory(ctx, userID); ok {
		return cached, nil
	}

	conversations, err := s.conversations.ListByParticipant(ctx, userID)
	if err != nil {
		return dto.DirectoryResponse{}, err
	}

	groups, err := s.groups.ListByParticipant(ctx, userID)
	if err != nil {
		return dto.DirectoryResponse{}, err
	}

	peerIDs := make([]string, 0, len(conversations))
	for _, conversation := range conversations {
		if peer := conversation.Peer(userID); peer != "" {
			peerIDs = append(peerIDs, peer)
		}
	}

	profiles := s.profiles(ctx, peerIDs)

	directory := dto.DirectoryResponse{
		Conversations: make([]dto.ConversationResponse, 0, len(conversations)),
		Groups:        dto.NewGroupResponseSlice(groups),
	}
	for _, conversation := range conversations {
		directory.Conversations = append(directory.Conversations, s.conversationResponse(conversation, userID, profiles))
	}

	s.cacheDirectory(ctx, userID, directory)

	return directory, nil
}

// profiles resolves display profiles, swallowing lookup failures.
func (s *threadService) profiles(ctx context.Context, ids []string) map[string]models.User {
	resolved := make(map[string]models.User, len(ids))
	if len(ids) == 0 {
		return resolved
	}

	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		s.logger.Warn().Err(err).Msg("peer profile lookup failed, degrading to raw ids")
		return resolved
	}

	for _, user := range users {
		resolved[user.ID] = user
	}
	return resolved
}

func (s *threadService) conversationResponse(conversation models.Conversation, viewer string, profiles map[string]models.User) dto.ConversationResponse {
	peerID := conversation.Peer(viewer)

	response := dto.ConversationResponse{
		ID:            conversation.ID,
		PeerID:        peerID,
		PeerName:      peerID,
		LastMessage:   conversation.LastMessage,
		LastMessageAt: conversation.LastMessageAt,
		LastMessageBy: conversation.LastMessageBy,
		CreatedAt:     conversation.CreatedAt,
	}

	if profile, ok := profiles[peerID]; ok && profile.DisplayName != "" {
		response.PeerName = profile.DisplayName
		response.PeerPhotoURL = profile.PhotoURL
	}

	return response
}

func (s *threadService) cachedDirectory(ctx context.Context, userID string) (dto.DirectoryResponse, bool) {
	if s.redis == nil || s.cacheTTL <= 0 {
		return dto.DirectoryResponse{}, false
	}

	raw, err := s.redis.Get(ctx, directoryCacheKey(userID)).Result()
	if err != nil {
		return dto.DirectoryResponse{}, false
	}

	var directory dto.DirectoryResponse
	if err := json.Unmarshal([]byte(raw), &directory); err != nil {
		s.logger.Warn().Err(err).Msg("failed to unmarshal cached directory")
		return dto.DirectoryResponse{}, false
	}

	return directory, true
}

func (s *threadService) cacheDirectory(ctx context.Context, userID string, directory dto.DirectoryResponse) {
	if s.redis == nil || s.cacheTTL <= 0 {
		return
	}

	payload, err := json.Marshal(directory)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to marshal directory for cache")
		return
	}

	if err := s.redis.Set(ctx, directoryCacheKey(userID), payload, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to cache directory")
	}
}

func (s *threadService) invalidateDirectory(ctx context.Context, userIDs ...string) {
	if s.redis == nil || len(userIDs) == 0 {
		return
	}

	keys := make([]string, 0, len(userIDs))
	for _, userID := range userIDs {
		keys = append(keys, directoryCacheKey(userID))
	}

	if err := s.redis.Del(ctx, keys...).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate directory cache")
	}
}

func directoryCacheKey(userID string) string {
	return fmt.Sprintf("park:directory:%s", userID)
}

func uniqueWith(ids []string, required string) []string {
	seen := make(map[string]struct{}, len(ids)+1)
	out := make([]string, 0, len(ids)+1)

	for _, id := range append([]string{required}, ids...) {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}

	return out
}
