package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/park-academy/park-api/internal/dto"
	"github.com/park-academy/park-api/internal/repository"
)

// ErrSelfDemotion indicates an admin trying to revoke their own role.
var ErrSelfDemotion = errors.New("admins cannot revoke their own role")

// AdminUserList couples a page of users with the total match count.
type AdminUserList struct {
	Users []dto.ProfileResponse `json:"users"`
	Total int64                 `json:"total"`
}

// AdminService exposes the moderation surface: user role management plus
// removal of any video or comment regardless of author.
type AdminService interface {
	ListUsers(ctx context.Context, query dto.AdminUserQuery) (AdminUserList, error)
	SetRole(ctx context.Context, actorID, userID string, payload dto.AdminRoleUpdateRequest) (dto.ProfileResponse, error)
	RemoveVideo(ctx context.Context, actorID string, videoID uint) error
	RemoveComment(ctx context.Context, actorID string, commentID uint) error
}

type adminService struct {
	users     repository.UserRepository
	videos    VideoService
	comments  CommentService
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewAdminService constructs the moderation service.
func NewAdminService(users repository.UserRepository, videos VideoService, comments CommentService, validate *validator.Validate, logger zerolog.Logger) AdminService {
	return &adminService{
		users:     users,
		videos:    videos,
		comments:  comments,
		validator: validate,
		logger:    logger.With().Str("component", "admin_service").Logger(),
		tracer:    otel.Tracer("github.com/park-academy/park-api/internal/service/admin"),
	}
}

func (s *adminService) ListUsers(ctx context.Context, query dto.AdminUserQuery) (AdminUserList, error) {
	if err := s.validator.Struct(query); err != nil {
		return AdminUserList{}, err
	}

	limit := query.Limit
	if limit <= 0 {
		limit = 25
	}

	users, total, err := s.users.List(ctx, query.Search, limit, query.Offset)
	if err != nil {
		return AdminUserList{}, err
	}

	return AdminUserList{
		Users: dto.NewProfileResponseSlice(users),
		Total: total,
	}, nil
}

func (s *adminService) SetRole(ctx context.Context, actorID, userID string, payload dto.AdminRoleUpdateRequest) (dto.ProfileResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ProfileResponse{}, err
	}

	if actorID == userID && !*payload.IsAdmin {
		return dto.ProfileResponse{}, ErrSelfDemotion
	}

	spanCtx, span := s.tracer.Start(ctx, "admin.set_role", trace.WithAttributes(
		attribute.String("admin.actor_id", actorID),
		attribute.String("admin.target_id", userID),
		attribute.Bool("admin.is_admin", *payload.IsAdmin),
	))
	defer span.End()

	user, err := s.users.SetAdmin(spanCtx, userID, *payload.IsAdmin)
	if err != nil {
		span.RecordError(err)
		return dto.ProfileResponse{}, err
	}

	s.logger.Info().
		Str("actor_id", actorID).
		Str("target_id", userID).
		Bool("is_admin", *payload.IsAdmin).
		Msg("admin role changed")

	return dto.NewProfileResponse(user), nil
}

func (s *adminService) RemoveVideo(ctx context.Context, actorID string, videoID uint) error {
	s.logger.Info().Str("actor_id", actorID).Uint("video_id", videoID).Msg("admin removing video")
	return s.videos.Delete(ctx, videoID, actorID, true)
}

func (s *adminService) RemoveComment(ctx context.Context, actorID string, commentID uint) error {
	s.logger.Info().Str("actor_id", actorID).Uint("comment_id", commentID).Msg("admin removing comment")
	return s.comments.Delete(ctx, commentID, actorID, true)
}
