package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/park-academy/park-api/internal/dto"
	"github.com/park-academy/park-api/internal/middleware"
	"github.com/park-academy/park-api/internal/models"
	"github.com/park-academy/park-api/internal/repository"
)

// UserService maintains display profiles synced from the identity provider.
type UserService interface {
	SyncProfile(ctx context.Context, identity middleware.Identity) (dto.ProfileResponse, error)
	Profile(ctx context.Context, userID string) (dto.ProfileResponse, error)
	UpdateProfile(ctx context.Context, userID string, payload dto.ProfileUpdateRequest) (dto.ProfileResponse, error)
}

type userService struct {
	users     repository.UserRepository
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewUserService constructs a user profile service.
func NewUserService(users repository.UserRepository, validate *validator.Validate, logger zerolog.Logger) UserService {
	return &userService{
		users:     users,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "user_service").Logger(),
		tracer:    otel.Tracer("github.com/park-academy/park-api/internal/service/user"),
	}
}

// SyncProfile mirrors the token's display fields into the local profile row.
// The admin flag is never touched here; only the admin API may change it.
func (s *userService) SyncProfile(ctx context.Context, identity middleware.Identity) (dto.ProfileResponse, error) {
	spanCtx, span := s.tracer.Start(ctx, "users.sync_profile")
	defer span.End()

	user := models.User{
		ID:          identity.UserID,
		DisplayName: strings.TrimSpace(s.sanitizer.Sanitize(identity.DisplayName)),
		Email:       identity.Email,
		PhotoURL:    identity.PhotoURL,
	}

	if user.DisplayName == "" {
		user.DisplayName = identity.UserID
	}

	if err := s.users.Upsert(spanCtx, &user); err != nil {
		span.RecordError(err)
		return dto.ProfileResponse{}, err
	}

	stored, err := s.users.FindByID(spanCtx, identity.UserID)
	if err != nil {
		span.RecordError(err)
		return dto.ProfileResponse{}, err
	}

	return dto.NewProfileResponse(stored), nil
}

func (s *userService) Profile(ctx context.Context, userID string) (dto.ProfileResponse, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return dto.ProfileResponse{}, err
	}

	return dto.NewProfileResponse(user), nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID string, payload dto.ProfileUpdateRequest) (dto.ProfileResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ProfileResponse{}, err
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return dto.ProfileResponse{}, err
	}

	if payload.DisplayName != nil {
		clean := strings.TrimSpace(s.sanitizer.Sanitize(*payload.DisplayName))
		if clean != "" {
			user.DisplayName = clean
		}
	}
	if payload.PhotoURL != nil {
		user.PhotoURL = *payload.PhotoURL
	}

	if err := s.users.Upsert(ctx, &user); err != nil {
		return dto.ProfileResponse{}, err
	}

	return dto.NewProfileResponse(user), nil
}
