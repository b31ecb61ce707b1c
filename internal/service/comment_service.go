package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/park-academy/park-api/internal/dto"
	"github.com/park-academy/park-api/internal/models"
	"github.com/park-academy/park-api/internal/repository"
)

// ErrNotCommentAuthor indicates a comment delete by somebody other than its author.
var ErrNotCommentAuthor = errors.New("only the author may delete this comment")

// CommentService owns public comments on videos.
type CommentService interface {
	Create(ctx context.Context, videoID uint, authorID string, payload dto.CommentCreateRequest) (dto.CommentResponse, error)
	ListByVideo(ctx context.Context, videoID uint, limit, offset int) ([]dto.CommentResponse, error)
	Delete(ctx context.Context, id uint, userID string, isAdmin bool) error
}

type commentService struct {
	comments      repository.CommentRepository
	videos        repository.VideoRepository
	users         repository.UserRepository
	notifications NotificationPublisher
	validator     *validator.Validate
	sanitizer     *bluemonday.Policy
	logger        zerolog.Logger
	tracer        trace.Tracer
}

// NewCommentService constructs a comment service.
func NewCommentService(
	comments repository.CommentRepository,
	videos repository.VideoRepository,
	users repository.UserRepository,
	notifications NotificationPublisher,
	validate *validator.Validate,
	logger zerolog.Logger,
) CommentService {
	return &commentService{
		comments:      comments,
		videos:        videos,
		users:         users,
		notifications: notifications,
		validator:     validate,
		sanitizer:     bluemonday.StrictPolicy(),
		logger:        logger.With().Str("component", "comment_service").Logger(),
		tracer:        otel.Tracer("github.com/park-academy/park-api/internal/service/comment"),
	}
}

// Create posts a comment with the author's display profile denormalized onto
// it, so listings render without a join. The video owner gets a notification
// unless they commented on their own video.
func (s *commentService) Create(ctx context.Context, videoID uint, authorID string, payload dto.CommentCreateRequest) (dto.CommentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CommentResponse{}, err
	}

	body := strings.TrimSpace(s.sanitizer.Sanitize(payload.Body))
	if body == "" {
		return dto.CommentResponse{}, ErrEmptyMessage
	}

	spanCtx, span := s.tracer.Start(ctx, "comments.create", trace.WithAttributes(
		attribute.Int("video.id", int(videoID)),
	))
	defer span.End()

	video, err := s.videos.FindByID(spanCtx, videoID)
	if err != nil {
		span.RecordError(err)
		return dto.CommentResponse{}, err
	}

	comment := models.Comment{
		VideoID:    videoID,
		AuthorID:   authorID,
		AuthorName: authorID,
		Body:       body,
	}

	if author, err := s.users.FindByID(spanCtx, authorID); err == nil {
		if author.DisplayName != "" {
			comment.AuthorName = author.DisplayName
		}
		comment.AuthorPhotoURL = author.PhotoURL
	}

	if err := s.comments.Create(spanCtx, &comment); err != nil {
		span.RecordError(err)
		return dto.CommentResponse{}, err
	}

	if s.notifications != nil && video.UploaderID != "" && video.UploaderID != authorID {
		if _, err := s.notifications.Publish(spanCtx, dto.NotificationCreateRequest{
			UserID:  video.UploaderID,
			Type:    "new_comment",
			Message: fmt.Sprintf("%s commented on %s", comment.AuthorName, video.Title),
		}); err != nil {
			s.logger.Warn().Err(err).Uint("video_id", videoID).Msg("failed to notify video owner")
		}
	}

	return dto.NewCommentResponse(comment), nil
}

func (s *commentService) ListByVideo(ctx context.Context, videoID uint, limit, offset int) ([]dto.CommentResponse, error) {
	comments, err := s.comments.ListByVideo(ctx, videoID, limit, offset)
	if err != nil {
		return nil, err
	}
	return dto.NewCommentResponseSlice(comments), nil
}

func (s *commentService) Delete(ctx context.Context, id uint, userID string, isAdmin bool) error {
	comment, err := s.comments.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if comment.AuthorID != userID && !isAdmin {
		return ErrNotCommentAuthor
	}

	return s.comments.Delete(ctx, id)
}
