package handler

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/park-academy/park-api/internal/middleware"
	"github.com/park-academy/park-api/internal/models"
	"github.com/park-academy/park-api/internal/service"
)

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func parseUintParam(c *fiber.Ctx, key string) (uint, error) {
	value := strings.TrimSpace(c.Params(key))
	if value == "" {
		return 0, errors.New(key + " is required")
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, errors.New("invalid " + key)
	}
	return uint(parsed), nil
}

func parseThreadKind(value string) (models.ThreadKind, error) {
	switch models.ThreadKind(strings.TrimSpace(value)) {
	case models.ThreadKindPrivate:
		return models.ThreadKindPrivate, nil
	case models.ThreadKindGroup:
		return models.ThreadKindGroup, nil
	default:
		return "", errors.New("thread kind must be private or group")
	}
}

func userIDFromContext(c *fiber.Ctx) string {
	if v := c.Locals("user_id"); v != nil {
		if id, ok := v.(string); ok {
			return strings.TrimSpace(id)
		}
	}
	return ""
}

func userRoleFromContext(c *fiber.Ctx) string {
	if v := c.Locals("user_role"); v != nil {
		if role, ok := v.(string); ok {
			return role
		}
	}
	return ""
}

func isAdminFromContext(c *fiber.Ctx) bool {
	return userRoleFromContext(c) == "admin"
}

func withRequestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}

// statusForError maps service sentinel errors onto HTTP status codes so every
// handler reports them the same way.
func statusForError(err error) int {
	switch {
	case err == nil:
		return fiber.StatusOK
	case isValidationError(err),
		errors.Is(err, service.ErrEmptyMessage),
		errors.Is(err, service.ErrSelfConversation),
		errors.Is(err, service.ErrInvalidNoteContent):
		return fiber.StatusBadRequest
	case errors.Is(err, service.ErrNotParticipant),
		errors.Is(err, service.ErrNotSender),
		errors.Is(err, service.ErrNotGroupCreator),
		errors.Is(err, service.ErrNotUploader),
		errors.Is(err, service.ErrNotCommentAuthor),
		errors.Is(err, service.ErrNotNoteOwner),
		errors.Is(err, service.ErrSelfDemotion):
		return fiber.StatusForbidden
	case errors.Is(err, service.ErrMessageNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrThumbnailTooLarge):
		return fiber.StatusRequestEntityTooLarge
	case errors.Is(err, service.ErrThumbnailTypeNotAllowed):
		return fiber.StatusUnsupportedMediaType
	case errors.Is(err, service.ErrMediaDestroyFailed):
		return fiber.StatusBadGateway
	case errors.Is(err, service.ErrAssistantUnavailable):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}
