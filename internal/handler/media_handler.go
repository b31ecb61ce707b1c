package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/park-academy/park-api/internal/dto"
	"github.com/park-academy/park-api/internal/service"
	"github.com/park-academy/park-api/internal/utils"
)

// MediaHandler exposes the authenticated CDN relay endpoints.
type MediaHandler struct {
	service service.MediaService
	logger  zerolog.Logger
}

// NewMediaHandler constructs a handler instance.
func NewMediaHandler(service service.MediaService, logger zerolog.Logger) *MediaHandler {
	return &MediaHandler{
		service: service,
		logger:  logger.With().Str("component", "media_handler").Logger(),
	}
}

// Register binds the media relay routes.
func (h *MediaHandler) Register(router fiber.Router) {
	router.Post("/delete", h.delete)
}

func (h *MediaHandler) delete(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	var payload dto.MediaDeleteRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.Delete(withRequestContext(c), userID, payload)
	if err != nil {
		return utils.SendError(c, statusForError(err), err.Error())
	}

	return utils.SendSuccess(c, "asset deleted", response)
}
