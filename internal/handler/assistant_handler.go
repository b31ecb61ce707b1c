package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/park-academy/park-api/internal/dto"
	"github.com/park-academy/park-api/internal/service"
	"github.com/park-academy/park-api/internal/utils"
)

// AssistantHandler exposes the AI study assistant endpoint.
type AssistantHandler struct {
	service service.AssistantService
	logger  zerolog.Logger
}

// NewAssistantHandler constructs a handler instance.
func NewAssistantHandler(service service.AssistantService, logger zerolog.Logger) *AssistantHandler {
	return &AssistantHandler{
		service: service,
		logger:  logger.With().Str("component", "assistant_handler").Logger(),
	}
}

// Register binds the assistant routes.
func (h *AssistantHandler) Register(router fiber.Router) {
	router.Post("/chat", h.chat)
}

func (h *AssistantHandler) chat(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	var payload dto.AssistantChatRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.Chat(withRequestContext(c), userID, payload)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("assistant chat failed")
		return utils.SendError(c, statusForError(err), err.Error())
	}

	return utils.SendSuccess(c, "assistant reply", response)
}
