package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/park-academy/park-api/internal/dto"
	"github.com/park-academy/park-api/internal/service"
	"github.com/park-academy/park-api/internal/utils"
)

// ThreadHandler provides HTTP endpoints for thread lifecycle and the
// per-user thread directory.
type ThreadHandler struct {
	service service.ThreadService
	logger  zerolog.Logger
}

// NewThreadHandler constructs a handler instance.
func NewThreadHandler(service service.ThreadService, logger zerolog.Logger) *ThreadHandler {
	return &ThreadHandler{
		service: service,
		logger:  logger.With().Str("component", "thread_handler").Logger(),
	}
}

// Register binds the thread routes.
func (h *ThreadHandler) Register(router fiber.Router) {
	router.Get("/directory", h.directory)
	router.Post("/conversations", h.startConversation)
	router.Post("/groups", h.createGroup)
	router.Delete("/groups/:id", h.deleteGroup)
}

func (h *ThreadHandler) directory(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	directory, err := h.service.Directory(withRequestContext(c), userID)
	if err != nil {
		// A broken directory load renders as an empty list, not a failure.
		requestLogger(h.logger, c).Error().Err(err).Str("user_id", userID).Msg("directory load failed")
		directory = dto.DirectoryResponse{
			Conversations: []dto.ConversationResponse{},
			Groups:        []dto.GroupResponse{},
		}
	}

	return utils.SendSuccess(c, "directory", directory)
}

func (h *ThreadHandler) startConversation(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	var payload dto.StartConversationRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	peerID := strings.TrimSpace(payload.PeerID)
	if peerID == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "peer_id required")
	}

	conversation, err := h.service.StartConversation(withRequestContext(c), userID, peerID)
	if err != nil {
		return utils.SendError(c, statusForError(err), err.Error())
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "conversation ready", conversation)
}

func (h *ThreadHandler) createGroup(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	var payload dto.CreateGroupRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	group, err := h.service.CreateGroup(withRequestContext(c), userID, payload)
	if err != nil {
		return utils.SendError(c, statusForError(err), err.Error())
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "group created", group)
}

func (h *ThreadHandler) deleteGroup(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	groupID := strings.TrimSpace(c.Params("id"))
	if groupID == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "group id required")
	}

	if err := h.service.DeleteGroup(withRequestContext(c), userID, groupID); err != nil {
		return utils.SendError(c, statusForError(err), err.Error())
	}

	return utils.SendSuccess(c, "group deleted", nil)
}
