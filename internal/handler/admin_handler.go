package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/park-academy/park-api/internal/dto"
	"github.com/park-academy/park-api/internal/service"
	"github.com/park-academy/park-api/internal/utils"
)

// AdminHandler exposes the moderation surface. Routes must be registered
// behind the admin role guard.
type AdminHandler struct {
	service service.AdminService
	logger  zerolog.Logger
}

// NewAdminHandler constructs a handler instance.
func NewAdminHandler(service service.AdminService, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		service: service,
		logger:  logger.With().Str("component", "admin_handler").Logger(),
	}
}

// Register binds the admin routes.
func (h *AdminHandler) Register(router fiber.Router) {
	router.Get("/users", h.listUsers)
	router.Patch("/users/:id/role", h.setRole)
	router.Delete("/videos/:id", h.removeVideo)
	router.Delete("/comments/:id", h.removeComment)
}

func (h *AdminHandler) listUsers(c *fiber.Ctx) error {
	var query dto.AdminUserQuery
	if err := c.QueryParser(&query); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query")
	}

	list, err := h.service.ListUsers(withRequestContext(c), query)
	if err != nil {
		return utils.SendError(c, statusForError(err), err.Error())
	}

	return utils.OK(c, list.Users, "users", fiber.Map{"total": list.Total})
}

func (h *AdminHandler) setRole(c *fiber.Ctx) error {
	actorID := userIDFromContext(c)
	targetID := c.Params("id")
	if targetID == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "user id required")
	}

	var payload dto.AdminRoleUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	user, err := h.service.SetRole(withRequestContext(c), actorID, targetID, payload)
	if err != nil {
		return utils.SendError(c, statusForError(err), err.Error())
	}

	return utils.SendSuccess(c, "role updated", user)
}

func (h *AdminHandler) removeVideo(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.RemoveVideo(withRequestContext(c), userIDFromContext(c), id); err != nil {
		return utils.SendError(c, statusForError(err), err.Error())
	}

	return utils.SendSuccess(c, "video removed", nil)
}

func (h *AdminHandler) removeComment(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.RemoveComment(withRequestContext(c), userIDFromContext(c), id); err != nil {
		return utils.SendError(c, statusForError(err), err.Error())
	}

	return utils.SendSuccess(c, "comment removed", nil)
}
