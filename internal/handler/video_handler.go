package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/park-academy/park-api/internal/dto"
	"github.com/park-academy/park-api/internal/service"
	"github.com/park-academy/park-api/internal/utils"
)

// VideoHandler provides HTTP endpoints for video metadata and comments.
type VideoHandler struct {
	videos   service.VideoService
	comments service.CommentService
	logger   zerolog.Logger
}

// NewVideoHandler constructs a handler instance.
func NewVideoHandler(videos service.VideoService, comments service.CommentService, logger zerolog.Logger) *VideoHandler {
	return &VideoHandler{
		videos:   videos,
		comments: comments,
		logger:   logger.With().Str("component", "video_handler").Logger(),
	}
}

// Register binds the video routes. Listings and playback pages are readable
// anonymously; every mutating handler rejects callers with no identity, so
// the group sits behind optional rather than mandatory auth.
func (h *VideoHandler) Register(router fiber.Router) {
	router.Get("/", h.list)
	router.Post("/", h.create)
	router.Get("/mine", h.listMine)
	router.Get("/:id", h.get)
	router.Post("/:id/thumbnail", h.uploadThumbnail)
	router.Delete("/:id", h.delete)

	router.Get("/:id/comments", h.listComments)
	router.Post("/:id/comments", h.createComment)
}

func (h *VideoHandler) list(c *fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}
	offset, err := parseQueryInt(c, "offset")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid offset")
	}

	videos, total, err := h.videos.List(withRequestContext(c), c.Query("search"), limit, offset)
	if err != nil {
		return utils.SendError(c, statusForError(err), err.Error())
	}

	return utils.OK(c, videos, "videos", fiber.Map{"total": total, "limit": limit, "offset": offset})
}

func (h *VideoHandler) listMine(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	videos, err := h.videos.ListByUploader(withRequestContext(c), userID)
	if err != nil {
		return utils.SendError(c, statusForError(err), err.Error())
	}

	return utils.SendSuccess(c, "videos", videos)
}

func (h *VideoHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	video, err := h.videos.Get(withRequestContext(c), id)
	if err != nil {
		return utils.SendError(c, statusForError(err), err.Error())
	}

	return utils.SendSuccess(c, "video", video)
}

func (h *VideoHandler) create(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	var payload dto.VideoCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	video, err := h.videos.Create(withRequestContext(c), userID, payload)
	if err != nil {
		return utils.SendError(c, statusForError(err), err.Error())
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "video registered", video)
}

func (h *VideoHandler) uploadThumbnail(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	file, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "file is required")
	}

	video, err := h.videos.UploadThumbnail(withRequestContext(c), id, userID, file)
	if err != nil {
		return utils.SendError(c, statusForError(err), err.Error())
	}

	return utils.SendSuccess(c, "thumbnail updated", video)
}

func (h *VideoHandler) delete(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.videos.Delete(withRequestContext(c), id, userID, isAdminFromContext(c)); err != nil {
		return utils.SendError(c, statusForError(err), err.Error())
	}

	return utils.SendSuccess(c, "video deleted", nil)
}

func (h *VideoHandler) listComments(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}
	offset, err := parseQueryInt(c, "offset")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid offset")
	}

	comments, err := h.comments.ListByVideo(withRequestContext(c), id, limit, offset)
	if err != nil {
		return utils.SendError(c, statusForError(err), err.Error())
	}

	return utils.SendSuccess(c, "comments", comments)
}

func (h *VideoHandler) createComment(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.CommentCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	comment, err := h.comments.Create(withRequestContext(c), id, userID, payload)
	if err != nil {
		return utils.SendError(c, statusForError(err), err.Error())
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "comment posted", comment)
}
