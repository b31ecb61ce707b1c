package handler

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/park-academy/park-api/internal/dto"
	"github.com/park-academy/park-api/internal/middleware"
	"github.com/park-academy/park-api/internal/service"
	"github.com/park-academy/park-api/internal/utils"
)

// MessagingHandler wires the message endpoints including the websocket upgrade.
type MessagingHandler struct {
	service service.MessagingService
	logger  zerolog.Logger
}

// NewMessagingHandler creates a messaging handler instance.
func NewMessagingHandler(service service.MessagingService, logger zerolog.Logger) *MessagingHandler {
	return &MessagingHandler{
		service: service,
		logger:  logger.With().Str("component", "messaging_handler").Logger(),
	}
}

// Register binds the messaging routes under the provided router group.
func (h *MessagingHandler) Register(router fiber.Router) {
	router.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			ctx := c.UserContext()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx = middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
			c.Locals("request_ctx", ctx)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	router.Get("/ws", websocket.New(h.handleConnection))

	router.Get("/:kind/:id/messages", h.history)
	router.Post("/:kind/:id/messages", h.send)
	router.Post("/:kind/:id/read", h.markThreadRead)
	router.Post("/:kind/:id/messages/:messageID/read", h.markRead)
	router.Delete("/:kind/:id/messages/:messageID", h.deleteMessage)
}

func (h *MessagingHandler) handleConnection(conn *websocket.Conn) {
	userID := strings.TrimSpace(websocketUserID(conn))
	if userID == "" {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(fiber.StatusUnauthorized, "user id missing"))
		_ = conn.Close()
		return
	}

	kind, err := parseThreadKind(conn.Query("kind"))
	if err != nil {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(fiber.StatusBadRequest, err.Error()))
		_ = conn.Close()
		return
	}

	threadID := strings.TrimSpace(conn.Query("thread_id"))
	if threadID == "" {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(fiber.StatusBadRequest, "thread_id required"))
		_ = conn.Close()
		return
	}

	baseCtx, _ := conn.Locals("request_ctx").(context.Context)
	correlation := ""
	if v, ok := conn.Locals("correlation_id").(string); ok {
		correlation = v
	}

	opts := service.StreamOptions{
		UserID:        userID,
		Thread:        service.ThreadRef{Kind: kind, ID: threadID},
		CorrelationID: correlation,
		Context:       baseCtx,
	}

	h.logger.Info().Str("user_id", userID).Str("kind", string(kind)).Str("thread_id", threadID).Msg("thread websocket connected")
	h.service.ServeConnection(conn, opts)
	h.logger.Info().Str("user_id", userID).Str("kind", string(kind)).Str("thread_id", threadID).Msg("thread websocket disconnected")
}

func websocketUserID(conn *websocket.Conn) string {
	if v, ok := conn.Locals("user_id").(string); ok {
		return v
	}
	return ""
}

func (h *MessagingHandler) threadRef(c *fiber.Ctx) (service.ThreadRef, error) {
	kind, err := parseThreadKind(c.Params("kind"))
	if err != nil {
		return service.ThreadRef{}, err
	}

	threadID := strings.TrimSpace(c.Params("id"))
	if threadID == "" {
		return service.ThreadRef{}, fiber.NewError(fiber.StatusBadRequest, "thread id required")
	}

	return service.ThreadRef{Kind: kind, ID: threadID}, nil
}

// history returns the caller's visible snapshot of the thread.
func (h *MessagingHandler) history(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	ref, err := h.threadRef(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	snapshot, err := h.service.History(withRequestContext(c), ref, userID)
	if err != nil {
		return utils.SendError(c, statusForError(err), err.Error())
	}

	return utils.SendSuccess(c, "thread history", snapshot)
}

func (h *MessagingHandler) send(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	ref, err := h.threadRef(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.SendMessageRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	message, err := h.service.Send(withRequestContext(c), ref, userID, payload.Body)
	if err != nil {
		return utils.SendError(c, statusForError(err), err.Error())
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "message sent", message)
}

// markThreadRead adds the caller to the receipt set of every visible unread
// message in the thread.
func (h *MessagingHandler) markThreadRead(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	ref, err := h.threadRef(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	marked, err := h.service.MarkThreadRead(withRequestContext(c), ref, userID)
	if err != nil {
		return utils.SendError(c, statusForError(err), err.Error())
	}

	return utils.SendSuccess(c, "thread marked read", fiber.Map{"marked": marked})
}

func (h *MessagingHandler) markRead(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	ref, err := h.threadRef(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	messageID, err := parseUintParam(c, "messageID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.MarkRead(withRequestContext(c), ref, messageID, userID); err != nil {
		return utils.SendError(c, statusForError(err), err.Error())
	}

	return utils.SendSuccess(c, "message marked read", nil)
}

// deleteMessage handles both delete scopes. scope=me hides the message for
// the caller only; scope=everyone replaces it with the placeholder for all
// participants and is restricted to the sender.
func (h *MessagingHandler) deleteMessage(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	ref, err := h.threadRef(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	messageID, err := parseUintParam(c, "messageID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	ctx := withRequestContext(c)

	switch strings.ToLower(strings.TrimSpace(c.Query("scope", "me"))) {
	case "me":
		err = h.service.DeleteForMe(ctx, ref, messageID, userID)
	case "everyone":
		err = h.service.DeleteForEveryone(ctx, ref, messageID, userID)
	default:
		return utils.SendError(c, fiber.StatusBadRequest, "scope must be me or everyone")
	}

	if err != nil {
		return utils.SendError(c, statusForError(err), err.Error())
	}

	return utils.SendSuccess(c, "message deleted", nil)
}
