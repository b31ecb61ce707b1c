package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/park-academy/park-api/internal/config"
	"github.com/park-academy/park-api/internal/handler"
	"github.com/park-academy/park-api/internal/middleware"
	"github.com/park-academy/park-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	UserHandler         *handler.UserHandler
	ThreadHandler       *handler.ThreadHandler
	MessagingHandler    *handler.MessagingHandler
	VideoHandler        *handler.VideoHandler
	CommentHandler      *handler.CommentHandler
	NoteHandler         *handler.NoteHandler
	NotificationHandler *handler.NotificationHandler
	AssistantHandler    *handler.AssistantHandler
	MediaHandler        *handler.MediaHandler
	AdminHandler        *handler.AdminHandler
	JWTMiddleware       fiber.Handler
	OptionalJWT         fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	app.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}
	optionalJWT := deps.OptionalJWT
	if optionalJWT == nil {
		optionalJWT = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.UserHandler != nil {
		users := app.Group("/api/v1/profile", jwtMiddleware)
		deps.UserHandler.Register(users)
	}

	if deps.ThreadHandler != nil {
		threads := app.Group("/api/v1/threads", jwtMiddleware)
		deps.ThreadHandler.Register(threads)
	}

	if deps.MessagingHandler != nil {
		messaging := app.Group("/api/v1/threads", jwtMiddleware)
		deps.MessagingHandler.Register(messaging)
	}

	if deps.VideoHandler != nil {
		// Optional auth: listings are public, mutations check locals.
		videos := app.Group("/api/v1/videos", optionalJWT)
		deps.VideoHandler.Register(videos)
	}

	if deps.CommentHandler != nil {
		comments := app.Group("/api/v1/comments", jwtMiddleware)
		deps.CommentHandler.Register(comments)
	}

	if deps.NoteHandler != nil {
		notes := app.Group("/api/v1/notes", jwtMiddleware)
		deps.NoteHandler.Register(notes)
	}

	if deps.NotificationHandler != nil {
		notifications := app.Group("/api/v1/notifications", jwtMiddleware)
		deps.NotificationHandler.Register(notifications)
	}

	if deps.AssistantHandler != nil {
		assistant := app.Group("/api/v1/assistant", jwtMiddleware)
		deps.AssistantHandler.Register(assistant)
	}

	if deps.MediaHandler != nil {
		// Kept at the legacy path the web client already calls.
		media := app.Group("/api/cloudinary", jwtMiddleware)
		deps.MediaHandler.Register(media)
	}

	if deps.AdminHandler != nil {
		admin := app.Group("/api/v1/admin", jwtMiddleware, middleware.WithAuth(func(c *fiber.Ctx) error {
			return c.Next()
		}, middleware.AuthOptions{Role: middleware.AuthRoleAdmin}))
		deps.AdminHandler.Register(admin)
	}
}
