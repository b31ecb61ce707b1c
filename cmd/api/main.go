package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/park-academy/park-api/internal/config"
	"github.com/park-academy/park-api/internal/database"
	"github.com/park-academy/park-api/internal/handler"
	"github.com/park-academy/park-api/internal/middleware"
	"github.com/park-academy/park-api/internal/models"
	"github.com/park-academy/park-api/internal/repository"
	"github.com/park-academy/park-api/internal/router"
	"github.com/park-academy/park-api/internal/service"
	"github.com/park-academy/park-api/pkg/ai"
	cloud "github.com/park-academy/park-api/pkg/cloudinary"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Conversation{},
		&models.Group{},
		&models.GroupMember{},
		&models.Message{},
		&models.Video{},
		&models.Comment{},
		&models.Note{},
		&models.Notification{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	natsConn, err := database.ConnectNATS(cfg.NATSURL)
	if err != nil {
		log.Fatalf("failed to connect to nats: %v", err)
	}
	if natsConn != nil {
		defer natsConn.Close()
	}

	storage, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create cloudinary client: %v", err)
	}

	var assistant ai.Assistant
	if cfg.OpenAIAPIKey != "" {
		assistant, err = ai.NewOpenAIAssistant(ai.OpenAIConfig{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.AssistantModel,
			Logger: logger,
		})
		if err != nil {
			log.Fatalf("failed to create assistant client: %v", err)
		}
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	userRepo := repository.NewUserRepository(db)
	conversationRepo := repository.NewConversationRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	videoRepo := repository.NewVideoRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	noteRepo := repository.NewNoteRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	runCtx, stopServices := context.WithCancel(context.Background())
	defer stopServices()

	notificationService := service.NewNotificationService(notificationRepo, redisClient, cfg.EventChannelBase, natsConn, validate, logger)
	notificationService.Start(runCtx)

	messagingService := service.NewMessagingService(conversationRepo, groupRepo, messageRepo, notificationService, redisClient, cfg.EventChannelBase, natsConn, logger)
	messagingService.Start(runCtx)

	threadService := service.NewThreadService(conversationRepo, groupRepo, userRepo, validate, redisClient, cfg.DirectoryCacheTTL, logger)
	userService := service.NewUserService(userRepo, validate, logger)
	videoService := service.NewVideoService(videoRepo, storage, cfg.ThumbnailMaxSizeMB, validate, logger)
	commentService := service.NewCommentService(commentRepo, videoRepo, userRepo, notificationService, validate, logger)
	mediaService := service.NewMediaService(storage, validate, logger)
	assistantService := service.NewAssistantService(assistant, validate, logger)
	adminService := service.NewAdminService(userRepo, videoService, commentService, validate, logger)

	noteService, err := service.NewNoteService(noteRepo, validate, logger)
	if err != nil {
		log.Fatalf("failed to create note service: %v", err)
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		UserHandler:         handler.NewUserHandler(userService, logger),
		ThreadHandler:       handler.NewThreadHandler(threadService, logger),
		MessagingHandler:    handler.NewMessagingHandler(messagingService, logger),
		VideoHandler:        handler.NewVideoHandler(videoService, commentService, logger),
		CommentHandler:      handler.NewCommentHandler(commentService, logger),
		NoteHandler:         handler.NewNoteHandler(noteService, logger),
		NotificationHandler: handler.NewNotificationHandler(notificationService, logger, cfg.StreamKeepAlive),
		AssistantHandler:    handler.NewAssistantHandler(assistantService, logger),
		MediaHandler:        handler.NewMediaHandler(mediaService, logger),
		AdminHandler:        handler.NewAdminHandler(adminService, logger),
		JWTMiddleware:       middleware.JWTProtected(cfg.JWTSecret),
		OptionalJWT:         middleware.JWTOptional(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app, stopServices)
}

func waitForShutdown(app *fiber.App, stopServices context.CancelFunc) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()
	stopServices()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
