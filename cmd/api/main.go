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
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/intern-portal-api/internal/config"
	"github.com/noah-isme/intern-portal-api/internal/database"
	"github.com/noah-isme/intern-portal-api/internal/handler"
	"github.com/noah-isme/intern-portal-api/internal/middleware"
	"github.com/noah-isme/intern-portal-api/internal/models"
	"github.com/noah-isme/intern-portal-api/internal/repository"
	"github.com/noah-isme/intern-portal-api/internal/router"
	"github.com/noah-isme/intern-portal-api/internal/service"
	cloud "github.com/noah-isme/intern-portal-api/pkg/cloudinary"
	"github.com/noah-isme/intern-portal-api/pkg/mailer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.Profile{}, &models.Submission{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(rootCtx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = nats.Connect(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Close()
	}

	uploader, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create cloudinary client: %v", err)
	}

	var notifier service.DecisionNotifier
	if cfg.HasSMTP() {
		mailService, err := mailer.New(mailer.Config{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		}, logger)
		if err != nil {
			log.Fatalf("failed to create mailer: %v", err)
		}
		notifier = mailService
	} else {
		logger.Warn().Msg("smtp credentials missing, decision emails disabled")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	profileRepo := repository.NewProfileRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)

	eventService := service.NewEventService(redisClient, natsConn, "portal", logger)
	eventService.Start(rootCtx)

	authService := service.NewAuthService(profileRepo, redisClient, service.TokenConfig{
		AccessSecret:  cfg.JWTSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshTTL:    cfg.RefreshTokenTTL,
	}, validate, logger)
	submissionService := service.NewSubmissionService(submissionRepo, uploader, eventService, logger)
	reviewService := service.NewReviewService(submissionRepo, notifier, eventService, validate, logger)

	authHandler := handler.NewAuthHandler(authService, logger)
	submissionHandler := handler.NewSubmissionHandler(submissionService, logger)
	reviewHandler := handler.NewReviewHandler(reviewService, eventService, logger)
	emailHandler := handler.NewEmailHandler(notifier, logger)
	healthHandler := handler.NewHealthHandler(cfg, db, redisClient)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    64 << 20,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:       authHandler,
		SubmissionHandler: submissionHandler,
		ReviewHandler:     reviewHandler,
		EmailHandler:      emailHandler,
		HealthHandler:     healthHandler,
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(rootCtx, app)
}

func waitForShutdown(ctx context.Context, app *fiber.App) {
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
