package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/coursehub-api/internal/config"
	"github.com/noah-isme/coursehub-api/internal/database"
	"github.com/noah-isme/coursehub-api/internal/handler"
	"github.com/noah-isme/coursehub-api/internal/middleware"
	"github.com/noah-isme/coursehub-api/internal/repository"
	"github.com/noah-isme/coursehub-api/internal/router"
	"github.com/noah-isme/coursehub-api/internal/service"
	cloud "github.com/noah-isme/coursehub-api/pkg/cloudinary"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "coursehub-api").Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}
	if !cfg.IsProduction() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	db, err := database.Connect(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis url not set; caching and cross-node notification fan-out disabled")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to nats")
		}
		defer natsConn.Drain()
	}

	var uploader service.FileUploader
	cloudCfg := cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}
	if cloudCfg.Enabled() {
		cloudService, err := cloud.New(cloudCfg, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create cloudinary client")
		}
		uploader = cloudService
	} else {
		logger.Warn().Msg("cloudinary credentials not set; file submissions disabled")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	courseRepo := repository.NewCourseRepository(db)
	feedbackRepo := repository.NewFeedbackRepository(db)
	ratingRepo := repository.NewCourseRatingRepository(db)
	questionRepo := repository.NewMCQQuestionRepository(db)
	sessionRepo := repository.NewMCQSessionRepository(db)
	attemptRepo := repository.NewMCQAttemptRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	submissionRepo := repository.NewTaskSubmissionRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	appCtx, cancelApp := context.WithCancel(context.Background())
	defer cancelApp()

	activityService := service.NewActivityService(activityRepo, logger)
	notificationService := service.NewNotificationService(notificationRepo, redisClient, cfg.NotificationChannel, natsConn, validate, logger)
	notificationService.Start(appCtx)

	ratingService := service.NewRatingService(feedbackRepo, ratingRepo, redisClient, cfg.RatingCacheTTL, logger)
	courseService := service.NewCourseService(courseRepo, ratingService, logger)
	feedbackService := service.NewFeedbackService(feedbackRepo, courseRepo, ratingService, activityService, notificationService, validate, logger)
	mcqService := service.NewMCQService(questionRepo, sessionRepo, attemptRepo, validate, logger, service.MCQConfig{
		TimeLimitMinutes:     cfg.MCQTimeLimitMinutes,
		DefaultQuestionCount: cfg.MCQDefaultQuestionCount,
	})
	taskService := service.NewTaskService(taskRepo, submissionRepo, uploader, activityService, notificationService, validate, logger)
	dashboardService := service.NewStudentDashboardService(taskRepo, submissionRepo, sessionRepo, feedbackRepo, redisClient, cfg.DashboardCacheTTL, logger)
	seedService, err := service.NewSeedService(courseRepo, questionRepo, taskRepo, validate, cfg.SeedEnabled, cfg.SeedToken, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build seed service")
	}

	if cfg.SeedFile != "" {
		seedFromFile(appCtx, seedService, cfg.SeedFile, logger)
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    25 * 1024 * 1024,
		ErrorHandler: errorHandler(logger),
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		CourseHandler:           handler.NewCourseHandler(courseService, ratingService, feedbackService, logger),
		AdminFeedbackHandler:    handler.NewAdminFeedbackHandler(feedbackService, ratingService, logger),
		MCQHandler:              handler.NewMCQHandler(mcqService, logger),
		TaskHandler:             handler.NewTaskHandler(taskService, logger),
		StudentDashboardHandler: handler.NewStudentDashboardHandler(dashboardService, logger),
		NotificationHandler:     handler.NewNotificationHandler(notificationService, logger, cfg.NotificationKeepAlive),
		AdminActivityHandler:    handler.NewAdminActivityHandler(activityService, logger),
		SeedHandler:             handler.NewSeedHandler(seedService, logger),
		HealthProbes:            healthProbes(db, redisClient, natsConn),
		JWTMiddleware:           middleware.JWTProtected(cfg.JWTSecret),
		SubmissionLimiter:       middleware.RateLimit("submissions", cfg.SubmissionRateLimit, cfg.SubmissionRateWindow),
	})

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddress()).Str("env", cfg.AppEnv).Msg("http server listening")
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, logger)
	cancelApp()
}

func seedFromFile(ctx context.Context, seeds service.SeedService, path string, logger zerolog.Logger) {
	raw, err := os.ReadFile(path)
	if err != nil {
		logger.Fatal().Err(err).Str("path", path).Msg("failed to read seed file")
	}
	if _, err := seeds.Import(ctx, raw); err != nil {
		logger.Fatal().Err(err).Str("path", path).Msg("failed to import seed file")
	}
}

func healthProbes(db *gorm.DB, redisClient *redis.Client, natsConn *nats.Conn) map[string]handler.HealthProbe {
	probes := map[string]handler.HealthProbe{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if redisClient != nil {
		probes["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}
	if natsConn != nil {
		probes["nats"] = func(context.Context) error {
			if !natsConn.IsConnected() {
				return nats.ErrConnectionClosed
			}
			return nil
		}
	}
	return probes
}

func errorHandler(logger zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		message := "internal server error"

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			status = fiberErr.Code
			message = fiberErr.Message
		} else {
			reqLogger := middleware.RequestLogger(c, logger)
			reqLogger.Error().Err(err).Str("path", c.Path()).Msg("unhandled error")
		}

		return c.Status(status).JSON(fiber.Map{"success": false, "message": message})
	}
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
