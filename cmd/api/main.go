package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sheetchart-api/internal/config"
	"github.com/noah-isme/sheetchart-api/internal/database"
	"github.com/noah-isme/sheetchart-api/internal/handler"
	"github.com/noah-isme/sheetchart-api/internal/logging"
	"github.com/noah-isme/sheetchart-api/internal/middleware"
	"github.com/noah-isme/sheetchart-api/internal/models"
	"github.com/noah-isme/sheetchart-api/internal/repository"
	"github.com/noah-isme/sheetchart-api/internal/router"
	"github.com/noah-isme/sheetchart-api/internal/scheduler"
	"github.com/noah-isme/sheetchart-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLogger := zerolog.New(os.Stderr).With().Timestamp().Logger()
		bootLogger.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := logging.New(cfg.Log)
	logger.Info().
		Str("env", cfg.AppEnv).
		Str("stats_timezone", cfg.StatsLocation.String()).
		Msg("starting api")

	db, err := database.Connect(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	if err := db.AutoMigrate(models.All()...); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL, cfg.AppName)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to nats")
		}
		defer natsConn.Close()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	userRepo := repository.NewUserRepository(db)
	datasetRepo := repository.NewDatasetRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)
	statsRepo := repository.NewStatsRepository(db)

	roleResolver := service.NewUserRoleResolver(userRepo)
	realtimeService := service.NewRealtimeService(redisClient, cfg.RealtimeChannel, natsConn, roleResolver, validate, logger)
	statsService := service.NewStatsService(statsRepo, cfg.StatsLocation, logger)
	statsNotifier := service.NewStatsNotifier(statsService, realtimeService, logger)

	adminUserService := service.NewAdminUserService(userRepo, validate, realtimeService, statsNotifier, logger)
	adminContentService := service.NewAdminContentService(datasetRepo, activityRepo, realtimeService, statsNotifier, logger)
	activityService := service.NewActivityService(activityRepo, logger)
	uploadService := service.NewUploadService(datasetRepo, service.NewExcelSheetParser(), realtimeService, statsNotifier, cfg.UploadMaxSizeMB, logger)
	datasetService := service.NewDatasetService(datasetRepo, validate, realtimeService, statsNotifier, logger)

	rollover, err := scheduler.NewRollover(statsNotifier, statsService.Location(), nil, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to schedule day rollover")
	}

	app := fiber.New(fiber.Config{
		AppName:               cfg.AppName,
		ServerHeader:          cfg.AppName,
		BodyLimit:             (cfg.UploadMaxSizeMB + 1) * 1024 * 1024,
		DisableStartupMessage: cfg.IsProduction(),
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AllowOrigins: cfg.CORSAllowOrigins})
	router.Register(app, cfg, router.Dependencies{
		AdminStatsHandler:    handler.NewAdminStatsHandler(statsService, cfg.RequestTimeout, logger),
		AdminUserHandler:     handler.NewAdminUserHandler(adminUserService, logger),
		AdminContentHandler:  handler.NewAdminContentHandler(adminContentService, logger),
		AdminActivityHandler: handler.NewAdminActivityHandler(activityService, logger),
		DataHandler:          handler.NewDataHandler(uploadService, datasetService, logger),
		RealtimeHandler:      handler.NewRealtimeHandler(realtimeService, logger),
		JWTMiddleware:        middleware.JWTProtected(cfg.JWTSecret),
		OptionalJWT:          middleware.OptionalJWT(cfg.JWTSecret),
		RoleLookup:           roleResolver.ResolveRole,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	realtimeService.Start(ctx)
	rollover.Start()
	if next, err := rollover.NextRun(); err == nil {
		logger.Info().Time("next_run", next).Msg("day rollover scheduled")
	}

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, rollover, logger)
}

func waitForShutdown(app *fiber.App, rollover *scheduler.Rollover, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	if err := rollover.Shutdown(); err != nil {
		logger.Warn().Err(err).Msg("rollover scheduler shutdown failed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
