package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/guardpost/guardpost/internal/config"
	"github.com/guardpost/guardpost/internal/handler"
	"github.com/guardpost/guardpost/internal/infra/postgresql"
	"github.com/guardpost/guardpost/internal/infra/postgresql/migrations"
	infraredis "github.com/guardpost/guardpost/internal/infra/redis"
	"github.com/guardpost/guardpost/internal/observability"
	"github.com/guardpost/guardpost/internal/push"
	"github.com/guardpost/guardpost/internal/ratelimit"
	"github.com/guardpost/guardpost/internal/repository"
	"github.com/guardpost/guardpost/internal/service"
	"github.com/guardpost/guardpost/internal/storage"
	"github.com/guardpost/guardpost/internal/transport"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config: ", err)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal("failed to initialize logger: ", err)
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(cfg, logger); err != nil {
		logger.Fatal("api exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	db, err := postgresql.NewPostgres(cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("postgres initialization failed: %w", err)
	}

	if err := migrations.Migrate(db); err != nil {
		return fmt.Errorf("database migrations failed: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("postgres underlying db init failed: %w", err)
	}
	defer sqlDB.Close()

	rdb, err := infraredis.NewRedis(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("redis initialization failed: %w", err)
	}
	defer rdb.Close()

	files, err := storage.NewDiskStore(cfg.UploadDir)
	if err != nil {
		return fmt.Errorf("upload store initialization failed: %w", err)
	}

	historyRepo := repository.NewGormHistoryRepo(db)
	userRepo := repository.NewGormUserRepo(db)
	branchRepo := repository.NewGormBranchRepo(db)
	sensorRepo := repository.NewGormSensorRepo(db)
	tokenRepo := repository.NewGormDeviceTokenRepo(db)

	keyData, err := os.ReadFile(cfg.ServiceAccountPath)
	if err != nil {
		return fmt.Errorf("failed to read service account key: %w", err)
	}
	account, err := push.ParseServiceAccount(keyData)
	if err != nil {
		return err
	}

	credentialCache, err := push.NewRedisCredentialCache(rdb)
	if err != nil {
		return err
	}
	authorizer, err := push.NewOAuthAuthorizer(account, credentialCache, logger)
	if err != nil {
		return err
	}
	gateway, err := push.NewFCMGateway(account.ProjectID)
	if err != nil {
		return err
	}

	metrics := observability.NewMetrics()

	alertService, err := service.NewAlertService(historyRepo, userRepo, authorizer, gateway, cfg.AlertConcurrency, logger)
	if err != nil {
		return err
	}
	alertService.SetMetrics(metrics)

	cleanupService, err := service.NewCleanupService(
		historyRepo, files, time.Duration(cfg.CleanupIntervalHrs)*time.Hour, logger)
	if err != nil {
		return err
	}
	cleanupService.SetMetrics(metrics)

	historyService, err := service.NewHistoryService(historyRepo, files, cfg.PublicBaseURL, logger)
	if err != nil {
		return err
	}
	tokenService, err := service.NewDeviceTokenService(tokenRepo, logger)
	if err != nil {
		return err
	}
	reportService, err := service.NewReportService(historyRepo, sensorRepo, branchRepo, logger)
	if err != nil {
		return err
	}

	limiter := ratelimit.NewLimiter(
		cfg.RateLimitMax,
		time.Duration(cfg.RateLimitWindowSec)*time.Second,
		ratelimit.DefaultSweepInterval,
		logger,
	)

	app := fiber.New(fiber.Config{
		AppName:      "guardpost-api",
		ErrorHandler: transport.ErrorHandler(logger),
		BodyLimit:    60 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(metrics.HTTPMiddleware())
	app.Use(ratelimit.Middleware(limiter))

	handler.RegisterHealthRoutes(app, handler.PostgresPinger(sqlDB), handler.RedisPinger(rdb))
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))
	app.Static("/uploads", files.Root())

	api := app.Group("/api/v1", handler.AuthMiddleware(cfg.AuthSecret))
	if err := handler.RegisterHistoryRoutes(api, historyService, alertService); err != nil {
		return err
	}
	if err := handler.RegisterDeviceTokenRoutes(api, tokenService); err != nil {
		return err
	}
	if err := handler.RegisterReportRoutes(api, reportService); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := cleanupService.Start(ctx); err != nil {
			logger.Error("cleanup scheduler stopped", zap.Error(err))
		}
	}()
	go limiter.StartJanitor(ctx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(fmt.Sprintf(":%d", cfg.APIPort))
	}()

	logger.Info("guardpost api started", zap.Int("port", cfg.APIPort))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}
