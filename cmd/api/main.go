package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"

	"github.com/pageza/recipebook/backend/config"
	"github.com/pageza/recipebook/backend/internal/api"
	"github.com/pageza/recipebook/backend/internal/database"
	"github.com/pageza/recipebook/backend/internal/logging"
	"github.com/pageza/recipebook/backend/internal/middleware"
	"github.com/pageza/recipebook/backend/internal/server"
	"github.com/pageza/recipebook/backend/internal/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "recipebook: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Initialize configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger, closeLog := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	defer func() { _ = closeLog() }()

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Open(cfg, logger)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	if err := database.RunMigrations(db, logger); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	images, err := newImageStore(cfg, logger)
	if err != nil {
		return err
	}

	deps := api.Dependencies{
		DB:     db,
		Auth:   service.NewAuthService(cfg.JWTSecret),
		Logger: logger,
		Recipes: service.NewRecipeService(
			service.NewGormRecipeRepository(db), images, logger,
			service.WithMaxImageBytes(cfg.MaxUploadBytes),
		),
		MaxUploadBytes: cfg.MaxUploadBytes,
	}

	// Continue without rate limiting if Redis is not available
	if cfg.RedisEnabled() {
		redisClient, err := database.NewRedisClient(cfg, logger)
		if err != nil {
			logger.Warn("redis unavailable, rate limiting disabled", "error", err)
		} else {
			defer redisClient.Close()
			deps.CreationLimiter = middleware.NewRecipeCreationRateLimiter(redisClient, logger)
			deps.ModificationLimiter = middleware.NewRecipeModificationRateLimiter(redisClient, logger)
		}
	}

	srv := server.New(cfg, deps)

	// Channel to listen for errors coming from the server
	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	// Channel to listen for an interrupt or terminate signal from the OS
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-quit:
		logger.Info("received signal", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

func newImageStore(cfg *config.Config, logger *slog.Logger) (service.ImageStore, error) {
	switch cfg.ImageStorage {
	case config.ImageStorageS3:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s3cfg, err := config.NewS3Config(ctx, cfg.S3Bucket, cfg.S3Region)
		if err != nil {
			return nil, fmt.Errorf("configure s3: %w", err)
		}
		return service.NewS3ImageStore(s3cfg, logger), nil
	default:
		return service.NewLocalImageStore(afero.NewOsFs(), cfg.ImageDir, logger), nil
	}
}
