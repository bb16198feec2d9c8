package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ianstrang2/matchday-system/config"
	"github.com/ianstrang2/matchday-system/db"
	"github.com/ianstrang2/matchday-system/events"
	"github.com/ianstrang2/matchday-system/handlers"
	"github.com/ianstrang2/matchday-system/repositories"
	api "github.com/ianstrang2/matchday-system/routes"
	"github.com/ianstrang2/matchday-system/services"
	"github.com/ianstrang2/matchday-system/storage"
	_ "github.com/lib/pq"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	// Optional match-report archive (Cloudflare R2).
	var reportArchive storage.FileUploader
	if cfg.ArchiveEnabled() {
		reportArchive, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize report archive", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("match-report archive enabled", slog.String("bucket", cfg.R2BucketName))
	}

	hub := events.NewHub()
	go hub.Run()
	logger.Info("event hub started")

	lockManager := db.NewTenantLockManager(dbConn, cfg.LockTimeout)

	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	poolRepo := repositories.NewPostgresPoolRepository(dbConn)
	slotRepo := repositories.NewPostgresSlotRepository(dbConn)
	playerRepo := repositories.NewPostgresPlayerRepository(dbConn)
	resultRepo := repositories.NewPostgresResultRepository(dbConn)
	adminRepo := repositories.NewPostgresAdminRepository(dbConn)
	logger.Info("repositories initialized")

	authService := services.NewAuthService(adminRepo)
	matchService := services.NewMatchService(matchRepo, poolRepo, slotRepo)
	poolService := services.NewPoolService(lockManager, matchRepo, poolRepo, slotRepo, playerRepo, logger)
	teamService := services.NewTeamService(lockManager, matchRepo, poolRepo, slotRepo, playerRepo, hub, logger)
	resultService := services.NewResultService(lockManager, matchRepo, poolRepo, resultRepo, hub, reportArchive, logger, cfg.HeavyResultThreshold)
	logger.Info("services initialized")

	authHandler := handlers.NewAuthHandler(authService, cfg.JWTSecretKey)
	matchHandler := handlers.NewMatchHandler(matchService, poolService, teamService, resultService)
	webSocketHandler := handlers.NewWebSocketHandler(hub)
	logger.Info("HTTP handlers initialized")

	router := chi.NewRouter()
	api.SetupRoutes(router, cfg.JWTSecretKey, authHandler, matchHandler, webSocketHandler)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
