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
	_ "github.com/lib/pq"

	"github.com/showmanfest/luckydraw/config"
	"github.com/showmanfest/luckydraw/db"
	"github.com/showmanfest/luckydraw/handlers"
	"github.com/showmanfest/luckydraw/live"
	"github.com/showmanfest/luckydraw/repositories"
	api "github.com/showmanfest/luckydraw/routes"
	"github.com/showmanfest/luckydraw/services"
	"github.com/showmanfest/luckydraw/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort), slog.Int("draw_cutover", cfg.DrawRule.Cutover))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		}
	}()
	logger.Info("database connection established")

	if err := db.Migrate(context.Background(), dbConn); err != nil {
		logger.Error("failed to apply database schema", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("database schema ready")

	var uploader storage.FileUploader
	if cfg.R2AccountID != "" {
		uploader, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Warn("R2 storage not configured, prize image upload disabled")
	}

	stageHub := live.NewHub()
	go stageHub.Run()
	logger.Info("stage websocket hub started")

	participantRepo := repositories.NewPostgresParticipantRepository(dbConn)
	prizeRepo := repositories.NewPostgresPrizeRepository(dbConn)
	winnerRepo := repositories.NewPostgresWinnerRepository(dbConn)
	settingRepo := repositories.NewPostgresSettingRepository(dbConn)
	logger.Info("repositories initialized")

	txRunner := services.NewSQLTxRunner(dbConn)
	authService := services.NewAuthService(cfg.AdminUsername, cfg.AdminPasswordHash, []byte(cfg.JWTSecretKey))
	checkInService := services.NewCheckInService(txRunner, participantRepo, prizeRepo, winnerRepo, settingRepo, cfg.DrawRule, uploader, stageHub)
	lotteryService := services.NewLotteryService(participantRepo, prizeRepo)
	winnerService := services.NewWinnerService(txRunner, participantRepo, prizeRepo, winnerRepo, uploader, stageHub)
	participantService := services.NewParticipantService(txRunner, participantRepo, prizeRepo, winnerRepo)
	prizeService := services.NewPrizeService(txRunner, prizeRepo, winnerRepo, uploader)
	eventService := services.NewEventService(txRunner, participantRepo, prizeRepo, winnerRepo, settingRepo)
	dashboardService := services.NewDashboardService(participantRepo, prizeRepo, winnerRepo)
	logger.Info("services initialized")

	adminHandler := handlers.NewAdminHandler(authService, eventService, dashboardService)
	checkInHandler := handlers.NewCheckInHandler(checkInService, participantService)
	participantHandler := handlers.NewParticipantHandler(participantService)
	prizeHandler := handlers.NewPrizeHandler(prizeService)
	winnerHandler := handlers.NewWinnerHandler(winnerService, lotteryService)
	webSocketHandler := handlers.NewWebSocketHandler(stageHub)

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		cfg.CORSOrigins,
		[]byte(cfg.JWTSecretKey),
		adminHandler,
		checkInHandler,
		participantHandler,
		prizeHandler,
		winnerHandler,
		webSocketHandler,
	)
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
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
}
