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
	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"github.com/nmoreira/prode-server/config"
	"github.com/nmoreira/prode-server/db"
	"github.com/nmoreira/prode-server/handlers"
	"github.com/nmoreira/prode-server/models"
	"github.com/nmoreira/prode-server/repositories"
	api "github.com/nmoreira/prode-server/routes"
	"github.com/nmoreira/prode-server/services"
	"github.com/nmoreira/prode-server/storage"
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

	if err := db.Migrate(dbConn); err != nil {
		logger.Error("failed to apply migrations", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("database migrations applied")

	// Avatar storage is optional: without R2 credentials the profile
	// endpoints still work, only uploads are rejected.
	var uploader storage.FileUploader
	if cfg.R2AccountID != "" {
		uploader, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
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
		logger.Info("avatar storage disabled: R2 not configured")
	}

	// The ranking cache is also optional. A nil client makes the ranking
	// service hit the database on every request.
	var cache *redis.Client
	if cfg.RedisAddr != "" {
		cache = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := cache.Ping(pingCtx).Err(); err != nil {
			cancel()
			logger.Error("failed to connect to redis", slog.Any("error", err))
			os.Exit(1)
		}
		cancel()
		defer func() {
			if err := cache.Close(); err != nil {
				logger.Error("failed to close redis client", slog.Any("error", err))
			}
		}()
		logger.Info("redis connection established", slog.String("addr", cfg.RedisAddr))
	} else {
		logger.Info("ranking cache disabled: redis not configured")
	}

	txRunner := db.NewTxRunner(dbConn)

	userRepo := repositories.NewPostgresUserRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	phaseRepo := repositories.NewPostgresPhaseRepository(dbConn)
	careerRepo := repositories.NewPostgresCareerRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	predictionRepo := repositories.NewPostgresPredictionRepository(dbConn)
	logger.Info("repositories initialized")

	if cfg.AdminEmail != "" {
		err := userRepo.SetRoleByEmail(context.Background(), cfg.AdminEmail, models.RoleAdmin)
		switch {
		case errors.Is(err, repositories.ErrUserNotFound):
			logger.Warn("admin account not registered yet", slog.String("email", cfg.AdminEmail))
		case err != nil:
			logger.Error("failed to promote admin account", slog.Any("error", err))
			os.Exit(1)
		default:
			logger.Info("admin account promoted", slog.String("email", cfg.AdminEmail))
		}
	}

	scoringEngine := services.NewScoringEngine(predictionRepo, userRepo, cfg.Scoring)
	rankingService := services.NewRankingService(userRepo, cache, logger)
	authService := services.NewAuthService(userRepo)
	userService := services.NewUserService(userRepo, uploader)
	referenceService := services.NewReferenceService(teamRepo, phaseRepo, careerRepo)
	predictionService := services.NewPredictionService(txRunner, matchRepo, predictionRepo)
	matchService := services.NewMatchService(
		txRunner,
		matchRepo,
		predictionRepo,
		phaseRepo,
		scoringEngine,
		rankingService,
	)
	logger.Info("services initialized")

	authHandler := handlers.NewAuthHandler(authService, cfg.JWTSecretKey)
	matchHandler := handlers.NewMatchHandler(matchService, referenceService)
	predictionHandler := handlers.NewPredictionHandler(predictionService)
	rankingHandler := handlers.NewRankingHandler(rankingService)
	userHandler := handlers.NewUserHandler(userService)
	referenceHandler := handlers.NewReferenceHandler(referenceService)
	logger.Info("HTTP handlers initialized")

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		cfg.JWTSecretKey,
		authHandler,
		matchHandler,
		predictionHandler,
		rankingHandler,
		userHandler,
		referenceHandler,
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
		logger.Info("server stopped gracefully")
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
	logger.Info("application exited")
}
