package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/isdelr/eventhub-be/internal/api"
	"github.com/isdelr/eventhub-be/internal/auth"
	"github.com/isdelr/eventhub-be/internal/config"
	"github.com/isdelr/eventhub-be/internal/database"
	"github.com/isdelr/eventhub-be/internal/logger"
	"github.com/isdelr/eventhub-be/internal/monitoring"
	"github.com/isdelr/eventhub-be/internal/services"
	"github.com/isdelr/eventhub-be/internal/store"
	"github.com/isdelr/eventhub-be/internal/store/mongostore"
	"github.com/isdelr/eventhub-be/internal/store/sqlstore"
	"github.com/isdelr/eventhub-be/internal/upload"
	"github.com/isdelr/eventhub-be/internal/websocket"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	// A missing .env file is fine; the environment may already be set.
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logger.Init(cfg.LogLevel, !cfg.IsProduction())

	// Set up the store
	st, err := openStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DatabaseDriver).Msg("Failed to initialize store")
	}
	defer st.Close()

	uploader, err := newUploader(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.UploadBackend).Msg("Failed to initialize uploader")
	}

	// Set up WebSocket Hub
	hub := websocket.NewHub()
	go hub.Run()

	// Set up services
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL, cfg.GuestTokenTTL)
	userService := services.NewUserService(st, tokens, hub, cfg.BroadcastScope)
	eventService := services.NewEventService(st, hub, services.EventOptions{
		Scope:          cfg.BroadcastScope,
		LockPastEvents: cfg.LockPastEvents,
	})
	statsService := services.NewStatsService(st, hub, monitoring.HostStats)

	// Set up and run the guest sweeper
	sweeper := monitoring.NewGuestSweeper(userService, cfg.GuestSweepSpec)
	if err := sweeper.Run(); err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.GuestSweepSpec).Msg("Failed to start guest sweeper")
	}

	// Set up router
	router := api.NewRouter(api.Deps{
		Hub:            hub,
		Users:          userService,
		Events:         eventService,
		Stats:          statsService,
		Uploader:       uploader,
		MaxUploadBytes: cfg.MaxUploadBytes,
		AllowedOrigins: cfg.AllowedOrigins,
		SecureCookies:  cfg.IsProduction(),
	})

	// Set up server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Str("store", cfg.DatabaseDriver).Msg("Server starting")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("ListenAndServe()")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	sweeper.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	hub.Stop()

	log.Info().Msg("Server exiting")
}

func openStore(cfg *config.Config) (store.Store, error) {
	if cfg.DatabaseDriver == "mongo" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return mongostore.New(ctx, cfg.MongoURI, cfg.MongoDatabase)
	}

	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply database migrations: %w", err)
	}
	return sqlstore.New(db), nil
}

func newUploader(cfg *config.Config) (upload.Uploader, error) {
	switch cfg.UploadBackend {
	case "imgbb":
		if cfg.ImgBBAPIKey == "" {
			log.Warn().Msg("IMGBB_API_KEY is not set, uploads are disabled")
			return nil, nil
		}
		return upload.NewImgBB(cfg.ImgBBAPIKey, ""), nil
	case "s3":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return upload.NewS3(ctx, cfg.S3)
	case "", "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown upload backend %q", cfg.UploadBackend)
	}
}
