package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/pulse/backend/internal/repositories"
	"github.com/anonto42/pulse/backend/internal/router"
	"github.com/anonto42/pulse/backend/internal/validators"
	"github.com/anonto42/pulse/backend/pkg/config"
	"github.com/anonto42/pulse/backend/pkg/firebase"
	"github.com/anonto42/pulse/backend/pkg/logger"
	"github.com/labstack/echo/v4"
)

func main() {
	// Load configuration
	cfg, dotenv := config.Load()

	log := logger.New(cfg.Env, cfg.LogLevel)
	if !dotenv {
		log.Debug().Msg("no .env file found, using process environment")
	}

	// Initialize database connections
	db, err := config.InitDB(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize databases")
	}
	defer db.CloseDB()

	if err := config.Migrate(db.Postgres); err != nil {
		log.Fatal().Err(err).Msg("Failed to auto migrate models")
	}
	log.Info().Msg("PostgreSQL auto-migrations completed")

	ctx := context.Background()
	messages := repositories.NewMongoMessageRepository(db.Mongo.Database(cfg.MongoDatabase))
	if err := messages.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to create message indexes")
	}

	deps := router.Dependencies{
		Postgres:  db.Postgres,
		Messages:  messages,
		AuthMode:  cfg.AuthMode,
		JWTSecret: cfg.JWTSecret,
		Logger:    log,
	}
	if cfg.AuthMode == config.AuthModeFirebase {
		firebaseApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize Firebase")
		}
		deps.FirebaseAuth = firebaseApp.AuthClient
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validators.NewValidator()

	config.SetupMiddleware(e, log, cfg.RequestTimeout)
	if err := router.SetupRoutes(e, deps); err != nil {
		log.Fatal().Err(err).Msg("Failed to configure routes")
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}
