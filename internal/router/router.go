package router

import (
	"github.com/anonto42/pulse/backend/internal/handlers"
	"github.com/anonto42/pulse/backend/internal/middleware"
	"github.com/anonto42/pulse/backend/internal/repositories"
	"github.com/anonto42/pulse/backend/internal/services"
	"github.com/anonto42/pulse/backend/pkg/config"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Dependencies are the connections and settings the routes are built from
type Dependencies struct {
	Postgres     *gorm.DB
	Messages     services.MessageStore
	AuthMode     string
	JWTSecret    string
	FirebaseAuth middleware.TokenVerifier
	Logger       zerolog.Logger
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, deps Dependencies) error {
	log := deps.Logger.With().Str("component", "router").Logger()
	pgdb := deps.Postgres

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(pgdb)
	postRepo := repositories.NewPostgresPostRepository(pgdb)
	commentRepo := repositories.NewPostgresCommentRepository(pgdb)
	likeRepo := repositories.NewPostgresLikeRepository(pgdb)
	commentLikeRepo := repositories.NewPostgresCommentLikeRepository(pgdb)
	followRepo := repositories.NewPostgresFollowRepository(pgdb)
	trackerRepo := repositories.NewPostgresTrackerRepository(pgdb)
	conversationRepo := repositories.NewPostgresConversationRepository(pgdb)
	activitySources := repositories.NewPostgresActivitySources(pgdb)

	// --- Services ---
	conversationService := services.NewConversationService(conversationRepo, deps.Messages, userRepo, deps.Logger)
	notificationService := services.NewNotificationService(activitySources, trackerRepo, userRepo, conversationService, deps.Logger)
	activityService := services.NewActivityService(userRepo, followRepo, postRepo, likeRepo, commentRepo, commentLikeRepo, deps.Logger)

	// --- Protected routes ---
	api := e.Group("/api/v1")
	switch deps.AuthMode {
	case config.AuthModeJWT:
		if deps.JWTSecret == "" {
			return errors.New("JWT_SECRET is required in jwt auth mode")
		}
		api.Use(middleware.JWTAuthMiddleware(deps.JWTSecret))
	case config.AuthModeFirebase:
		if deps.FirebaseAuth == nil {
			return errors.New("firebase auth client is required in firebase auth mode")
		}
		api.Use(middleware.FirebaseAuthMiddleware(deps.FirebaseAuth, userRepo, deps.Logger))
	default:
		return errors.Errorf("unknown auth mode %q", deps.AuthMode)
	}
	log.Info().Str("auth_mode", deps.AuthMode).Msg("authentication middleware applied to /api/v1 group")

	handlers.NewUserHandler(userRepo).RegisterProfileRoutes(api)
	handlers.NewPostHandler(activityService).RegisterPostRoutes(api)
	handlers.NewFollowHandler(activityService).RegisterFollowRoutes(api)
	handlers.NewCommentHandler(activityService).RegisterCommentRoutes(api)
	handlers.NewLikeHandler(activityService).RegisterLikeRoutes(api)
	handlers.NewNotificationHandler(notificationService, userRepo, deps.Logger).RegisterNotificationRoutes(api)
	handlers.NewConversationHandler(conversationService).RegisterConversationRoutes(api)

	log.Info().Int("routes", len(e.Routes())).Msg("all routes configured")
	return nil
}
