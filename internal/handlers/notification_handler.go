package handlers

import (
	"context"
	"net/http"

	"github.com/anonto42/pulse/backend/internal/models"
	"github.com/anonto42/pulse/backend/internal/services"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// UserDirectory loads the public profile of notification actors
type UserDirectory interface {
	GetUsersByIDs(ctx context.Context, ids []uint) ([]models.User, error)
}

// NotificationHandler handles notification-related HTTP requests
type NotificationHandler struct {
	notificationService *services.NotificationService
	users               UserDirectory
	logger              zerolog.Logger
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notificationService *services.NotificationService, users UserDirectory, logger zerolog.Logger) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		users:               users,
		logger:              logger.With().Str("component", "notification_handler").Logger(),
	}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.GetNotifications)
	g.GET("/notifications/badge", h.GetBadge)
	g.GET("/notifications/summary", h.GetSummary)
}

// EnrichedNotification includes actor info
type EnrichedNotification struct {
	services.NotificationItem
	Actor models.UserCompact `json:"actor"`
}

// enrichNotifications attaches the actor's public profile. Actors that
// cannot be loaded keep only their id.
func (h *NotificationHandler) enrichNotifications(ctx context.Context, items []services.NotificationItem) []EnrichedNotification {
	ids := make([]uint, 0, len(items))
	seen := make(map[uint]bool, len(items))
	for _, item := range items {
		if !seen[item.ActorID] {
			seen[item.ActorID] = true
			ids = append(ids, item.ActorID)
		}
	}

	actors := make(map[uint]models.UserCompact, len(ids))
	users, err := h.users.GetUsersByIDs(ctx, ids)
	if err != nil {
		h.logger.Warn().Err(err).Msg("failed to load notification actors")
	}
	for i := range users {
		actors[users[i].ID] = users[i].ToCompact()
	}

	enriched := make([]EnrichedNotification, len(items))
	for i, item := range items {
		actor, ok := actors[item.ActorID]
		if !ok {
			actor = models.UserCompact{ID: item.ActorID}
		}
		enriched[i] = EnrichedNotification{NotificationItem: item, Actor: actor}
	}
	return enriched
}

// GetNotifications renders the notifications page and marks it seen
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	page, err := h.notificationService.ViewNotifications(ctx, currentUserID)
	if err != nil {
		return toHTTPError(err)
	}

	return success(c, http.StatusOK, echo.Map{
		"notifications": h.enrichNotifications(ctx, page.Notifications),
		"welcome":       page.Welcome,
		"previous_seen": page.PreviousSeen,
	})
}

// GetBadge answers the polled "anything new" probe without moving the cursor
func (h *NotificationHandler) GetBadge(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}

	badge, err := h.notificationService.Badge(c.Request().Context(), currentUserID)
	if err != nil {
		return toHTTPError(err)
	}
	return success(c, http.StatusOK, badge)
}

// GetSummary returns per-kind counts of pending notifications
func (h *NotificationHandler) GetSummary(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}

	summary, err := h.notificationService.Summary(c.Request().Context(), currentUserID)
	if err != nil {
		return toHTTPError(err)
	}
	return success(c, http.StatusOK, summary)
}
