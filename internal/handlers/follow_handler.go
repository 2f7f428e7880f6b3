package handlers

import (
	"net/http"

	"github.com/anonto42/pulse/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// FollowHandler handles follow/unfollow HTTP requests
type FollowHandler struct {
	activityService *services.ActivityService
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(activityService *services.ActivityService) *FollowHandler {
	return &FollowHandler{activityService: activityService}
}

// RegisterFollowRoutes registers follow-related routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.POST("/users/:id/follow", h.FollowUser)
	g.DELETE("/users/:id/follow", h.UnfollowUser)
}

// FollowUser follows a user
func (h *FollowHandler) FollowUser(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}
	targetID, err := paramID(c, "id", "user")
	if err != nil {
		return err
	}

	if _, err := h.activityService.Follow(c.Request().Context(), currentUserID, targetID); err != nil {
		return toHTTPError(err)
	}
	return success(c, http.StatusOK, echo.Map{"following": true})
}

// UnfollowUser unfollows a user
func (h *FollowHandler) UnfollowUser(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}
	targetID, err := paramID(c, "id", "user")
	if err != nil {
		return err
	}

	if err := h.activityService.Unfollow(c.Request().Context(), currentUserID, targetID); err != nil {
		return toHTTPError(err)
	}
	return success(c, http.StatusOK, echo.Map{"following": false})
}
