package handlers

import (
	"context"
	"net/http"

	"github.com/anonto42/pulse/backend/internal/models"
	"github.com/labstack/echo/v4"
)

// UserLookup loads single users
type UserLookup interface {
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
}

// UserHandler handles HTTP requests related to users
type UserHandler struct {
	users UserLookup
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(users UserLookup) *UserHandler {
	return &UserHandler{users: users}
}

// RegisterProfileRoutes registers user profile-related routes
func (h *UserHandler) RegisterProfileRoutes(g *echo.Group) {
	g.GET("/profile", h.GetProfile)
	g.GET("/users/:id", h.GetUser)
}

// GetUser returns another user's public profile
func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := paramID(c, "id", "user")
	if err != nil {
		return err
	}
	user, err := h.users.GetUserByID(c.Request().Context(), id)
	if err != nil {
		return toHTTPError(err)
	}
	return success(c, http.StatusOK, user.ToCompact())
}

// GetProfile retrieves the authenticated user's profile
func (h *UserHandler) GetProfile(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}
	user, err := h.users.GetUserByID(c.Request().Context(), currentUserID)
	if err != nil {
		return toHTTPError(err)
	}
	return success(c, http.StatusOK, user)
}
