package handlers

import (
	"net/http"

	"github.com/anonto42/pulse/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// LikeHandler handles likes on posts and comments
type LikeHandler struct {
	activityService *services.ActivityService
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(activityService *services.ActivityService) *LikeHandler {
	return &LikeHandler{activityService: activityService}
}

// RegisterLikeRoutes registers like-related routes
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group) {
	g.POST("/posts/:id/likes", h.LikePost)
	g.DELETE("/posts/:id/likes", h.UnlikePost)
	g.POST("/comments/:id/likes", h.LikeComment)
	g.DELETE("/comments/:id/likes", h.UnlikeComment)
}

// LikePost handles liking a post
func (h *LikeHandler) LikePost(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}
	postID, err := paramID(c, "id", "post")
	if err != nil {
		return err
	}

	like, err := h.activityService.LikePost(c.Request().Context(), postID, currentUserID)
	if err != nil {
		return toHTTPError(err)
	}
	return success(c, http.StatusCreated, like)
}

// UnlikePost handles unliking a post
func (h *LikeHandler) UnlikePost(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}
	postID, err := paramID(c, "id", "post")
	if err != nil {
		return err
	}

	if err := h.activityService.UnlikePost(c.Request().Context(), postID, currentUserID); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *LikeHandler) LikeComment(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}
	commentID, err := paramID(c, "id", "comment")
	if err != nil {
		return err
	}

	like, err := h.activityService.LikeComment(c.Request().Context(), commentID, currentUserID)
	if err != nil {
		return toHTTPError(err)
	}
	return success(c, http.StatusCreated, like)
}

func (h *LikeHandler) UnlikeComment(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}
	commentID, err := paramID(c, "id", "comment")
	if err != nil {
		return err
	}

	if err := h.activityService.UnlikeComment(c.Request().Context(), commentID, currentUserID); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
