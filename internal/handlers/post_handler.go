package handlers

import (
	"net/http"

	"github.com/anonto42/pulse/backend/internal/models"
	"github.com/anonto42/pulse/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// PostHandler handles HTTP requests related to posts and reposts
type PostHandler struct {
	activityService *services.ActivityService
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(activityService *services.ActivityService) *PostHandler {
	return &PostHandler{activityService: activityService}
}

// RegisterPostRoutes registers post-related routes
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.POST("/posts", h.CreatePost)
	g.DELETE("/posts/:id", h.DeletePost)
	g.POST("/posts/:id/reposts", h.Repost)
}

// CreatePost creates a new post
func (h *PostHandler) CreatePost(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}

	var req models.CreatePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	post, err := h.activityService.CreatePost(c.Request().Context(), currentUserID, req.Body)
	if err != nil {
		return toHTTPError(err)
	}
	return success(c, http.StatusCreated, post)
}

// DeletePost deletes a post together with its likes, comments and reposts
func (h *PostHandler) DeletePost(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}
	postID, err := paramID(c, "id", "post")
	if err != nil {
		return err
	}

	if err := h.activityService.DeletePost(c.Request().Context(), postID, currentUserID); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Repost shares a post on the caller's profile
func (h *PostHandler) Repost(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}
	postID, err := paramID(c, "id", "post")
	if err != nil {
		return err
	}

	repost, err := h.activityService.Repost(c.Request().Context(), postID, currentUserID)
	if err != nil {
		return toHTTPError(err)
	}
	return success(c, http.StatusCreated, repost)
}
