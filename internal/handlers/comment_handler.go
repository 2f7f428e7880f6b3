package handlers

import (
	"net/http"

	"github.com/anonto42/pulse/backend/internal/models"
	"github.com/anonto42/pulse/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// CommentHandler handles HTTP requests related to comments and replies
type CommentHandler struct {
	activityService *services.ActivityService
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(activityService *services.ActivityService) *CommentHandler {
	return &CommentHandler{activityService: activityService}
}

// RegisterCommentRoutes registers comment-related routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.POST("/posts/:id/comments", h.CreateComment)
	g.DELETE("/comments/:id", h.DeleteComment)
}

// CreateComment comments on a post, or replies when the body names a parent
func (h *CommentHandler) CreateComment(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}
	postID, err := paramID(c, "id", "post")
	if err != nil {
		return err
	}

	var req models.CreateCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	comment, err := h.activityService.Comment(c.Request().Context(), postID, currentUserID, req)
	if err != nil {
		return toHTTPError(err)
	}
	return success(c, http.StatusCreated, comment)
}

// DeleteComment deletes a comment and its replies
func (h *CommentHandler) DeleteComment(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}
	commentID, err := paramID(c, "id", "comment")
	if err != nil {
		return err
	}

	if err := h.activityService.DeleteComment(c.Request().Context(), commentID, currentUserID); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
