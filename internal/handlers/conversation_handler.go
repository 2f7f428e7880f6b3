package handlers

import (
	"net/http"

	"github.com/anonto42/pulse/backend/internal/models"
	"github.com/anonto42/pulse/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// ConversationHandler handles direct message HTTP requests
type ConversationHandler struct {
	conversationService *services.ConversationService
}

func NewConversationHandler(conversationService *services.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversationService: conversationService}
}

// RegisterConversationRoutes registers conversation routes
func (h *ConversationHandler) RegisterConversationRoutes(g *echo.Group) {
	g.POST("/conversations", h.StartConversation)
	g.GET("/conversations", h.ListConversations)
	g.GET("/conversations/:id", h.OpenConversation)
	g.POST("/conversations/:id/messages", h.SendMessage)
	g.DELETE("/messages/:id", h.DeleteMessage)
}

// StartConversation returns the direct conversation with another user, creating it if needed
func (h *ConversationHandler) StartConversation(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}

	var req models.StartConversationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	conversation, err := h.conversationService.StartConversation(c.Request().Context(), currentUserID, req.UserID)
	if err != nil {
		return toHTTPError(err)
	}
	return success(c, http.StatusOK, conversation)
}

func (h *ConversationHandler) ListConversations(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}

	conversations, err := h.conversationService.ListConversations(c.Request().Context(), currentUserID)
	if err != nil {
		return toHTTPError(err)
	}
	return success(c, http.StatusOK, echo.Map{"conversations": conversations})
}

// OpenConversation returns the latest messages and clears the caller's unread count
func (h *ConversationHandler) OpenConversation(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}
	conversationID, err := paramID(c, "id", "conversation")
	if err != nil {
		return err
	}

	view, err := h.conversationService.OpenConversation(c.Request().Context(), conversationID, currentUserID)
	if err != nil {
		return toHTTPError(err)
	}
	return success(c, http.StatusOK, view)
}

func (h *ConversationHandler) SendMessage(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}
	conversationID, err := paramID(c, "id", "conversation")
	if err != nil {
		return err
	}

	var req models.SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	msg, err := h.conversationService.SendMessage(c.Request().Context(), conversationID, currentUserID, req.Body)
	if err != nil {
		return toHTTPError(err)
	}
	return success(c, http.StatusCreated, msg)
}

// DeleteMessage deletes one of the caller's own messages
func (h *ConversationHandler) DeleteMessage(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}

	if err := h.conversationService.DeleteMessage(c.Request().Context(), c.Param("id"), currentUserID); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
