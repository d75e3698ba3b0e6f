package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/pairchat/pairchat/internal/domain"
	"github.com/pairchat/pairchat/internal/middleware"
	"github.com/pairchat/pairchat/internal/service"
	"github.com/pairchat/pairchat/internal/storage"
	"github.com/pairchat/pairchat/pkg/response"
)

// MessageHandler exposes the contact list, history, and send endpoints.
type MessageHandler struct {
	messages     service.MessageService
	authRequired gin.HandlerFunc
}

// NewMessageHandler creates a new message handler.
func NewMessageHandler(messages service.MessageService, mw *middleware.AuthMiddleware) *MessageHandler {
	return &MessageHandler{
		messages:     messages,
		authRequired: mw.RequireAuth(),
	}
}

// RegisterRoutes mounts the message endpoints under /api/messages.
// All of them require an authenticated session.
func (h *MessageHandler) RegisterRoutes(r *gin.Engine) {
	messages := r.Group("/api/messages", h.authRequired)
	{
		messages.GET("/users", h.ListContacts)
		messages.GET("/:id", h.GetConversation)
		messages.POST("/send/:id", h.Send)
	}
}

func (h *MessageHandler) ListContacts(c *gin.Context) {
	users, err := h.messages.ListContacts(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		response.InternalError(c, "Internal server error")
		return
	}
	response.Success(c, users)
}

func (h *MessageHandler) GetConversation(c *gin.Context) {
	peerID := c.Param("id")

	messages, err := h.messages.GetConversation(c.Request.Context(), middleware.GetUserID(c), peerID)
	if err != nil {
		response.InternalError(c, "Internal server error")
		return
	}
	response.Success(c, messages)
}

func (h *MessageHandler) Send(c *gin.Context) {
	var req domain.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	msg, err := h.messages.Send(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyMessage):
			response.BadRequest(c, "Message must contain text or an image")
		case errors.Is(err, storage.ErrInvalidImage):
			response.BadRequest(c, "Invalid image data")
		case errors.Is(err, service.ErrUserNotFound):
			response.NotFound(c, "Receiver not found")
		default:
			response.InternalError(c, "Internal server error")
		}
		return
	}

	response.Created(c, msg)
}
