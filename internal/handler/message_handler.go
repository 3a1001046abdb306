package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"collab-service/internal/response"
	"collab-service/internal/service"
	"collab-service/internal/ws"
)

// MessageHandler serves the REST fallback for project chat
type MessageHandler struct {
	chatService service.ChatService
	hub         *ws.Hub
	logger      *zap.Logger
}

func NewMessageHandler(chatService service.ChatService, hub *ws.Hub, logger *zap.Logger) *MessageHandler {
	return &MessageHandler{
		chatService: chatService,
		hub:         hub,
		logger:      logger,
	}
}

// GetMessages handles GET /api/projects/:projectId/chat
func (h *MessageHandler) GetMessages(c *gin.Context) {
	userID, _, ok := requestUser(c)
	if !ok {
		return
	}
	projectID, ok := pathProjectID(c)
	if !ok {
		return
	}

	limit := service.DefaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid limit")
			return
		}
		limit = parsed
	}

	messages, err := h.chatService.ListMessages(c.Request.Context(), projectID, userID, limit)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": messages})
}

// PostMessage handles POST /api/projects/:projectId/chat. Messages posted here
// fan out to the project's live room exactly like socket-sent ones.
func (h *MessageHandler) PostMessage(c *gin.Context) {
	userID, _, ok := requestUser(c)
	if !ok {
		return
	}
	projectID, ok := pathProjectID(c)
	if !ok {
		return
	}

	var req PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Message cannot be empty")
		return
	}

	message, err := h.chatService.PostMessage(c.Request.Context(), projectID, userID, req.Message)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	h.hub.BroadcastChatMessage(projectID, message)

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": message})
}
