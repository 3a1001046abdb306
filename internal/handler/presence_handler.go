package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"collab-service/internal/domain"
	"collab-service/internal/response"
	"collab-service/internal/service"
	"collab-service/internal/ws"
)

// PresenceHandler serves the REST fallback for presence. Writes here reach the
// same store and the same room broadcast as the live-connection path.
type PresenceHandler struct {
	presenceService service.PresenceService
	hub             *ws.Hub
	logger          *zap.Logger
}

func NewPresenceHandler(presenceService service.PresenceService, hub *ws.Hub, logger *zap.Logger) *PresenceHandler {
	return &PresenceHandler{
		presenceService: presenceService,
		hub:             hub,
		logger:          logger,
	}
}

// GetPresence handles GET /api/projects/:projectId/presence
func (h *PresenceHandler) GetPresence(c *gin.Context) {
	userID, _, ok := requestUser(c)
	if !ok {
		return
	}
	projectID, ok := pathProjectID(c)
	if !ok {
		return
	}

	members, err := h.presenceService.Members(c.Request.Context(), projectID, userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": members})
}

// UpdatePresence handles POST /api/projects/:projectId/presence. Unlike the
// live-connection path, an invalid status is rejected here; an omitted status
// defaults to viewing.
func (h *PresenceHandler) UpdatePresence(c *gin.Context) {
	userID, _, ok := requestUser(c)
	if !ok {
		return
	}
	projectID, ok := pathProjectID(c)
	if !ok {
		return
	}

	var req UpdatePresenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid request body")
		return
	}

	status := domain.PresenceStatus(req.Status)
	if req.Status == "" {
		status = domain.PresenceViewing
	} else if !status.Valid() {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid presence status")
		return
	}

	members, err := h.presenceService.SetPresence(c.Request.Context(), projectID, userID, status)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	h.hub.BroadcastPresence(projectID, members)

	c.JSON(http.StatusOK, gin.H{"success": true, "data": members})
}
