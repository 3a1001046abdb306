package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"collab-service/internal/response"
	"collab-service/internal/service"
)

// ProjectHandler serves the project and membership REST surface
type ProjectHandler struct {
	projectService service.ProjectService
	chatService    service.ChatService
	logger         *zap.Logger
}

func NewProjectHandler(projectService service.ProjectService, chatService service.ChatService, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
		chatService:    chatService,
		logger:         logger,
	}
}

// CreateProject handles POST /api/projects
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	userID, token, ok := requestUser(c)
	if !ok {
		return
	}

	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Project name is required")
		return
	}

	project, err := h.projectService.CreateProject(c.Request.Context(), userID, token, req.Name, req.Description)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": project})
}

// ListProjects handles GET /api/projects
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	userID, _, ok := requestUser(c)
	if !ok {
		return
	}

	projects, err := h.projectService.ListProjects(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": projects})
}

// GetProject handles GET /api/projects/:projectId. The detail view bundles a
// recent-chat preview so the client can render without a second round trip.
func (h *ProjectHandler) GetProject(c *gin.Context) {
	userID, _, ok := requestUser(c)
	if !ok {
		return
	}
	projectID, ok := pathProjectID(c)
	if !ok {
		return
	}

	project, err := h.projectService.GetProject(c.Request.Context(), projectID, userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	messages, err := h.chatService.ListMessages(c.Request.Context(), projectID, userID, service.DetailHistoryLimit)
	if err != nil {
		h.logger.Warn("Failed to load chat preview",
			zap.String("project_id", projectID.String()),
			zap.Error(err))
		messages = nil
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"project":        project,
			"recentMessages": messages,
		},
	})
}

// AddMember handles POST /api/projects/:projectId/members
func (h *ProjectHandler) AddMember(c *gin.Context) {
	userID, token, ok := requestUser(c)
	if !ok {
		return
	}
	projectID, ok := pathProjectID(c)
	if !ok {
		return
	}

	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Email or username is required")
		return
	}

	project, err := h.projectService.AddMember(c.Request.Context(), projectID, userID, token, req.EmailOrUsername)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": project})
}
