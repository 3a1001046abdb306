package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"collab-service/internal/client"
	"collab-service/internal/domain"
	"collab-service/internal/repository"
	"collab-service/internal/response"
)

// ProjectService defines project and membership business logic
type ProjectService interface {
	CreateProject(ctx context.Context, userID uuid.UUID, token, name, description string) (*domain.Project, error)
	ListProjects(ctx context.Context, userID uuid.UUID) ([]domain.Project, error)
	GetProject(ctx context.Context, projectID, userID uuid.UUID) (*domain.Project, error)
	AddMember(ctx context.Context, projectID, actorID uuid.UUID, token, emailOrUsername string) (*domain.Project, error)
	IsMember(ctx context.Context, projectID, userID uuid.UUID) (bool, error)
}

type projectService struct {
	projectRepo repository.ProjectRepository
	userClient  client.UserClient
	logger      *zap.Logger
}

func NewProjectService(projectRepo repository.ProjectRepository, userClient client.UserClient, logger *zap.Logger) ProjectService {
	return &projectService{
		projectRepo: projectRepo,
		userClient:  userClient,
		logger:      logger,
	}
}

// CreateProject creates a project with the creator as its only head member.
func (s *projectService) CreateProject(ctx context.Context, userID uuid.UUID, token, name, description string) (*domain.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, response.NewAppError(response.ErrCodeValidation, "Project name is required", "")
	}

	userName, avatarURL := s.resolveDisplay(ctx, userID, token)

	project := &domain.Project{
		Name:           name,
		Description:    description,
		CreatedBy:      userID,
		LastActivityAt: time.Now(),
		Members: []domain.ProjectMember{
			{
				UserID:       userID,
				Role:         domain.RoleHead,
				Presence:     domain.PresenceOffline,
				UserName:     userName,
				AvatarURL:    avatarURL,
				JoinedAt:     time.Now(),
				LastActiveAt: time.Now(),
			},
		},
	}

	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, response.NewAppError(response.ErrCodeInternal, "Failed to create project", err.Error())
	}

	return s.projectRepo.FindByID(ctx, project.ID)
}

func (s *projectService) ListProjects(ctx context.Context, userID uuid.UUID) ([]domain.Project, error) {
	projects, err := s.projectRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, response.NewAppError(response.ErrCodeInternal, "Failed to list projects", err.Error())
	}
	return projects, nil
}

// GetProject returns the project for a member. Non-members get not-found so
// project existence is not leaked.
func (s *projectService) GetProject(ctx context.Context, projectID, userID uuid.UUID) (*domain.Project, error) {
	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewAppError(response.ErrCodeNotFound, "Project not found", "")
		}
		return nil, response.NewAppError(response.ErrCodeInternal, "Failed to fetch project", err.Error())
	}

	for _, member := range project.Members {
		if member.UserID == userID {
			return project, nil
		}
	}
	return nil, response.NewAppError(response.ErrCodeNotFound, "Project not found", "")
}

// AddMember adds a collaborator, head-only.
func (s *projectService) AddMember(ctx context.Context, projectID, actorID uuid.UUID, token, emailOrUsername string) (*domain.Project, error) {
	emailOrUsername = strings.TrimSpace(emailOrUsername)
	if emailOrUsername == "" {
		return nil, response.NewAppError(response.ErrCodeValidation, "Email or username is required", "")
	}

	actor, err := s.projectRepo.FindMember(ctx, projectID, actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewAppError(response.ErrCodeNotFound, "Project not found", "")
		}
		return nil, response.NewAppError(response.ErrCodeInternal, "Failed to verify membership", err.Error())
	}
	if !actor.IsHead() {
		return nil, response.NewAppError(response.ErrCodeForbidden, "Only the project head can add members", "")
	}

	user, err := s.userClient.LookupUser(ctx, strings.ToLower(emailOrUsername), token)
	if err != nil {
		if errors.Is(err, client.ErrUserNotFound) {
			return nil, response.NewAppError(response.ErrCodeNotFound, "User not found", "")
		}
		return nil, response.NewAppError(response.ErrCodeInternal, "Failed to look up user", err.Error())
	}

	userID, err := uuid.Parse(user.UserID)
	if err != nil {
		return nil, response.NewAppError(response.ErrCodeInternal, "Invalid user ID from user service", err.Error())
	}

	if exists, err := s.projectRepo.IsMember(ctx, projectID, userID); err != nil {
		return nil, response.NewAppError(response.ErrCodeInternal, "Failed to verify membership", err.Error())
	} else if exists {
		return nil, response.NewAppError(response.ErrCodeAlreadyExists, "User already in project", "")
	}

	member := &domain.ProjectMember{
		ProjectID:    projectID,
		UserID:       userID,
		Role:         domain.RoleCollaborator,
		Presence:     domain.PresenceOffline,
		UserName:     user.UserName,
		AvatarURL:    user.AvatarURL,
		JoinedAt:     time.Now(),
		LastActiveAt: time.Now(),
	}
	if err := s.projectRepo.AddMember(ctx, member); err != nil {
		if strings.Contains(err.Error(), "duplicate") || strings.Contains(err.Error(), "unique") {
			return nil, response.NewAppError(response.ErrCodeAlreadyExists, "User already in project", "")
		}
		return nil, response.NewAppError(response.ErrCodeInternal, "Failed to add member", err.Error())
	}

	return s.projectRepo.FindByID(ctx, projectID)
}

func (s *projectService) IsMember(ctx context.Context, projectID, userID uuid.UUID) (bool, error) {
	return s.projectRepo.IsMember(ctx, projectID, userID)
}

// resolveDisplay fetches display attributes, defaulting when the user service
// is unavailable so project creation never fails on a lookup.
func (s *projectService) resolveDisplay(ctx context.Context, userID uuid.UUID, token string) (string, string) {
	info, err := s.userClient.GetUserInfo(ctx, userID.String(), token)
	if err != nil {
		s.logger.Warn("Failed to get user info", zap.String("user_id", userID.String()), zap.Error(err))
		return "Unknown", ""
	}
	return info.UserName, info.AvatarURL
}
