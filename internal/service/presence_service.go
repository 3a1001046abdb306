package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"collab-service/internal/domain"
	"collab-service/internal/middleware"
	"collab-service/internal/repository"
	"collab-service/internal/response"
)

// CoerceStatus maps a raw status value to the enum the live-connection path
// accepts: empty or invalid values become viewing. The REST path validates
// strictly instead.
func CoerceStatus(raw string) domain.PresenceStatus {
	status := domain.PresenceStatus(raw)
	if !status.Valid() {
		return domain.PresenceViewing
	}
	return status
}

// PresenceService mutates member presence and serves the member list.
// Every mutation is a targeted write on the single (project, user) row
// followed by a fresh read of the full list; concurrent writers resolve by
// last write wins.
type PresenceService interface {
	SetPresence(ctx context.Context, projectID, userID uuid.UUID, status domain.PresenceStatus) ([]domain.ProjectMember, error)
	Members(ctx context.Context, projectID, userID uuid.UUID) ([]domain.ProjectMember, error)
}

type presenceService struct {
	presenceRepo repository.PresenceRepository
	projectRepo  repository.ProjectRepository
	logger       *zap.Logger
}

func NewPresenceService(presenceRepo repository.PresenceRepository, projectRepo repository.ProjectRepository, logger *zap.Logger) PresenceService {
	return &presenceService{
		presenceRepo: presenceRepo,
		projectRepo:  projectRepo,
		logger:       logger,
	}
}

// SetPresence writes the status for one member and returns the re-read member
// list for broadcast. A non-member write is reported as not-found.
func (s *presenceService) SetPresence(ctx context.Context, projectID, userID uuid.UUID, status domain.PresenceStatus) ([]domain.ProjectMember, error) {
	if err := s.presenceRepo.SetPresence(ctx, projectID, userID, status); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewAppError(response.ErrCodeNotFound, "Project not found", "")
		}
		return nil, response.NewAppError(response.ErrCodeInternal, "Failed to update presence", err.Error())
	}

	middleware.RecordPresenceUpdate()

	members, err := s.presenceRepo.ListMembers(ctx, projectID)
	if err != nil {
		return nil, response.NewAppError(response.ErrCodeInternal, "Failed to read members", err.Error())
	}
	return members, nil
}

// Members returns the member list for a member of the project; non-members
// get not-found.
func (s *presenceService) Members(ctx context.Context, projectID, userID uuid.UUID) ([]domain.ProjectMember, error) {
	isMember, err := s.projectRepo.IsMember(ctx, projectID, userID)
	if err != nil {
		return nil, response.NewAppError(response.ErrCodeInternal, "Failed to verify membership", err.Error())
	}
	if !isMember {
		return nil, response.NewAppError(response.ErrCodeNotFound, "Project not found", "")
	}

	members, err := s.presenceRepo.ListMembers(ctx, projectID)
	if err != nil {
		return nil, response.NewAppError(response.ErrCodeInternal, "Failed to read members", err.Error())
	}
	return members, nil
}
