package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"collab-service/internal/domain"
)

// PresenceRepository mutates and reads member presence state.
// Writes are targeted single-row updates so two processes updating different
// members of the same project never clobber each other.
type PresenceRepository interface {
	SetPresence(ctx context.Context, projectID, userID uuid.UUID, status domain.PresenceStatus) error
	ListMembers(ctx context.Context, projectID uuid.UUID) ([]domain.ProjectMember, error)
}

type presenceRepository struct {
	db *gorm.DB
}

func NewPresenceRepository(db *gorm.DB) PresenceRepository {
	return &presenceRepository{db: db}
}

func (r *presenceRepository) SetPresence(ctx context.Context, projectID, userID uuid.UUID, status domain.PresenceStatus) error {
	result := r.db.WithContext(ctx).
		Model(&domain.ProjectMember{}).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Updates(map[string]interface{}{
			"presence":       status,
			"last_active_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *presenceRepository) ListMembers(ctx context.Context, projectID uuid.UUID) ([]domain.ProjectMember, error) {
	var members []domain.ProjectMember
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("joined_at ASC").
		Find(&members).Error
	return members, err
}
