package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"collab-service/internal/domain"
)

// ProjectRepository defines persistence operations for projects and memberships
type ProjectRepository interface {
	Create(ctx context.Context, project *domain.Project) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Project, error)
	FindByUser(ctx context.Context, userID uuid.UUID) ([]domain.Project, error)
	IsMember(ctx context.Context, projectID, userID uuid.UUID) (bool, error)
	FindMember(ctx context.Context, projectID, userID uuid.UUID) (*domain.ProjectMember, error)
	AddMember(ctx context.Context, member *domain.ProjectMember) error
	TouchActivity(ctx context.Context, projectID uuid.UUID) error
}

type projectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) Create(ctx context.Context, project *domain.Project) error {
	return r.db.WithContext(ctx).Create(project).Error
}

func (r *projectRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	var project domain.Project
	err := r.db.WithContext(ctx).
		Preload("Members", func(db *gorm.DB) *gorm.DB {
			return db.Order("project_members.joined_at ASC")
		}).
		First(&project, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *projectRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]domain.Project, error) {
	var projects []domain.Project
	err := r.db.WithContext(ctx).
		Joins("JOIN project_members ON project_members.project_id = projects.id").
		Where("project_members.user_id = ?", userID).
		Preload("Members", func(db *gorm.DB) *gorm.DB {
			return db.Order("project_members.joined_at ASC")
		}).
		Order("projects.last_activity_at DESC").
		Find(&projects).Error
	return projects, err
}

func (r *projectRepository) IsMember(ctx context.Context, projectID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.ProjectMember{}).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *projectRepository) FindMember(ctx context.Context, projectID, userID uuid.UUID) (*domain.ProjectMember, error) {
	var member domain.ProjectMember
	err := r.db.WithContext(ctx).
		First(&member, "project_id = ? AND user_id = ?", projectID, userID).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *projectRepository) AddMember(ctx context.Context, member *domain.ProjectMember) error {
	return r.db.WithContext(ctx).Create(member).Error
}

func (r *projectRepository) TouchActivity(ctx context.Context, projectID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&domain.Project{}).
		Where("id = ?", projectID).
		Update("last_activity_at", time.Now()).Error
}
