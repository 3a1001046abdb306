package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"collab-service/internal/domain"
)

// MessageRepository persists chat messages
type MessageRepository interface {
	Create(ctx context.Context, message *domain.ChatMessage) error
	ListRecent(ctx context.Context, projectID uuid.UUID, limit int) ([]domain.ChatMessage, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type messageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, message *domain.ChatMessage) error {
	return r.db.WithContext(ctx).Create(message).Error
}

// ListRecent returns the newest limit messages in ascending chronological
// order, the convention both the REST and socket clients expect.
func (r *messageRepository) ListRecent(ctx context.Context, projectID uuid.UUID, limit int) ([]domain.ChatMessage, error) {
	var messages []domain.ChatMessage
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	// Reverse newest-first into ascending order
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (r *messageRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at <= ?", now).
		Delete(&domain.ChatMessage{})
	return result.RowsAffected, result.Error
}
