package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"collab-service/internal/domain"
	"collab-service/internal/middleware"
	"collab-service/internal/repository"
	"collab-service/internal/response"
)

const (
	// DefaultHistoryLimit caps chat history reads on both transports
	DefaultHistoryLimit = 100
	// DetailHistoryLimit is the recent-chat preview size in project detail
	DetailHistoryLimit = 30
)

// ChatService persists and serves project chat messages
type ChatService interface {
	PostMessage(ctx context.Context, projectID, senderID uuid.UUID, text string) (*domain.ChatMessage, error)
	ListMessages(ctx context.Context, projectID, userID uuid.UUID, limit int) ([]domain.ChatMessage, error)
}

type chatService struct {
	messageRepo repository.MessageRepository
	projectRepo repository.ProjectRepository
	logger      *zap.Logger
}

func NewChatService(messageRepo repository.MessageRepository, projectRepo repository.ProjectRepository, logger *zap.Logger) ChatService {
	return &chatService{
		messageRepo: messageRepo,
		projectRepo: projectRepo,
		logger:      logger,
	}
}

// PostMessage appends an immutable message for a member. The sender's display
// name is taken from the membership row so history reads stay self-contained.
func (s *chatService) PostMessage(ctx context.Context, projectID, senderID uuid.UUID, text string) (*domain.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, response.NewAppError(response.ErrCodeValidation, "Message cannot be empty", "")
	}

	member, err := s.projectRepo.FindMember(ctx, projectID, senderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewAppError(response.ErrCodeNotFound, "Project not found", "")
		}
		return nil, response.NewAppError(response.ErrCodeInternal, "Failed to verify membership", err.Error())
	}

	now := time.Now()
	message := &domain.ChatMessage{
		ProjectID:  projectID,
		SenderID:   senderID,
		SenderName: member.UserName,
		Message:    text,
		CreatedAt:  now,
		ExpiresAt:  now.Add(domain.ChatRetention),
	}

	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, response.NewAppError(response.ErrCodeInternal, "Failed to save message", err.Error())
	}

	middleware.RecordMessageSent()

	// Chat activity bumps the project's recency ordering; failure here does
	// not fail the send.
	if err := s.projectRepo.TouchActivity(ctx, projectID); err != nil {
		s.logger.Warn("Failed to touch project activity",
			zap.String("project_id", projectID.String()),
			zap.Error(err))
	}

	return message, nil
}

// ListMessages returns up to limit of the newest messages in ascending order.
func (s *chatService) ListMessages(ctx context.Context, projectID, userID uuid.UUID, limit int) ([]domain.ChatMessage, error) {
	isMember, err := s.projectRepo.IsMember(ctx, projectID, userID)
	if err != nil {
		return nil, response.NewAppError(response.ErrCodeInternal, "Failed to verify membership", err.Error())
	}
	if !isMember {
		return nil, response.NewAppError(response.ErrCodeNotFound, "Project not found", "")
	}

	if limit <= 0 || limit > DefaultHistoryLimit {
		limit = DefaultHistoryLimit
	}

	messages, err := s.messageRepo.ListRecent(ctx, projectID, limit)
	if err != nil {
		return nil, response.NewAppError(response.ErrCodeInternal, "Failed to read messages", err.Error())
	}
	return messages, nil
}
