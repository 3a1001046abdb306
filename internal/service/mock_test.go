package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"collab-service/internal/client"
	"collab-service/internal/domain"
)

// MockProjectRepository is a mock implementation of repository.ProjectRepository
type MockProjectRepository struct {
	CreateFunc        func(ctx context.Context, project *domain.Project) error
	FindByIDFunc      func(ctx context.Context, id uuid.UUID) (*domain.Project, error)
	FindByUserFunc    func(ctx context.Context, userID uuid.UUID) ([]domain.Project, error)
	IsMemberFunc      func(ctx context.Context, projectID, userID uuid.UUID) (bool, error)
	FindMemberFunc    func(ctx context.Context, projectID, userID uuid.UUID) (*domain.ProjectMember, error)
	AddMemberFunc     func(ctx context.Context, member *domain.ProjectMember) error
	TouchActivityFunc func(ctx context.Context, projectID uuid.UUID) error
}

func (m *MockProjectRepository) Create(ctx context.Context, project *domain.Project) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, project)
	}
	return nil
}

func (m *MockProjectRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockProjectRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]domain.Project, error) {
	if m.FindByUserFunc != nil {
		return m.FindByUserFunc(ctx, userID)
	}
	return nil, nil
}

func (m *MockProjectRepository) IsMember(ctx context.Context, projectID, userID uuid.UUID) (bool, error) {
	if m.IsMemberFunc != nil {
		return m.IsMemberFunc(ctx, projectID, userID)
	}
	return false, nil
}

func (m *MockProjectRepository) FindMember(ctx context.Context, projectID, userID uuid.UUID) (*domain.ProjectMember, error) {
	if m.FindMemberFunc != nil {
		return m.FindMemberFunc(ctx, projectID, userID)
	}
	return nil, nil
}

func (m *MockProjectRepository) AddMember(ctx context.Context, member *domain.ProjectMember) error {
	if m.AddMemberFunc != nil {
		return m.AddMemberFunc(ctx, member)
	}
	return nil
}

func (m *MockProjectRepository) TouchActivity(ctx context.Context, projectID uuid.UUID) error {
	if m.TouchActivityFunc != nil {
		return m.TouchActivityFunc(ctx, projectID)
	}
	return nil
}

// MockPresenceRepository is a mock implementation of repository.PresenceRepository
type MockPresenceRepository struct {
	SetPresenceFunc func(ctx context.Context, projectID, userID uuid.UUID, status domain.PresenceStatus) error
	ListMembersFunc func(ctx context.Context, projectID uuid.UUID) ([]domain.ProjectMember, error)
}

func (m *MockPresenceRepository) SetPresence(ctx context.Context, projectID, userID uuid.UUID, status domain.PresenceStatus) error {
	if m.SetPresenceFunc != nil {
		return m.SetPresenceFunc(ctx, projectID, userID, status)
	}
	return nil
}

func (m *MockPresenceRepository) ListMembers(ctx context.Context, projectID uuid.UUID) ([]domain.ProjectMember, error) {
	if m.ListMembersFunc != nil {
		return m.ListMembersFunc(ctx, projectID)
	}
	return nil, nil
}

// MockMessageRepository is a mock implementation of repository.MessageRepository
type MockMessageRepository struct {
	CreateFunc        func(ctx context.Context, message *domain.ChatMessage) error
	ListRecentFunc    func(ctx context.Context, projectID uuid.UUID, limit int) ([]domain.ChatMessage, error)
	DeleteExpiredFunc func(ctx context.Context, now time.Time) (int64, error)
}

func (m *MockMessageRepository) Create(ctx context.Context, message *domain.ChatMessage) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, message)
	}
	return nil
}

func (m *MockMessageRepository) ListRecent(ctx context.Context, projectID uuid.UUID, limit int) ([]domain.ChatMessage, error) {
	if m.ListRecentFunc != nil {
		return m.ListRecentFunc(ctx, projectID, limit)
	}
	return nil, nil
}

func (m *MockMessageRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	if m.DeleteExpiredFunc != nil {
		return m.DeleteExpiredFunc(ctx, now)
	}
	return 0, nil
}

// MockUserClient is a mock implementation of client.UserClient
type MockUserClient struct {
	GetUserInfoFunc func(ctx context.Context, userID, token string) (*client.UserInfo, error)
	LookupUserFunc  func(ctx context.Context, emailOrUsername, token string) (*client.UserInfo, error)
}

func (m *MockUserClient) GetUserInfo(ctx context.Context, userID, token string) (*client.UserInfo, error) {
	if m.GetUserInfoFunc != nil {
		return m.GetUserInfoFunc(ctx, userID, token)
	}
	return nil, nil
}

func (m *MockUserClient) LookupUser(ctx context.Context, emailOrUsername, token string) (*client.UserInfo, error) {
	if m.LookupUserFunc != nil {
		return m.LookupUserFunc(ctx, emailOrUsername, token)
	}
	return nil, nil
}
