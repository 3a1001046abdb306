package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"collab-service/internal/domain"
	"collab-service/internal/response"
)

func TestCoerceStatus(t *testing.T) {
	cases := []struct {
		raw  string
		want domain.PresenceStatus
	}{
		{"viewing", domain.PresenceViewing},
		{"editing", domain.PresenceEditing},
		{"offline", domain.PresenceOffline},
		{"", domain.PresenceViewing},
		{"typing", domain.PresenceViewing},
		{"VIEWING", domain.PresenceViewing},
	}

	for _, c := range cases {
		if got := CoerceStatus(c.raw); got != c.want {
			t.Errorf("CoerceStatus(%q) = %s, want %s", c.raw, got, c.want)
		}
	}
}

func TestPresenceService_SetPresence_NonMember(t *testing.T) {
	presenceRepo := &MockPresenceRepository{
		SetPresenceFunc: func(ctx context.Context, projectID, userID uuid.UUID, status domain.PresenceStatus) error {
			return gorm.ErrRecordNotFound
		},
	}

	svc := NewPresenceService(presenceRepo, &MockProjectRepository{}, zap.NewNop())
	_, err := svc.SetPresence(context.Background(), uuid.New(), uuid.New(), domain.PresenceViewing)
	assertAppErrorCode(t, err, response.ErrCodeNotFound)
}

func TestPresenceService_SetPresence_ReturnsFreshList(t *testing.T) {
	projectID := uuid.New()
	userID := uuid.New()
	var wroteStatus domain.PresenceStatus

	presenceRepo := &MockPresenceRepository{
		SetPresenceFunc: func(ctx context.Context, pid, uid uuid.UUID, status domain.PresenceStatus) error {
			wroteStatus = status
			return nil
		},
		ListMembersFunc: func(ctx context.Context, pid uuid.UUID) ([]domain.ProjectMember, error) {
			return []domain.ProjectMember{
				{ProjectID: pid, UserID: userID, Presence: domain.PresenceEditing},
				{ProjectID: pid, UserID: uuid.New(), Presence: domain.PresenceOffline},
			}, nil
		},
	}

	svc := NewPresenceService(presenceRepo, &MockProjectRepository{}, zap.NewNop())
	members, err := svc.SetPresence(context.Background(), projectID, userID, domain.PresenceEditing)
	if err != nil {
		t.Fatalf("SetPresence() error = %v", err)
	}
	if wroteStatus != domain.PresenceEditing {
		t.Errorf("expected editing written, got %s", wroteStatus)
	}
	if len(members) != 2 {
		t.Fatalf("expected full member list, got %d entries", len(members))
	}
}

func TestPresenceService_Members_NonMember(t *testing.T) {
	projectRepo := &MockProjectRepository{
		IsMemberFunc: func(ctx context.Context, projectID, userID uuid.UUID) (bool, error) {
			return false, nil
		},
	}

	svc := NewPresenceService(&MockPresenceRepository{}, projectRepo, zap.NewNop())
	_, err := svc.Members(context.Background(), uuid.New(), uuid.New())
	assertAppErrorCode(t, err, response.ErrCodeNotFound)
}
