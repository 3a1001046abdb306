package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MemberRole defines the role of a project member
type MemberRole string

const (
	RoleHead         MemberRole = "head"
	RoleCollaborator MemberRole = "collaborator"
)

// PresenceStatus defines a member's activity state within a project
type PresenceStatus string

const (
	PresenceOffline PresenceStatus = "offline"
	PresenceViewing PresenceStatus = "viewing"
	PresenceEditing PresenceStatus = "editing"
)

// Valid reports whether s is one of the three wire values.
func (s PresenceStatus) Valid() bool {
	switch s {
	case PresenceOffline, PresenceViewing, PresenceEditing:
		return true
	}
	return false
}

// Project represents a collaborative project workspace
type Project struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"projectId"`
	Name           string          `gorm:"type:varchar(255);not null" json:"name"`
	Description    string          `gorm:"type:text" json:"description"`
	CreatedBy      uuid.UUID       `gorm:"type:uuid;not null" json:"createdBy"`
	LastActivityAt time.Time       `gorm:"type:timestamptz;default:now();not null" json:"lastActivityAt"`
	CreatedAt      time.Time       `gorm:"type:timestamptz;default:now();not null" json:"createdAt"`
	UpdatedAt      time.Time       `gorm:"type:timestamptz;default:now();not null" json:"updatedAt"`
	Members        []ProjectMember `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"members,omitempty"`
}

func (Project) TableName() string {
	return "projects"
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// ProjectMember is the (project, user) pair carrying role and presence.
// A user appears at most once per project (unique composite index).
type ProjectMember struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"-"`
	ProjectID    uuid.UUID      `gorm:"type:uuid;not null;index:idx_members_project_id;uniqueIndex:uq_members_project_user" json:"projectId"`
	UserID       uuid.UUID      `gorm:"type:uuid;not null;index:idx_members_user_id;uniqueIndex:uq_members_project_user" json:"userId"`
	Role         MemberRole     `gorm:"type:varchar(20);not null;default:'collaborator'" json:"role"`
	Presence     PresenceStatus `gorm:"type:varchar(20);not null;default:'offline'" json:"presence"`
	UserName     string         `gorm:"type:varchar(100)" json:"userName"`
	AvatarURL    string         `gorm:"type:text" json:"avatarUrl,omitempty"`
	JoinedAt     time.Time      `gorm:"type:timestamptz;default:now();not null" json:"joinedAt"`
	LastActiveAt time.Time      `gorm:"type:timestamptz;default:now();not null" json:"lastActiveAt"`
}

func (ProjectMember) TableName() string {
	return "project_members"
}

func (m *ProjectMember) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.JoinedAt.IsZero() {
		m.JoinedAt = time.Now()
	}
	return nil
}

// IsHead reports whether the member holds the head role.
func (m ProjectMember) IsHead() bool {
	return m.Role == RoleHead
}
