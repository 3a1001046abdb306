package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChatRetention is how long chat messages are kept before the retention job
// deletes them.
const ChatRetention = 7 * 24 * time.Hour

// ChatMessage is an immutable chat entry in a project room.
// SenderName is captured at creation time so history reads do not depend on
// the user service being reachable.
type ChatMessage struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"messageId"`
	ProjectID  uuid.UUID `gorm:"type:uuid;not null;index:idx_messages_project_created,priority:1" json:"projectId"`
	SenderID   uuid.UUID `gorm:"type:uuid;not null;index" json:"senderId"`
	SenderName string    `gorm:"type:varchar(100)" json:"senderName"`
	Message    string    `gorm:"type:text;not null" json:"message"`
	CreatedAt  time.Time `gorm:"type:timestamptz;default:now();not null;index:idx_messages_project_created,priority:2" json:"createdAt"`
	ExpiresAt  time.Time `gorm:"type:timestamptz;not null;index" json:"expiresAt"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}

func (m *ChatMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
