package ws

import "collab-service/internal/domain"

// Event types on the persistent-connection protocol
const (
	EventJoinProject    = "joinProject"
	EventLeaveProject   = "leaveProject"
	EventPresenceUpdate = "presence:update"
	EventChatMessage    = "chat:message"
)

// Inbound is the client-to-server event envelope
type Inbound struct {
	Type      string `json:"type"`
	ProjectID string `json:"projectId,omitempty"`
	Status    string `json:"status,omitempty"`
	Message   string `json:"message,omitempty"`
}

// Outbound is the server-to-client event envelope. Members carries the full
// member list on presence updates; Message carries the persisted message on
// chat events.
type Outbound struct {
	Type      string                 `json:"type"`
	ProjectID string                 `json:"projectId"`
	Members   []domain.ProjectMember `json:"members,omitempty"`
	Message   *domain.ChatMessage    `json:"message,omitempty"`
}
