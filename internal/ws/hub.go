package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"collab-service/internal/domain"
	"collab-service/internal/middleware"
)

// Hub is the session registry and room broadcaster. It owns the mapping of
// live connections to joined project rooms; nothing here survives a restart.
//
// Broadcasts go through Redis pub/sub so every instance fans out to its own
// local room. Without Redis the hub degrades to direct local delivery.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[uuid.UUID]map[*Client]bool
	subs   map[uuid.UUID]*redis.PubSub
	redis  *redis.Client
	logger *zap.Logger
}

func NewHub(redisClient *redis.Client, logger *zap.Logger) *Hub {
	return &Hub{
		rooms:  make(map[uuid.UUID]map[*Client]bool),
		subs:   make(map[uuid.UUID]*redis.PubSub),
		redis:  redisClient,
		logger: logger,
	}
}

func roomChannel(projectID uuid.UUID) string {
	return fmt.Sprintf("project:%s", projectID)
}

// JoinRoom admits a client to a project room. The first client in a room
// starts the room's Redis subscription.
func (h *Hub) JoinRoom(client *Client, projectID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[projectID] == nil {
		h.rooms[projectID] = make(map[*Client]bool)
		h.subscribeRoom(projectID)
	}
	h.rooms[projectID][client] = true
	client.joined[projectID] = true

	h.logger.Info("Client joined room",
		zap.String("project_id", projectID.String()),
		zap.String("user_id", client.userID.String()))
}

// LeaveRoom removes a client from a room unconditionally.
func (h *Hub) LeaveRoom(client *Client, projectID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(client.joined, projectID)
	h.dropFromRoom(client, projectID)
}

// RemoveClient unregisters a disconnected client from every joined room and
// reports the projects whose presence should be downgraded: those where no
// other connection of the same user remains.
func (h *Hub) RemoveClient(client *Client) []uuid.UUID {
	h.mu.Lock()
	defer h.mu.Unlock()

	var downgrade []uuid.UUID
	for projectID := range client.joined {
		h.dropFromRoom(client, projectID)
		if !h.userInRoomLocked(projectID, client.userID) {
			downgrade = append(downgrade, projectID)
		}
	}
	client.joined = make(map[uuid.UUID]bool)
	if !client.closed {
		client.closed = true
		close(client.send)
	}

	h.logger.Info("Client unregistered",
		zap.String("user_id", client.userID.String()),
		zap.Int("rooms_downgraded", len(downgrade)))

	return downgrade
}

// HasJoined reports whether the connection has joined the project's room.
func (h *Hub) HasJoined(client *Client, projectID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return client.joined[projectID]
}

// RoomSize returns the number of live connections in a room.
func (h *Hub) RoomSize(projectID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[projectID])
}

// BroadcastPresence emits the full member list to every connection in the
// room, including the one that triggered the change.
func (h *Hub) BroadcastPresence(projectID uuid.UUID, members []domain.ProjectMember) {
	payload, err := json.Marshal(Outbound{
		Type:      EventPresenceUpdate,
		ProjectID: projectID.String(),
		Members:   members,
	})
	if err != nil {
		h.logger.Error("Failed to marshal presence broadcast", zap.Error(err))
		return
	}
	middleware.RecordBroadcast(EventPresenceUpdate)
	h.publish(projectID, payload)
}

// BroadcastChatMessage emits the persisted message verbatim to the room.
func (h *Hub) BroadcastChatMessage(projectID uuid.UUID, message *domain.ChatMessage) {
	payload, err := json.Marshal(Outbound{
		Type:      EventChatMessage,
		ProjectID: projectID.String(),
		Message:   message,
	})
	if err != nil {
		h.logger.Error("Failed to marshal chat broadcast", zap.Error(err))
		return
	}
	middleware.RecordBroadcast(EventChatMessage)
	h.publish(projectID, payload)
}

func (h *Hub) publish(projectID uuid.UUID, payload []byte) {
	if h.redis != nil {
		if err := h.redis.Publish(context.Background(), roomChannel(projectID), payload).Err(); err == nil {
			return
		} else {
			h.logger.Warn("Redis publish failed, delivering locally",
				zap.String("project_id", projectID.String()),
				zap.Error(err))
		}
	}
	h.deliverLocal(projectID, payload)
}

// deliverLocal fans a payload out to the local room. Slow consumers are
// dropped; they are expected to reconnect and resync. Sends happen under the
// read lock so they cannot interleave with RemoveClient closing the channel.
func (h *Hub) deliverLocal(projectID uuid.UUID, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[projectID] {
		select {
		case client.send <- payload:
		default:
			h.logger.Warn("Dropping slow client",
				zap.String("project_id", projectID.String()),
				zap.String("user_id", client.userID.String()))
			client.conn.Close()
		}
	}
}

// subscribeRoom starts the room's Redis subscription. Caller holds h.mu.
func (h *Hub) subscribeRoom(projectID uuid.UUID) {
	if h.redis == nil {
		return
	}

	pubsub := h.redis.Subscribe(context.Background(), roomChannel(projectID))
	h.subs[projectID] = pubsub

	go func() {
		defer func() {
			if r := recover(); r != nil {
				h.logger.Error("Recovered from panic in room subscriber",
					zap.Any("panic", r),
					zap.String("project_id", projectID.String()))
			}
		}()

		for msg := range pubsub.Channel() {
			h.deliverLocal(projectID, []byte(msg.Payload))
		}
	}()
}

// dropFromRoom removes the client from a room and tears the room down when it
// empties. Caller holds h.mu.
func (h *Hub) dropFromRoom(client *Client, projectID uuid.UUID) {
	clients, ok := h.rooms[projectID]
	if !ok {
		return
	}
	delete(clients, client)
	if len(clients) == 0 {
		delete(h.rooms, projectID)
		if pubsub, ok := h.subs[projectID]; ok {
			pubsub.Close()
			delete(h.subs, projectID)
		}
	}
}

// userInRoomLocked reports whether another connection of the user remains in
// the room. Caller holds h.mu.
func (h *Hub) userInRoomLocked(projectID uuid.UUID, userID uuid.UUID) bool {
	for other := range h.rooms[projectID] {
		if other.userID == userID {
			return true
		}
	}
	return false
}
