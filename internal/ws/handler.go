package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"collab-service/internal/domain"
	"collab-service/internal/middleware"
	"collab-service/internal/service"
)

const opTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin:     func(r *http.Request) bool { return true },
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Handler upgrades authenticated connections and dispatches room events
type Handler struct {
	logger          *zap.Logger
	validator       middleware.TokenValidator
	projectService  service.ProjectService
	presenceService service.PresenceService
	chatService     service.ChatService
	hub             *Hub
}

func NewHandler(
	logger *zap.Logger,
	validator middleware.TokenValidator,
	projectService service.ProjectService,
	presenceService service.PresenceService,
	chatService service.ChatService,
	hub *Hub,
) *Handler {
	return &Handler{
		logger:          logger,
		validator:       validator,
		projectService:  projectService,
		presenceService: presenceService,
		chatService:     chatService,
		hub:             hub,
	}
}

// HandleWebSocket validates the handshake credential and admits the
// connection. Invalid or missing credentials are refused before the upgrade;
// no registration happens in that case.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		if authHeader := c.GetHeader("Authorization"); strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
			token = authHeader[len("Bearer "):]
		}
	}
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token required"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), opTimeout)
	defer cancel()

	userID, err := h.validator.ValidateToken(ctx, token)
	if err != nil {
		h.logger.Warn("Rejected connection with invalid token", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade connection", zap.Error(err))
		return
	}

	client := newClient(conn, userID)
	middleware.RecordWebSocketConnection()

	h.logger.Info("Client connected", zap.String("user_id", userID.String()))

	go client.writePump()
	h.readPump(client)
}

// readPump processes this connection's events in receipt order. The deferred
// cleanup runs after the loop exits, so the disconnect-triggered offline
// writes always follow any in-flight update from this connection.
func (h *Handler) readPump(client *Client) {
	defer func() {
		client.conn.Close()
		h.disconnect(client)
	}()

	client.conn.SetReadLimit(maxMessageSize)
	client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Error("WebSocket error", zap.Error(err))
			}
			break
		}

		var event Inbound
		if err := json.Unmarshal(raw, &event); err != nil {
			h.logger.Warn("Failed to parse event", zap.Error(err))
			continue
		}

		if err := h.handleEvent(client, &event); err != nil {
			h.logger.Error("Failed to handle event",
				zap.String("type", event.Type),
				zap.Error(err))
		}
	}
}

func (h *Handler) handleEvent(client *Client, event *Inbound) error {
	projectID, err := uuid.Parse(event.ProjectID)
	if err != nil {
		h.logger.Warn("Event with invalid project id", zap.String("type", event.Type))
		return nil
	}

	switch event.Type {
	case EventJoinProject:
		return h.handleJoin(client, projectID)
	case EventLeaveProject:
		return h.handleLeave(client, projectID)
	case EventPresenceUpdate:
		return h.handlePresence(client, projectID, event.Status)
	case EventChatMessage:
		return h.handleChat(client, projectID, event.Message)
	default:
		h.logger.Warn("Unknown event type", zap.String("type", event.Type))
	}
	return nil
}

// handleJoin admits a member into the room and marks them viewing. A join by
// a non-member is a silent no-op.
func (h *Handler) handleJoin(client *Client, projectID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	isMember, err := h.projectService.IsMember(ctx, projectID, client.userID)
	if err != nil {
		return err
	}
	if !isMember {
		h.logger.Debug("Ignoring join from non-member",
			zap.String("project_id", projectID.String()),
			zap.String("user_id", client.userID.String()))
		return nil
	}

	h.hub.JoinRoom(client, projectID)

	members, err := h.presenceService.SetPresence(ctx, projectID, client.userID, domain.PresenceViewing)
	if err != nil {
		return err
	}
	h.hub.BroadcastPresence(projectID, members)
	return nil
}

func (h *Handler) handleLeave(client *Client, projectID uuid.UUID) error {
	h.hub.LeaveRoom(client, projectID)

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	members, err := h.presenceService.SetPresence(ctx, projectID, client.userID, domain.PresenceOffline)
	if err != nil {
		// Leaving a project the user is no longer a member of is not an error
		h.logger.Debug("Presence downgrade on leave skipped", zap.Error(err))
		return nil
	}
	h.hub.BroadcastPresence(projectID, members)
	return nil
}

// handlePresence applies an explicit status change. Invalid values are
// coerced to viewing on this path; non-members are silently ignored.
func (h *Handler) handlePresence(client *Client, projectID uuid.UUID, status string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	members, err := h.presenceService.SetPresence(ctx, projectID, client.userID, service.CoerceStatus(status))
	if err != nil {
		h.logger.Debug("Presence update skipped", zap.Error(err))
		return nil
	}
	h.hub.BroadcastPresence(projectID, members)
	return nil
}

// handleChat persists the message and fans it out to the room. The sender is
// in the room, so the broadcast doubles as the delivery acknowledgement.
func (h *Handler) handleChat(client *Client, projectID uuid.UUID, text string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	message, err := h.chatService.PostMessage(ctx, projectID, client.userID, text)
	if err != nil {
		h.logger.Debug("Chat message rejected", zap.Error(err))
		return nil
	}

	h.hub.BroadcastChatMessage(projectID, message)
	return nil
}

// disconnect downgrades presence to offline for every project this
// connection had joined, once per project, unless another connection of the
// same user is still in the room.
func (h *Handler) disconnect(client *Client) {
	middleware.RecordWebSocketDisconnection()

	downgrade := h.hub.RemoveClient(client)
	for _, projectID := range downgrade {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		members, err := h.presenceService.SetPresence(ctx, projectID, client.userID, domain.PresenceOffline)
		cancel()
		if err != nil {
			h.logger.Warn("Failed to downgrade presence on disconnect",
				zap.String("project_id", projectID.String()),
				zap.String("user_id", client.userID.String()),
				zap.Error(err))
			continue
		}
		h.hub.BroadcastPresence(projectID, members)
	}

	h.logger.Info("Client disconnected", zap.String("user_id", client.userID.String()))
}
