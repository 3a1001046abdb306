package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"collab-service/internal/client"
	"collab-service/internal/handler"
	"collab-service/internal/repository"
	"collab-service/internal/router"
	"collab-service/internal/service"
	"collab-service/internal/ws"
)

// stubValidator maps bearer tokens to user IDs
type stubValidator struct {
	users map[string]uuid.UUID
}

func (v *stubValidator) ValidateToken(ctx context.Context, token string) (uuid.UUID, error) {
	if id, ok := v.users[token]; ok {
		return id, nil
	}
	return uuid.Nil, fmt.Errorf("invalid token")
}

// stubUserClient resolves lookups from a fixed directory
type stubUserClient struct {
	byQuery map[string]*client.UserInfo
}

func (c *stubUserClient) GetUserInfo(ctx context.Context, userID, token string) (*client.UserInfo, error) {
	return &client.UserInfo{UserID: userID, UserName: "user-" + userID[:8]}, nil
}

func (c *stubUserClient) LookupUser(ctx context.Context, emailOrUsername, token string) (*client.UserInfo, error) {
	if info, ok := c.byQuery[emailOrUsername]; ok {
		return info, nil
	}
	return nil, client.ErrUserNotFound
}

type testEnv struct {
	router    *gin.Engine
	db        *gorm.DB
	hub       *ws.Hub
	validator *stubValidator
	users     *stubUserClient
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)

	db.Exec(`CREATE TABLE projects (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		created_by TEXT NOT NULL,
		last_activity_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`)
	db.Exec(`CREATE TABLE project_members (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'collaborator',
		presence TEXT NOT NULL DEFAULT 'offline',
		user_name TEXT,
		avatar_url TEXT,
		joined_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		last_active_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(project_id, user_id)
	)`)
	db.Exec(`CREATE TABLE chat_messages (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		sender_id TEXT NOT NULL,
		sender_name TEXT,
		message TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		expires_at DATETIME NOT NULL
	)`)

	logger := zap.NewNop()
	validator := &stubValidator{users: map[string]uuid.UUID{}}
	users := &stubUserClient{byQuery: map[string]*client.UserInfo{}}

	projectRepo := repository.NewProjectRepository(db)
	presenceRepo := repository.NewPresenceRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	projectService := service.NewProjectService(projectRepo, users, logger)
	presenceService := service.NewPresenceService(presenceRepo, projectRepo, logger)
	chatService := service.NewChatService(messageRepo, projectRepo, logger)

	hub := ws.NewHub(nil, logger)

	handlers := router.Handlers{
		Project:  handler.NewProjectHandler(projectService, chatService, logger),
		Presence: handler.NewPresenceHandler(presenceService, hub, logger),
		Message:  handler.NewMessageHandler(chatService, hub, logger),
		Health:   handler.NewHealthHandler(db, nil),
		WS:       ws.NewHandler(logger, validator, projectService, presenceService, chatService, hub),
	}

	return &testEnv{
		router:    router.New(handlers, validator, "*", logger),
		db:        db,
		hub:       hub,
		validator: validator,
		users:     users,
	}
}

func (e *testEnv) addUser(token string) uuid.UUID {
	id := uuid.New()
	e.validator.users[token] = id
	return id
}

func (e *testEnv) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) createProject(t *testing.T, token, name string) uuid.UUID {
	t.Helper()

	w := e.request(t, http.MethodPost, "/api/projects", token, gin.H{"name": name})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Data struct {
			ProjectID uuid.UUID `json:"projectId"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Data.ProjectID
}

func TestHealthEndpoint(t *testing.T) {
	env := setupTestEnv(t)

	w := env.request(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}

func TestAPI_RequiresAuthentication(t *testing.T) {
	env := setupTestEnv(t)

	w := env.request(t, http.MethodGet, "/api/projects", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.request(t, http.MethodGet, "/api/projects", "bogus-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebSocket_RejectsMissingToken(t *testing.T) {
	env := setupTestEnv(t)

	w := env.request(t, http.MethodGet, "/api/ws", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateProject(t *testing.T) {
	env := setupTestEnv(t)
	userID := env.addUser("alice-token")

	w := env.request(t, http.MethodPost, "/api/projects", "alice-token", gin.H{
		"name":        "launch plan",
		"description": "Q4 launch",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Name    string `json:"name"`
			Members []struct {
				UserID   uuid.UUID `json:"userId"`
				Role     string    `json:"role"`
				Presence string    `json:"presence"`
			} `json:"members"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "launch plan", resp.Data.Name)
	require.Len(t, resp.Data.Members, 1)
	assert.Equal(t, userID, resp.Data.Members[0].UserID)
	assert.Equal(t, "head", resp.Data.Members[0].Role)
	assert.Equal(t, "offline", resp.Data.Members[0].Presence)
}

func TestCreateProject_MissingName(t *testing.T) {
	env := setupTestEnv(t)
	env.addUser("alice-token")

	w := env.request(t, http.MethodPost, "/api/projects", "alice-token", gin.H{"description": "no name"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
}

func TestGetProject_NonMemberGets404(t *testing.T) {
	env := setupTestEnv(t)
	env.addUser("alice-token")
	env.addUser("mallory-token")

	projectID := env.createProject(t, "alice-token", "secret")

	w := env.request(t, http.MethodGet, "/api/projects/"+projectID.String(), "mallory-token", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "NOT_FOUND")
}

func TestAddMember(t *testing.T) {
	env := setupTestEnv(t)
	env.addUser("alice-token")
	bobID := env.addUser("bob-token")
	env.users.byQuery["bob@example.com"] = &client.UserInfo{
		UserID: bobID.String(), UserName: "bob",
	}

	projectID := env.createProject(t, "alice-token", "p")

	w := env.request(t, http.MethodPost, "/api/projects/"+projectID.String()+"/members",
		"alice-token", gin.H{"emailOrUsername": "bob@example.com"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Bob can now see the project
	w = env.request(t, http.MethodGet, "/api/projects/"+projectID.String(), "bob-token", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Adding again conflicts
	w = env.request(t, http.MethodPost, "/api/projects/"+projectID.String()+"/members",
		"alice-token", gin.H{"emailOrUsername": "bob@example.com"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "ALREADY_EXISTS")
}

func TestAddMember_CollaboratorForbidden(t *testing.T) {
	env := setupTestEnv(t)
	env.addUser("alice-token")
	bobID := env.addUser("bob-token")
	carolID := env.addUser("carol-token")
	env.users.byQuery["bob@example.com"] = &client.UserInfo{UserID: bobID.String(), UserName: "bob"}
	env.users.byQuery["carol@example.com"] = &client.UserInfo{UserID: carolID.String(), UserName: "carol"}

	projectID := env.createProject(t, "alice-token", "p")
	w := env.request(t, http.MethodPost, "/api/projects/"+projectID.String()+"/members",
		"alice-token", gin.H{"emailOrUsername": "bob@example.com"})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.request(t, http.MethodPost, "/api/projects/"+projectID.String()+"/members",
		"bob-token", gin.H{"emailOrUsername": "carol@example.com"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "FORBIDDEN")
}

func TestAddMember_UnknownUser(t *testing.T) {
	env := setupTestEnv(t)
	env.addUser("alice-token")

	projectID := env.createProject(t, "alice-token", "p")

	w := env.request(t, http.MethodPost, "/api/projects/"+projectID.String()+"/members",
		"alice-token", gin.H{"emailOrUsername": "nobody@example.com"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPresence_UpdateAndRead(t *testing.T) {
	env := setupTestEnv(t)
	userID := env.addUser("alice-token")
	projectID := env.createProject(t, "alice-token", "p")

	w := env.request(t, http.MethodPost, "/api/projects/"+projectID.String()+"/presence",
		"alice-token", gin.H{"status": "editing"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.request(t, http.MethodGet, "/api/projects/"+projectID.String()+"/presence",
		"alice-token", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []struct {
			UserID   uuid.UUID `json:"userId"`
			Presence string    `json:"presence"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, userID, resp.Data[0].UserID)
	assert.Equal(t, "editing", resp.Data[0].Presence)
}

func TestPresence_InvalidStatusRejected(t *testing.T) {
	env := setupTestEnv(t)
	env.addUser("alice-token")
	projectID := env.createProject(t, "alice-token", "p")

	w := env.request(t, http.MethodPost, "/api/projects/"+projectID.String()+"/presence",
		"alice-token", gin.H{"status": "typing"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
}

func TestPresence_OmittedStatusDefaultsToViewing(t *testing.T) {
	env := setupTestEnv(t)
	env.addUser("alice-token")
	projectID := env.createProject(t, "alice-token", "p")

	w := env.request(t, http.MethodPost, "/api/projects/"+projectID.String()+"/presence",
		"alice-token", gin.H{})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "viewing")
}

func TestPresence_NonMemberGets404(t *testing.T) {
	env := setupTestEnv(t)
	env.addUser("alice-token")
	env.addUser("mallory-token")
	projectID := env.createProject(t, "alice-token", "p")

	w := env.request(t, http.MethodPost, "/api/projects/"+projectID.String()+"/presence",
		"mallory-token", gin.H{"status": "viewing"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestChat_PostAndHistory(t *testing.T) {
	env := setupTestEnv(t)
	env.addUser("alice-token")
	projectID := env.createProject(t, "alice-token", "p")

	for _, text := range []string{"first", "second", "third"} {
		w := env.request(t, http.MethodPost, "/api/projects/"+projectID.String()+"/chat",
			"alice-token", gin.H{"message": text})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := env.request(t, http.MethodGet, "/api/projects/"+projectID.String()+"/chat",
		"alice-token", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []struct {
			Message    string `json:"message"`
			SenderName string `json:"senderName"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 3)
	assert.Equal(t, "first", resp.Data[0].Message)
	assert.Equal(t, "third", resp.Data[2].Message)
	assert.NotEmpty(t, resp.Data[0].SenderName)
}

func TestChat_EmptyMessageRejected(t *testing.T) {
	env := setupTestEnv(t)
	env.addUser("alice-token")
	projectID := env.createProject(t, "alice-token", "p")

	w := env.request(t, http.MethodPost, "/api/projects/"+projectID.String()+"/chat",
		"alice-token", gin.H{"message": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChat_NonMemberGets404(t *testing.T) {
	env := setupTestEnv(t)
	env.addUser("alice-token")
	env.addUser("mallory-token")
	projectID := env.createProject(t, "alice-token", "p")

	w := env.request(t, http.MethodGet, "/api/projects/"+projectID.String()+"/chat",
		"mallory-token", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.request(t, http.MethodPost, "/api/projects/"+projectID.String()+"/chat",
		"mallory-token", gin.H{"message": "hi"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetProject_IncludesRecentMessages(t *testing.T) {
	env := setupTestEnv(t)
	env.addUser("alice-token")
	projectID := env.createProject(t, "alice-token", "p")

	w := env.request(t, http.MethodPost, "/api/projects/"+projectID.String()+"/chat",
		"alice-token", gin.H{"message": "hello"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.request(t, http.MethodGet, "/api/projects/"+projectID.String(), "alice-token", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			RecentMessages []struct {
				Message string `json:"message"`
			} `json:"recentMessages"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data.RecentMessages, 1)
	assert.Equal(t, "hello", resp.Data.RecentMessages[0].Message)
}

func TestListProjects_OnlyMine(t *testing.T) {
	env := setupTestEnv(t)
	env.addUser("alice-token")
	env.addUser("bob-token")

	env.createProject(t, "alice-token", "mine")
	env.createProject(t, "bob-token", "theirs")

	w := env.request(t, http.MethodGet, "/api/projects", "alice-token", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []struct {
			Name string `json:"name"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "mine", resp.Data[0].Name)
}
