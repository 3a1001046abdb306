package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"collab-service/internal/handler"
	"collab-service/internal/middleware"
	"collab-service/internal/ws"
)

// Handlers bundles everything the router mounts
type Handlers struct {
	Project  *handler.ProjectHandler
	Presence *handler.PresenceHandler
	Message  *handler.MessageHandler
	Health   *handler.HealthHandler
	WS       *ws.Handler
}

// New builds the HTTP router: probes and metrics are unauthenticated, the
// /api surface sits behind the auth middleware, and the WebSocket endpoint
// carries its own handshake-time auth.
func New(h Handlers, validator middleware.TokenValidator, corsOrigins string, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(corsOrigins))
	r.Use(middleware.MetricsMiddleware())

	r.GET("/health", h.Health.Health)
	r.GET("/ready", h.Health.Ready)
	r.GET("/metrics", middleware.MetricsHandler())

	// Token arrives as a query parameter on the upgrade request, so the
	// header-based middleware does not apply here.
	r.GET("/api/ws", h.WS.HandleWebSocket)

	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware(validator))
	{
		projects := api.Group("/projects")
		{
			projects.POST("", h.Project.CreateProject)
			projects.GET("", h.Project.ListProjects)
			projects.GET("/:projectId", h.Project.GetProject)
			projects.POST("/:projectId/members", h.Project.AddMember)

			projects.GET("/:projectId/presence", h.Presence.GetPresence)
			projects.POST("/:projectId/presence", h.Presence.UpdatePresence)

			projects.GET("/:projectId/chat", h.Message.GetMessages)
			projects.POST("/:projectId/chat", h.Message.PostMessage)
		}
	}

	return r
}
