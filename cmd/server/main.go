package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"collab-service/internal/client"
	"collab-service/internal/config"
	"collab-service/internal/database"
	"collab-service/internal/handler"
	"collab-service/internal/job"
	"collab-service/internal/middleware"
	"collab-service/internal/repository"
	"collab-service/internal/router"
	"collab-service/internal/service"
	"collab-service/internal/ws"
)

func main() {
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.Server.LogLevel, cfg.Server.Env)
	defer logger.Sync()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.New(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}

	redisClient := database.NewRedis(cfg)
	if redisClient == nil {
		logger.Warn("Redis unavailable, broadcasts limited to this instance")
	}

	projectRepo := repository.NewProjectRepository(db)
	presenceRepo := repository.NewPresenceRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	userClient := client.NewUserClient(cfg.Services.UserServiceURL, 5*time.Second)
	validator := middleware.NewAuthServiceValidator(cfg.Auth.ServiceURL, cfg.Auth.SecretKey, logger)

	projectService := service.NewProjectService(projectRepo, userClient, logger)
	presenceService := service.NewPresenceService(presenceRepo, projectRepo, logger)
	chatService := service.NewChatService(messageRepo, projectRepo, logger)

	hub := ws.NewHub(redisClient, logger)

	handlers := router.Handlers{
		Project:  handler.NewProjectHandler(projectService, chatService, logger),
		Presence: handler.NewPresenceHandler(presenceService, hub, logger),
		Message:  handler.NewMessageHandler(chatService, hub, logger),
		Health:   handler.NewHealthHandler(db, redisClient),
		WS:       ws.NewHandler(logger, validator, projectService, presenceService, chatService, hub),
	}

	retention := job.NewRetentionJob(messageRepo, logger)
	if err := retention.Start(); err != nil {
		logger.Fatal("Failed to start retention job", zap.Error(err))
	}

	r := router.New(handlers, validator, cfg.Server.CORSOrigins, logger)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		logger.Info("Starting collab service",
			zap.Int("port", cfg.Server.Port),
			zap.String("env", cfg.Server.Env))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	retention.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Forced shutdown", zap.Error(err))
	}

	if redisClient != nil {
		redisClient.Close()
	}

	logger.Info("Server stopped")
}

func initLogger(level, env string) *zap.Logger {
	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	switch level {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	case "info":
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zapcore.ErrorLevel)
	}

	logger, err := cfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}
