package job

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"collab-service/internal/repository"
)

// RetentionJob deletes chat messages past their retention window. Expiry is
// enforced at read time by the window being fixed; this job reclaims storage.
type RetentionJob struct {
	messageRepo repository.MessageRepository
	logger      *zap.Logger
	cron        *cron.Cron
}

func NewRetentionJob(messageRepo repository.MessageRepository, logger *zap.Logger) *RetentionJob {
	return &RetentionJob{
		messageRepo: messageRepo,
		logger:      logger,
		cron:        cron.New(),
	}
}

// Start schedules the hourly sweep and runs one immediately to catch up after
// downtime.
func (j *RetentionJob) Start() error {
	if _, err := j.cron.AddFunc("@hourly", j.run); err != nil {
		return err
	}
	j.cron.Start()
	j.logger.Info("Chat retention job started", zap.String("schedule", "@hourly"))

	go j.run()
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (j *RetentionJob) Stop() {
	ctx := j.cron.Stop()
	<-ctx.Done()
	j.logger.Info("Chat retention job stopped")
}

func (j *RetentionJob) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	deleted, err := j.messageRepo.DeleteExpired(ctx, time.Now())
	if err != nil {
		j.logger.Error("Chat retention sweep failed", zap.Error(err))
		return
	}

	if deleted > 0 {
		j.logger.Info("Chat retention sweep completed", zap.Int64("deleted", deleted))
	}
}
