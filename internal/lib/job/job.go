// Package job runs background tasks on asynq (Redis-backed queues).
package job

import (
	"context"
	"errors"
	"fmt"

	"github.com/deppfellow/storefront-api/internal/config"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// WelcomeSender delivers the welcome email.
type WelcomeSender interface {
	SendWelcomeEmail(ctx context.Context, to, firstName string) error
}

type JobService struct {
	Client *asynq.Client
	server *asynq.Server
	logger *zerolog.Logger
	emails WelcomeSender
}

func redisOpt(cfg *config.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
}

func NewJobService(logger *zerolog.Logger, cfg *config.Config, emails WelcomeSender) *JobService {
	server := asynq.NewServer(
		redisOpt(cfg),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			Logger:   newAsynqLogger(logger),
			LogLevel: asynq.WarnLevel,
		},
	)

	return &JobService{
		Client: asynq.NewClient(redisOpt(cfg)),
		server: server,
		logger: logger,
		emails: emails,
	}
}

// Mux routes task types to their handlers.
func (j *JobService) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskWelcome, j.handleWelcomeEmailTask)
	return mux
}

// Start launches the workers in the background and returns.
func (j *JobService) Start() error {
	j.logger.Info().Msg("starting background job server")

	if err := j.server.Start(j.Mux()); err != nil {
		return fmt.Errorf("starting job server: %w", err)
	}
	return nil
}

// EnqueueWelcomeEmail schedules the welcome email for a new account. A
// task already queued for the same user is not an error.
func (j *JobService) EnqueueWelcomeEmail(ctx context.Context, userID, to, firstName string) error {
	task, err := NewWelcomeEmailTask(WelcomeEmailPayload{UserID: userID, To: to, FirstName: firstName})
	if err != nil {
		return err
	}

	info, err := j.Client.EnqueueContext(ctx, task)
	if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
		j.logger.Debug().Str("user_id", userID).Str("type", TaskWelcome).Msg("task already enqueued")
		return nil
	}
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", TaskWelcome, err)
	}

	j.logger.Debug().Str("task_id", info.ID).Str("type", TaskWelcome).Msg("task enqueued")
	return nil
}

func (j *JobService) Stop() {
	j.logger.Info().Msg("stopping background job server")
	j.server.Shutdown()
	if err := j.Client.Close(); err != nil {
		j.logger.Error().Err(err).Msg("failed to close job client")
	}
}
