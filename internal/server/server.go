// Package server holds the process-wide dependencies (config, logger,
// database, Redis, rate-limit store, jobs) and the HTTP server lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/deppfellow/storefront-api/internal/config"
	"github.com/deppfellow/storefront-api/internal/database"
	"github.com/deppfellow/storefront-api/internal/lib/email"
	"github.com/deppfellow/storefront-api/internal/lib/job"
	"github.com/deppfellow/storefront-api/internal/ratelimit"
	"github.com/newrelic/go-agent/v3/integrations/nrredis-v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	loggerPkg "github.com/deppfellow/storefront-api/internal/logger"
)

const redisPingTimeout = 5 * time.Second

type Server struct {
	Config        *config.Config
	Logger        *zerolog.Logger
	LoggerService *loggerPkg.LoggerService
	DB            *database.Database

	// Redis is nil when no address is configured (memory rate-limit store).
	Redis *redis.Client

	RateLimitStore ratelimit.Store

	// Job is nil without Redis; welcome emails are then skipped.
	Job *job.JobService

	httpServer     *http.Server
	stopBackground context.CancelFunc
}

// New connects every backing service. Postgres and, for the redis
// rate-limit store, Redis must be reachable or startup fails.
func New(cfg *config.Config, logger *zerolog.Logger, loggerService *loggerPkg.LoggerService) (*Server, error) {
	db, err := database.New(cfg, logger, loggerService)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), time.Minute)
	defer cancelMigrate()
	if err := database.Migrate(migrateCtx, logger, cfg); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	bgCtx, stopBackground := context.WithCancel(context.Background())

	s := &Server{
		Config:         cfg,
		Logger:         logger,
		LoggerService:  loggerService,
		DB:             db,
		stopBackground: stopBackground,
	}

	if cfg.Redis.Address != "" {
		s.Redis = newRedisClient(cfg, loggerService)

		ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
		defer cancel()
		if err := s.Redis.Ping(ctx).Err(); err != nil {
			if cfg.RateLimit.Store == config.RateLimitStoreRedis {
				s.closeBackends()
				return nil, fmt.Errorf("failed to connect to redis: %w", err)
			}
			logger.Error().Err(err).Msg("failed to connect to redis, continuing without it")
		}
	}

	switch cfg.RateLimit.Store {
	case config.RateLimitStoreRedis:
		s.RateLimitStore = ratelimit.NewRedisStore(s.Redis)
	default:
		s.RateLimitStore = ratelimit.NewMemoryStore(bgCtx)
	}

	if s.Redis != nil {
		emailClient := email.NewClient(cfg, logger)
		s.Job = job.NewJobService(logger, cfg, emailClient)
		if err := s.Job.Start(); err != nil {
			s.closeBackends()
			return nil, err
		}
	} else {
		logger.Warn().Msg("redis not configured, background jobs disabled")
	}

	return s, nil
}

func newRedisClient(cfg *config.Config, loggerService *loggerPkg.LoggerService) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	if loggerService.GetApplication() != nil {
		client.AddHook(nrredis.NewHook(client.Options()))
	}

	return client
}

func (s *Server) SetupHTTPServer(handler http.Handler) {
	s.httpServer = &http.Server{
		Addr:         ":" + s.Config.Server.Port,
		Handler:      handler,
		ReadTimeout:  time.Duration(s.Config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.Config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.Config.Server.IdleTimeout) * time.Second,
	}
}

// Start blocks serving HTTP. It returns http.ErrServerClosed after Shutdown.
func (s *Server) Start() error {
	if s.httpServer == nil {
		return errors.New("HTTP server not initialized")
	}

	s.Logger.Info().
		Str("port", s.Config.Server.Port).
		Str("env", s.Config.Primary.Env).
		Msg("starting server")

	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests, then closes jobs, Redis and the pool.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown HTTP server: %w", err))
		}
	}

	if err := s.closeBackends(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (s *Server) closeBackends() error {
	var errs []error

	if s.Job != nil {
		s.Job.Stop()
	}

	if s.stopBackground != nil {
		s.stopBackground()
	}

	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis client: %w", err))
		}
	}

	if s.DB != nil {
		if err := s.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database connection: %w", err))
		}
	}

	return errors.Join(errs...)
}
