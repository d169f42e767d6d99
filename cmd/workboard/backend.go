package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/workboard/workboard-api/internal/api/handler"
	"github.com/workboard/workboard-api/internal/core/ports"
	"github.com/workboard/workboard-api/internal/infrastructure/config"
	"github.com/workboard/workboard-api/internal/infrastructure/db/memory"
	mongostore "github.com/workboard/workboard-api/internal/infrastructure/db/mongo"
	"github.com/workboard/workboard-api/internal/infrastructure/db/postgres"
	redisstore "github.com/workboard/workboard-api/internal/infrastructure/db/redis"
	"github.com/workboard/workboard-api/pkg/logger"
)

const closeTimeout = 10 * time.Second

// backend is the repository set of the configured store driver.
type backend struct {
	driver     string
	users      ports.UserRepository
	workspaces ports.WorkspaceRepository
	projects   ports.ProjectRepository
	tasks      ports.TaskRepository
	audit      ports.AuditRepository
	ping       func(ctx context.Context) error
	close      func()
}

// setup loads the configuration and initialises the process logger.
func setup(ctx context.Context) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "workboard",
		Env:     cfg.Env,
	})
	return cfg, log, nil
}

// openBackend connects the store selected by STORE_DRIVER. With migrate set,
// postgres migrations are applied before the store is returned.
func openBackend(ctx context.Context, cfg *config.Config, log zerolog.Logger, migrate bool) (*backend, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		log.Warn().Msg("using in-memory store, data is lost on restart")
		s := memory.NewStore()
		return &backend{
			driver:     config.DriverMemory,
			users:      s.Users(),
			workspaces: s.Workspaces(),
			projects:   s.Projects(),
			tasks:      s.Tasks(),
			audit:      s.Audit(),
			ping:       s.Ping,
			close:      func() {},
		}, nil

	case config.DriverMongo:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		s := mongostore.NewStore(client, db)
		if err := s.EnsureIndexes(ctx); err != nil {
			_ = s.Close(ctx)
			return nil, err
		}
		log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongodb")
		return &backend{
			driver:     config.DriverMongo,
			users:      s.Users(),
			workspaces: s.Workspaces(),
			projects:   s.Projects(),
			tasks:      s.Tasks(),
			audit:      s.Audit(),
			ping:       s.Ping,
			close: func() {
				closeCtx, cancel := context.WithTimeout(context.Background(), closeTimeout)
				defer cancel()
				if err := s.Close(closeCtx); err != nil {
					log.Error().Err(err).Msg("mongodb disconnect failed")
				}
			},
		}, nil

	case config.DriverPostgres:
		pool, err := postgres.Connect(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, err
		}
		if migrate {
			if err := postgres.NewMigrator(pool, log).Up(ctx); err != nil {
				pool.Close()
				return nil, err
			}
		}
		s := postgres.NewStore(pool)
		log.Info().Msg("connected to postgres")
		return &backend{
			driver:     config.DriverPostgres,
			users:      s.Users(),
			workspaces: s.Workspaces(),
			projects:   s.Projects(),
			tasks:      s.Tasks(),
			audit:      s.Audit(),
			ping:       s.Ping,
			close:      s.Close,
		}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

// openLimiter returns the Redis login throttle when REDIS_ADDR is set and
// reachable, the in-process one otherwise. The checker is nil without Redis.
func openLimiter(ctx context.Context, cfg *config.Config, log zerolog.Logger) (ports.LoginLimiter, *handler.Checker, func()) {
	fallback := memory.NewLoginLimiter(cfg.Auth.LoginMaxAttempts, cfg.Auth.LoginWindow)
	if cfg.Redis.Addr == "" {
		return fallback, nil, func() {}
	}

	client, err := redisstore.Connect(ctx, redisstore.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Timeout:  cfg.Redis.Timeout,
	})
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, login throttle kept in memory")
		return fallback, nil, func() {}
	}

	checker := &handler.Checker{
		Name: "redis",
		Ping: func(ctx context.Context) error { return client.Ping(ctx).Err() },
	}
	closeFn := func() {
		if err := client.Close(); err != nil {
			log.Error().Err(err).Msg("redis close failed")
		}
	}
	return redisstore.NewLoginLimiter(client, cfg.Auth.LoginMaxAttempts, cfg.Auth.LoginWindow), checker, closeFn
}
