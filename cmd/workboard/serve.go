package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/workboard/workboard-api/internal/api"
	"github.com/workboard/workboard-api/internal/api/handler"
	"github.com/workboard/workboard-api/internal/api/metrics"
	"github.com/workboard/workboard-api/internal/core/policy"
	"github.com/workboard/workboard-api/internal/core/ports"
	"github.com/workboard/workboard-api/internal/core/service"
	"github.com/workboard/workboard-api/internal/infrastructure/config"
	"github.com/workboard/workboard-api/internal/infrastructure/queue"
	"github.com/workboard/workboard-api/internal/infrastructure/security"
)

const shutdownTimeout = 15 * time.Second

func serveCmd() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API.

The store driver, token settings and bootstrap admin are read from the
environment. When ADMIN_EMAIL and ADMIN_PASSWORD are set the admin account
is created on start unless it already exists.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), migrate)
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", true, "Apply pending postgres migrations before serving")

	return cmd
}

func runServe(ctx context.Context, migrate bool) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, log, err := setup(ctx)
	if err != nil {
		return err
	}

	be, err := openBackend(ctx, cfg, log, migrate)
	if err != nil {
		return err
	}
	defer be.close()

	limiter, redisCheck, closeLimiter := openLimiter(ctx, cfg, log)
	defer closeLimiter()

	dispatcher := queue.NewDispatcher(cfg.Audit.Workers, cfg.Audit.Buffer, be.audit, metrics.AuditEventsDroppedTotal, log)
	dispatcher.Start()

	tokens := security.NewJWTCodec(security.JWTConfig{
		Secret: cfg.Auth.JWTSecret,
		Issuer: cfg.Auth.JWTIssuer,
		TTL:    cfg.Auth.TokenTTL,
	})
	authSvc := service.NewAuthService(be.users, security.NewBcryptHasher(cfg.Auth.BcryptCost), tokens, limiter, dispatcher, log)

	if cfg.SeedAdmin() {
		if err := seedAdmin(ctx, authSvc, cfg, log); err != nil {
			_ = dispatcher.Close(ctx)
			return err
		}
	}

	checkers := []handler.Checker{{Name: be.driver, Ping: be.ping}}
	if redisCheck != nil {
		checkers = append(checkers, *redisCheck)
	}

	router := api.NewRouter(api.Deps{
		Tokens:         tokens,
		Resolver:       service.NewPrincipalResolver(be.users),
		Services:       newServices(be, authSvc, dispatcher, log),
		Audit:          dispatcher,
		Checkers:       checkers,
		RequestTimeout: cfg.RequestTimeout,
		Log:            log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Str("store", be.driver).Msg("api server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		if err != nil {
			log.Error().Err(err).Msg("graceful shutdown failed")
		}
		// Requests are done; flush what they published.
		if derr := dispatcher.Close(shutdownCtx); derr != nil {
			log.Error().Err(derr).Msg("audit dispatcher did not drain")
		}
		log.Info().Msg("api server stopped")
		return err
	})

	return g.Wait()
}

func newServices(be *backend, auth ports.AuthService, audit ports.AuditSink, log zerolog.Logger) api.Services {
	engine := policy.NewEngine(policy.DefaultTable, audit, log)
	return api.Services{
		Auth:       auth,
		Users:      service.NewUserService(be.users, audit, log),
		Workspaces: service.NewWorkspaceService(be.workspaces, engine, audit, log),
		Members:    service.NewMemberService(be.workspaces, be.users, engine, audit, log),
		Projects:   service.NewProjectService(be.projects, be.workspaces, engine, log),
		Tasks:      service.NewTaskService(be.tasks, be.projects, be.workspaces, engine, audit, log),
	}
}

func seedAdmin(ctx context.Context, auth ports.AuthService, cfg *config.Config, log zerolog.Logger) error {
	created, err := auth.EnsureAdmin(ctx, ports.AdminSeed{
		Name:     cfg.Admin.Name,
		Email:    cfg.Admin.Email,
		Password: cfg.Admin.Password,
	})
	if err != nil {
		return err
	}
	if created {
		log.Info().Str("email", cfg.Admin.Email).Msg("bootstrap admin created")
	} else {
		log.Info().Str("email", cfg.Admin.Email).Msg("bootstrap admin already present")
	}
	return nil
}
