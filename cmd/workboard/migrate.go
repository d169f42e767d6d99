package main

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/workboard/workboard-api/internal/infrastructure/config"
	"github.com/workboard/workboard-api/internal/infrastructure/db/postgres"
)

func migrateCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the postgres schema",
		Long: `Manage the postgres schema.

Migrations are embedded in the binary. They only apply to the postgres store
driver; the mongo driver creates its indexes on start.`,
	}
	cmd.PersistentFlags().DurationVar(&timeout, "timeout", time.Minute, "Command timeout")

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd.Context(), timeout, func(ctx context.Context, m *postgres.Migrator) error {
				return m.Up(ctx)
			})
		},
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd.Context(), timeout, func(ctx context.Context, m *postgres.Migrator) error {
				return m.Status(ctx)
			})
		},
	}

	var target int64
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the latest migration, or down to --target",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd.Context(), timeout, func(ctx context.Context, m *postgres.Migrator) error {
				return m.Down(ctx, target)
			})
		},
	}
	down.Flags().Int64Var(&target, "target", 0, "Target version (optional)")

	cmd.AddCommand(up, status, down)
	return cmd
}

func withMigrator(ctx context.Context, timeout time.Duration, fn func(context.Context, *postgres.Migrator) error) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cfg, log, err := setup(ctx)
	if err != nil {
		return err
	}
	if cfg.StoreDriver != config.DriverPostgres {
		return errors.New("migrate requires STORE_DRIVER=postgres")
	}

	pool, err := postgres.Connect(ctx, cfg.Postgres.DSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	return fn(ctx, postgres.NewMigrator(pool, log))
}
