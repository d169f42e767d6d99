package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/workboard/workboard-api/internal/core/service"
	"github.com/workboard/workboard-api/internal/infrastructure/security"
)

func seedAdminCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-admin",
		Short: "Create the bootstrap admin account if it does not exist",
		Long: `Create the bootstrap admin account from ADMIN_NAME, ADMIN_EMAIL and
ADMIN_PASSWORD. Running it again is a no-op.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, log, err := setup(ctx)
			if err != nil {
				return err
			}
			if !cfg.SeedAdmin() {
				return errors.New("ADMIN_EMAIL and ADMIN_PASSWORD are required")
			}

			be, err := openBackend(ctx, cfg, log, true)
			if err != nil {
				return err
			}
			defer be.close()

			tokens := security.NewJWTCodec(security.JWTConfig{
				Secret: cfg.Auth.JWTSecret,
				Issuer: cfg.Auth.JWTIssuer,
				TTL:    cfg.Auth.TokenTTL,
			})
			auth := service.NewAuthService(be.users, security.NewBcryptHasher(cfg.Auth.BcryptCost), tokens, nil, nil, log)
			return seedAdmin(ctx, auth, cfg, log)
		},
	}
}
