package config

import (
	"context"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" || cfg.StoreDriver != DriverMongo {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Auth.TokenTTL != 30*time.Minute || cfg.Auth.JWTIssuer != "workboard" {
		t.Fatalf("unexpected auth defaults: %+v", cfg.Auth)
	}
	if cfg.RequestTimeout != 10*time.Second {
		t.Fatalf("unexpected request timeout: %v", cfg.RequestTimeout)
	}
	if cfg.Redis.Timeout != 2*time.Second {
		t.Fatalf("unexpected redis timeout: %v", cfg.Redis.Timeout)
	}
	if cfg.SeedAdmin() {
		t.Fatalf("expected no admin seed without credentials")
	}
}

func TestLoad_RequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	if _, err := Load(context.Background()); err == nil {
		t.Fatalf("expected error without JWT_SECRET")
	}
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORE_DRIVER", "sqlite")

	if _, err := Load(context.Background()); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("TOKEN_TTL", "5m")
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("ADMIN_EMAIL", "root@example.com")
	t.Setenv("ADMIN_PASSWORD", "changeme")

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Auth.TokenTTL != 5*time.Minute || cfg.StoreDriver != DriverPostgres {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if !cfg.SeedAdmin() || cfg.Admin.Name != "Administrator" {
		t.Fatalf("unexpected admin config: %+v", cfg.Admin)
	}
}
