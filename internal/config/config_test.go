package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "postgres://clinic@localhost/clinic")
	t.Setenv("APP_ENV", "")
	t.Setenv("HTTP_PORT", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("PUBLIC_HORIZON_DAYS", "")
	t.Setenv("MANUAL_HORIZON_DAYS", "")
	t.Setenv("CLINIC_TIMEZONE", "")
	t.Setenv("SLOT_GRANULARITY", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Env != "dev" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default port, got %s", cfg.HTTPPort)
	}
	if cfg.RedisAddr != "127.0.0.1:6379" {
		t.Fatalf("expected default redis addr, got %s", cfg.RedisAddr)
	}
	if cfg.PublicHorizonDays != 15 || cfg.ManualHorizonDays != 7 {
		t.Fatalf("unexpected horizons public=%d manual=%d", cfg.PublicHorizonDays, cfg.ManualHorizonDays)
	}
	if cfg.LockTTL != 5*time.Second {
		t.Fatalf("expected default lock ttl, got %s", cfg.LockTTL)
	}
	if cfg.Location().String() != "America/Sao_Paulo" {
		t.Fatalf("expected clinic timezone, got %s", cfg.Location())
	}
}

func TestLoadRequiresDSN(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error without POSTGRES_DSN")
	}
}

func TestLoadRequiresSecretOutsideDev(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "postgres://clinic@localhost/clinic")
	t.Setenv("APP_ENV", "prod")
	t.Setenv("ADMIN_JWT_SECRET", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error without ADMIN_JWT_SECRET in prod")
	}
}

func TestLoadRejectsOtherGranularity(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "postgres://clinic@localhost/clinic")
	t.Setenv("APP_ENV", "dev")
	t.Setenv("SLOT_GRANULARITY", "15m")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for 15m granularity")
	}
}

func TestLoadRedisURL(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "postgres://clinic@localhost/clinic")
	t.Setenv("APP_ENV", "dev")
	t.Setenv("SLOT_GRANULARITY", "")
	t.Setenv("REDIS_URL", "redis://user:pw@cache:6380")
	t.Setenv("LOCK_TTL", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.RedisAddr != "cache:6380" || cfg.RedisUsername != "user" || cfg.RedisPassword != "pw" {
		t.Fatalf("unexpected redis settings %+v", cfg)
	}
	if cfg.LockTTL != 3*time.Second {
		t.Fatalf("expected numeric lock ttl in seconds, got %s", cfg.LockTTL)
	}
}
