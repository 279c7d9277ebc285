package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"BOARD_ADDR", "PORT", "BOARD_STORE", "BOARD_UPDATE_RETRIES", "BOARD_CORS_MAX_AGE", "BOARD_SHUTDOWN_TIMEOUT"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.Addr != ":8080" {
		t.Fatalf("unexpected addr: %s", cfg.Addr)
	}
	if cfg.Store.Driver != "memory" {
		t.Fatalf("unexpected store driver: %s", cfg.Store.Driver)
	}
	if cfg.UpdateRetries != 5 {
		t.Fatalf("unexpected retries: %d", cfg.UpdateRetries)
	}
	if cfg.CORSMaxAge != 86400 {
		t.Fatalf("unexpected cors max age: %d", cfg.CORSMaxAge)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Fatalf("unexpected shutdown timeout: %s", cfg.ShutdownTimeout)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("BOARD_ADDR", "")
	t.Setenv("PORT", "9000")
	t.Setenv("BOARD_STORE", "sqlite")
	t.Setenv("BOARD_UPDATE_RETRIES", "nope")
	t.Setenv("BOARD_SHUTDOWN_TIMEOUT", "2s")

	cfg := Load()
	if cfg.Addr != ":9000" {
		t.Fatalf("expected PORT fallback, got %s", cfg.Addr)
	}
	if cfg.Store.Driver != "sqlite" {
		t.Fatalf("unexpected store driver: %s", cfg.Store.Driver)
	}
	if cfg.UpdateRetries != 5 {
		t.Fatalf("invalid int should fall back to default, got %d", cfg.UpdateRetries)
	}
	if cfg.ShutdownTimeout != 2*time.Second {
		t.Fatalf("unexpected shutdown timeout: %s", cfg.ShutdownTimeout)
	}
}
