package configs

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}

	if cfg.HTTP.Port != 8080 {
		t.Fatalf("http port: got %d, want 8080", cfg.HTTP.Port)
	}
	if cfg.RateLimiter.Requests != 50 {
		t.Fatalf("limiter requests: got %d, want 50", cfg.RateLimiter.Requests)
	}
	if cfg.RateLimiter.Window != 100*time.Millisecond {
		t.Fatalf("limiter window: got %v, want 100ms", cfg.RateLimiter.Window)
	}
	if cfg.RateLimiter.SourceHeaderKey != "Authorization" {
		t.Fatalf("source header: got %q", cfg.RateLimiter.SourceHeaderKey)
	}
	if cfg.Mongo.Database != "equinox" {
		t.Fatalf("mongo database: got %q", cfg.Mongo.Database)
	}
	if cfg.Store.Driver != "mongo" {
		t.Fatalf("store driver: got %q", cfg.Store.Driver)
	}
	if cfg.Pipeline.PersistTimeout != 5*time.Second {
		t.Fatalf("persist timeout: got %v", cfg.Pipeline.PersistTimeout)
	}
}

func TestLoadFromFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	content := []byte(`
http:
  host: 127.0.0.1
  port: 9090
rate_limiter:
  requests: 10
  window: 1s
store:
  driver: memory
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.HTTP.Host != "127.0.0.1" || cfg.HTTP.Port != 9090 {
		t.Fatalf("http config: %+v", cfg.HTTP)
	}
	if cfg.RateLimiter.Requests != 10 || cfg.RateLimiter.Window != time.Second {
		t.Fatalf("limiter config: %+v", cfg.RateLimiter)
	}
	if cfg.Store.Driver != "memory" {
		t.Fatalf("store driver: got %q", cfg.Store.Driver)
	}

	// Untouched keys keep their defaults.
	if cfg.Mongo.Database != "equinox" {
		t.Fatalf("mongo database default lost: %q", cfg.Mongo.Database)
	}
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("rate_limiter:\n  requests: 10\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("RATE_LIMIT_REQUESTS", "75")
	t.Setenv("RATE_LIMIT_WINDOW_MS", "250")
	t.Setenv("SNOWFLAKE_WORKER_ID", "12")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.RateLimiter.Requests != 75 {
		t.Fatalf("limiter requests: got %d, want env override 75", cfg.RateLimiter.Requests)
	}
	if cfg.RateLimiter.Window != 250*time.Millisecond {
		t.Fatalf("limiter window: got %v, want 250ms", cfg.RateLimiter.Window)
	}
	if cfg.Snowflake.WorkerID != 12 {
		t.Fatalf("worker id: got %d, want 12", cfg.Snowflake.WorkerID)
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
