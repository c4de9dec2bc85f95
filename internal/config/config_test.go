package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/iliyamo/venue-seat-allocator/internal/queue"
	"github.com/iliyamo/venue-seat-allocator/internal/venue"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JOURNAL_ENABLED", "")
	t.Setenv("EVENTS_ENABLED", "")
	t.Setenv("APP_PORT", "")
	t.Setenv("EVENTS_BUFFER", "")
	t.Setenv("JOURNAL_TABLE", "")
	t.Setenv("EVENTS_QUEUE", "")
	t.Setenv("VENUE_MAX_SEATS", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" || cfg.Journal.Enabled || cfg.Events.Enabled {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Events.Queue != queue.DefaultQueueName || cfg.MaxSeats != venue.DefaultMaxSeats {
		t.Errorf("queue %q, max seats %d", cfg.Events.Queue, cfg.MaxSeats)
	}
	if cfg.Events.Buffer != 256 || cfg.Journal.Table != "command_journal" {
		t.Errorf("defaults = %+v / %+v", cfg.Events, cfg.Journal)
	}
}

func TestLoadJournalRequiresDB(t *testing.T) {
	t.Setenv("JOURNAL_ENABLED", "true")
	t.Setenv("DB_USER", "")
	t.Setenv("DB_NAME", "")
	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "DB_USER, DB_NAME") {
		t.Fatalf("Load error = %v", err)
	}

	t.Setenv("DB_USER", "venue")
	t.Setenv("DB_NAME", "seats")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Journal.Enabled || cfg.Journal.DBUser != "venue" || cfg.Journal.DBPort != "3306" {
		t.Errorf("journal = %+v", cfg.Journal)
	}
}

func TestLoadRejectsEmptyEventBuffer(t *testing.T) {
	t.Setenv("JOURNAL_ENABLED", "")
	t.Setenv("EVENTS_BUFFER", "0")
	if _, err := Load(); err == nil {
		t.Fatal("Load accepted EVENTS_BUFFER=0")
	}
}

func TestLoadMaxSeats(t *testing.T) {
	t.Setenv("JOURNAL_ENABLED", "")
	t.Setenv("EVENTS_BUFFER", "")
	t.Setenv("VENUE_MAX_SEATS", "500")
	cfg, err := Load()
	if err != nil || cfg.MaxSeats != 500 {
		t.Fatalf("Load = %d, %v", cfg.MaxSeats, err)
	}
	t.Setenv("VENUE_MAX_SEATS", "-1")
	if _, err := Load(); err == nil {
		t.Fatal("Load accepted VENUE_MAX_SEATS=-1")
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("X_BOOL", "ON")
	t.Setenv("X_BAD_BOOL", "maybe")
	t.Setenv("X_INT", "nope")
	t.Setenv("X_DUR", "250ms")
	if !envBool("X_BOOL", false) || envBool("X_BAD_BOOL", false) {
		t.Error("envBool")
	}
	if envInt("X_INT", 7) != 7 {
		t.Error("envInt fallback")
	}
	if envDur("X_DUR", time.Second) != 250*time.Millisecond {
		t.Error("envDur")
	}
}

func TestLoadRateLimitConfigClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_EVERY", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")
	cfg := LoadRateLimitConfig()
	if cfg.Capacity != 1 || cfg.RefillTokens != 1 || cfg.RefillInterval != 2*time.Second {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.TTL != 10*time.Second {
		t.Errorf("TTL = %v, want 10s", cfg.TTL)
	}
	if cfg.KeyStrategy != "ip_route" {
		t.Errorf("KeyStrategy = %q", cfg.KeyStrategy)
	}
}

func TestLoadCacheConfig(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")
	t.Setenv("CACHE_TTL", "")
	cfg := LoadCacheConfig()
	if !cfg.Methods["GET"] || !cfg.Methods["HEAD"] || cfg.Methods["POST"] {
		t.Errorf("Methods = %v", cfg.Methods)
	}
	if cfg.TTL != 30*time.Second {
		t.Errorf("TTL = %v", cfg.TTL)
	}
}

func TestLoadRedisConfig(t *testing.T) {
	t.Setenv("REDIS_ADDR", "cache:6380")
	t.Setenv("REDIS_HOST", "")
	t.Setenv("REDIS_PORT", "")
	if got := LoadRedisConfig().Addr; got != "cache:6380" {
		t.Errorf("Addr = %q", got)
	}
	t.Setenv("REDIS_HOST", "redis")
	t.Setenv("REDIS_PORT", "6379")
	t.Setenv("REDIS_TLS", "1")
	cfg := LoadRedisConfig()
	if cfg.Addr != "redis:6379" || !cfg.TLS {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	if err := os.WriteFile(path, []byte("VENUE_DOTENV_CHECK=loaded\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("VENUE_DOTENV_CHECK", "")
	os.Unsetenv("VENUE_DOTENV_CHECK")
	if err := LoadDotEnv(path, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("VENUE_DOTENV_CHECK"); got != "loaded" {
		t.Errorf("VENUE_DOTENV_CHECK = %q", got)
	}
	if err := LoadDotEnv(filepath.Join(dir, "missing.env")); err != nil {
		t.Errorf("missing file: %v", err)
	}
}
