package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.GetAPIBasePath() != "/api/v1" {
		t.Errorf("base path = %s, want /api/v1", cfg.GetAPIBasePath())
	}
	if cfg.Reconcile.MaxAttempts != 3 {
		t.Errorf("reconcile attempts = %d, want 3", cfg.Reconcile.MaxAttempts)
	}
	if cfg.Notify.Transport != "log" {
		t.Errorf("transport = %s, want log", cfg.Notify.Transport)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("RECONCILE_MAX_ATTEMPTS", "5")
	t.Setenv("RECONCILE_SCHEDULE_INTERVAL", "0s")
	t.Setenv("NOTIFY_TRANSPORT", "RabbitMQ")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("RATE_LIMIT_ENABLED", "not-a-bool")

	cfg := Load()

	if cfg.Reconcile.MaxAttempts != 5 {
		t.Errorf("reconcile attempts = %d, want 5", cfg.Reconcile.MaxAttempts)
	}
	if cfg.Reconcile.ScheduleInterval != 0 {
		t.Errorf("schedule interval = %v, want 0", cfg.Reconcile.ScheduleInterval)
	}
	if cfg.Notify.Transport != "rabbitmq" {
		t.Errorf("transport = %s, want rabbitmq", cfg.Notify.Transport)
	}
	if len(cfg.Notify.KafkaBrokers) != 2 || cfg.Notify.KafkaBrokers[1] != "k2:9092" {
		t.Errorf("brokers = %v", cfg.Notify.KafkaBrokers)
	}
	if !cfg.RateLimit.Enabled {
		t.Error("unparseable bool should fall back to true")
	}
	if cfg.Reconcile.Timeout != 5*time.Second {
		t.Errorf("timeout = %v, want 5s", cfg.Reconcile.Timeout)
	}
}

func TestBuildDatabaseDSN(t *testing.T) {
	tests := []struct {
		name     string
		db       DatabaseConfig
		contains string
	}{
		{"postgres", DatabaseConfig{Driver: "postgres", Host: "db", Port: "5432", Name: "shows", User: "u", Password: "p", SSLMode: "disable"}, "host=db port=5432"},
		{"mysql", DatabaseConfig{Driver: "mysql", Host: "db", Port: "3306", Name: "shows", User: "u", Password: "p"}, "u:p@tcp(db:3306)/shows?"},
		{"sqlite", DatabaseConfig{Driver: "sqlite", Path: "dev.db"}, "dev.db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildDatabaseDSN(tt.db); !strings.Contains(got, tt.contains) {
				t.Errorf("dsn %q does not contain %q", got, tt.contains)
			}
		})
	}
}
