package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" || cfg.DBPath != "data/filmiq.db" || cfg.LogLevel != slog.LevelInfo {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.QuestionTime() != 20*time.Second || cfg.SessionIdleTimeout != time.Hour {
		t.Errorf("unexpected timing defaults: %v %v", cfg.QuestionTime(), cfg.SessionIdleTimeout)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("QUESTION_SECONDS", "30")
	t.Setenv("SESSION_IDLE_TIMEOUT", "15m")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != slog.LevelDebug || cfg.QuestionTime() != 30*time.Second ||
		cfg.SessionIdleTimeout != 15*time.Minute || cfg.RedisURL == "" {
		t.Errorf("environment not applied: %+v", cfg)
	}

	t.Setenv("QUESTION_SECONDS", "0")
	if _, err := Load(); err == nil {
		t.Error("expected error for zero question time")
	}
}
