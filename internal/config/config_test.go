package config

import (
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("NAVER_CLIENT_ID", "id")
	t.Setenv("NAVER_CLIENT_SECRET", "secret")
	t.Setenv("GEMINI_API_KEY", "key")
	t.Setenv("WORDPRESS_BASE_URL", "https://popups.example.com")
	t.Setenv("WORDPRESS_USERNAME", "bot")
	t.Setenv("WORDPRESS_APP_PASSWORD", "pass")
}

func TestLoadAppliesDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.AppName != "popup-harvester" {
		t.Fatalf("unexpected app name %q", cfg.AppName)
	}
	if cfg.RunInterval != time.Hour {
		t.Fatalf("unexpected run interval %v", cfg.RunInterval)
	}
	if cfg.BackoffBase != 500*time.Millisecond || cfg.BackoffMultiplier != 2.0 {
		t.Fatalf("unexpected backoff %v x%v", cfg.BackoffBase, cfg.BackoffMultiplier)
	}
	if cfg.HTTPTimeout != 15*time.Second {
		t.Fatalf("unexpected http timeout %v", cfg.HTTPTimeout)
	}
	if cfg.RetryCeiling != 3 || cfg.Concurrency != 4 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadOverridesFromEnv(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("RUN_INTERVAL", "120")
	t.Setenv("RUN_ONCE", "true")
	t.Setenv("CONCURRENCY", "8")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RunInterval != 2*time.Minute || !cfg.RunOnce || cfg.Concurrency != 8 {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
}

func TestLoadRejectsMissingCredentials(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("GEMINI_API_KEY", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing api key")
	}
}

func TestLoadRejectsBadNumbers(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("RETRY_CEILING", "0")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for zero retry ceiling")
	}
}
