package config

import (
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SLACK_CLIENT_ID", "client-1")
	t.Setenv("SLACK_CLIENT_SECRET", "secret-1")
	t.Setenv("SLACK_STATE_KEY", "state-signing-key")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.ClientID != "client-1" || cfg.ClientSecret != "secret-1" {
		t.Errorf("Unexpected credentials %q/%q", cfg.ClientID, cfg.ClientSecret)
	}
	if len(cfg.Scopes) != 1 || cfg.Scopes[0] != "identify" {
		t.Errorf("Expected default scope identify, got %v", cfg.Scopes)
	}
	if cfg.CallbackPath != "/signin-slack" {
		t.Errorf("Expected default callback path, got %q", cfg.CallbackPath)
	}
	if cfg.StateTTL != 10*time.Minute {
		t.Errorf("Expected default state TTL 10m, got %v", cfg.StateTTL)
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SLACK_SCOPES", "identify users:read")
	t.Setenv("SLACK_TEAM", "T0001")
	t.Setenv("SLACK_CALLBACK_PATH", "/auth/slack/callback")
	t.Setenv("SLACK_COOKIE_SECURE", "true")
	t.Setenv("SLACK_STATE_TTL", "5m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(cfg.Scopes) != 2 || cfg.Scopes[1] != "users:read" {
		t.Errorf("Expected two scopes, got %v", cfg.Scopes)
	}
	if cfg.Team != "T0001" {
		t.Errorf("Expected team T0001, got %q", cfg.Team)
	}
	if cfg.CallbackPath != "/auth/slack/callback" {
		t.Errorf("Unexpected callback path %q", cfg.CallbackPath)
	}
	if !cfg.CookieSecure {
		t.Error("Expected CookieSecure true")
	}
	if cfg.StateTTL != 5*time.Minute {
		t.Errorf("Expected state TTL 5m, got %v", cfg.StateTTL)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	t.Setenv("SLACK_CLIENT_ID", "client-1")
	t.Setenv("SLACK_CLIENT_SECRET", "")
	t.Setenv("SLACK_STATE_KEY", "")

	if _, err := Load(); err == nil {
		t.Fatal("Expected error for missing required variables")
	}
}

func TestOptions(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	opts, err := cfg.Options()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if opts.Protector == nil {
		t.Fatal("Expected a protector derived from the state key")
	}
	if err := opts.Validate(); err != nil {
		t.Errorf("Expected valid options, got %v", err)
	}

	// The protector must round-trip properties.
	props, err := opts.Protector.Unprotect("")
	if err == nil && props != nil {
		t.Error("Expected empty blob to be rejected")
	}
}
