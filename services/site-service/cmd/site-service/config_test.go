package main

import (
	"testing"
	"time"
)

func TestLoadConfigRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	if _, err := loadConfig(); err == nil {
		t.Fatal("expected error without DATABASE_URL")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/examcenter")
	t.Setenv("PORT", "")
	t.Setenv("BUSINESS_TIMEZONE", "")
	t.Setenv("ADMIN_PASSWORD_HASH", "")

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Port != "5000" {
		t.Fatalf("expected default port 5000, got %q", cfg.Port)
	}
	if cfg.Timezone != "America/Chicago" {
		t.Fatalf("unexpected timezone %q", cfg.Timezone)
	}
	if cfg.RateWindow != 15*time.Minute {
		t.Fatalf("unexpected rate window %s", cfg.RateWindow)
	}
}

func TestLoadConfigAdminNeedsJWTSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/examcenter")
	t.Setenv("ADMIN_PASSWORD_HASH", "$2a$10$abcdefghijklmnopqrstuv")
	t.Setenv("JWT_SECRET", "")
	if _, err := loadConfig(); err == nil {
		t.Fatal("expected error when admin hash is set without JWT_SECRET")
	}
}

func TestLoadPolicyUsesTimezone(t *testing.T) {
	p, err := loadPolicy(Config{Timezone: "UTC"})
	if err != nil {
		t.Fatalf("loadPolicy: %v", err)
	}
	if p.Location() != time.UTC {
		t.Fatalf("expected UTC, got %s", p.Location())
	}
	if _, err := loadPolicy(Config{Timezone: "Mars/Olympus"}); err == nil {
		t.Fatal("expected error for unknown timezone")
	}
}
