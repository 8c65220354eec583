// FleetCore - TransSync Tenant Cache and Real-Time Notification Engine
// Copyright 2026 TransSync
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/transsync/fleetcore

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 3001 {
		t.Errorf("Server.Port = %d, want 3001", cfg.Server.Port)
	}
	if cfg.Cache.HotTTL != 5*time.Minute {
		t.Errorf("Cache.HotTTL = %v, want 5m", cfg.Cache.HotTTL)
	}
	if cfg.Cache.CommonTTL != 30*time.Minute {
		t.Errorf("Cache.CommonTTL = %v, want 30m", cfg.Cache.CommonTTL)
	}
	if cfg.Scheduler.DailyReportHour != 9 {
		t.Errorf("Scheduler.DailyReportHour = %d, want 9", cfg.Scheduler.DailyReportHour)
	}
	if !cfg.Scheduler.Enabled {
		t.Error("Scheduler.Enabled = false, want true")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Error("expected validation error without JWT secret")
	}

	t.Setenv("JWT_SECRET", "tooshort")
	if _, err := Load(); err == nil {
		t.Error("expected validation error for short JWT secret")
	}
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("HTTP_PORT", "8080")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("CACHE_HOT_TTL", "10m")
	t.Setenv("DAILY_REPORT_HOUR", "6")
	t.Setenv("CORS_ORIGINS", "https://app.example.com, https://admin.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Host != "db.internal" {
		t.Errorf("Database.Host = %q, want db.internal", cfg.Database.Host)
	}
	if cfg.Cache.HotTTL != 10*time.Minute {
		t.Errorf("Cache.HotTTL = %v, want 10m", cfg.Cache.HotTTL)
	}
	if cfg.Scheduler.DailyReportHour != 6 {
		t.Errorf("Scheduler.DailyReportHour = %d, want 6", cfg.Scheduler.DailyReportHour)
	}
	want := []string{"https://app.example.com", "https://admin.example.com"}
	if len(cfg.Security.CORSOrigins) != 2 || cfg.Security.CORSOrigins[0] != want[0] || cfg.Security.CORSOrigins[1] != want[1] {
		t.Errorf("Security.CORSOrigins = %v, want %v", cfg.Security.CORSOrigins, want)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := strings.Join([]string{
		"server:",
		"  port: 9090",
		"cache:",
		"  common_ttl: 1h",
		"scheduler:",
		"  enabled: false",
	}, "\n")
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Cache.CommonTTL != time.Hour {
		t.Errorf("Cache.CommonTTL = %v, want 1h", cfg.Cache.CommonTTL)
	}
	if cfg.Scheduler.Enabled {
		t.Error("Scheduler.Enabled = true, want false from file")
	}
	// Defaults still apply where the file is silent.
	if cfg.Database.Port != 3306 {
		t.Errorf("Database.Port = %d, want 3306", cfg.Database.Port)
	}
}

func TestDatabaseDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db.internal",
		Port:     3306,
		User:     "fleet",
		Password: "secret",
		Name:     "fleetcore",
	}
	want := "fleet:secret@tcp(db.internal:3306)/fleetcore?parseTime=true&charset=utf8mb4"
	if got := cfg.DSN(); got != want {
		t.Errorf("DSN = %q, want %q", got, want)
	}
}
