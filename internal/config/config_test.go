package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Mode != "serve" {
		t.Fatalf("Mode = %q, want serve", cfg.Mode)
	}
	if cfg.Discrepancy.MinSpread != 0.03 {
		t.Fatalf("Discrepancy.MinSpread = %v, want 0.03", cfg.Discrepancy.MinSpread)
	}
	if cfg.Scan.Interval.Duration != 5*time.Minute {
		t.Fatalf("Scan.Interval = %v, want 5m", cfg.Scan.Interval.Duration)
	}
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
mode = "scan"

[discrepancy]
min_spread = 0.05

[scan]
interval = "30s"
venues = ["polymarket"]
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Mode != "scan" {
		t.Fatalf("Mode = %q, want scan", cfg.Mode)
	}
	if cfg.Discrepancy.MinSpread != 0.05 {
		t.Fatalf("Discrepancy.MinSpread = %v, want 0.05", cfg.Discrepancy.MinSpread)
	}
	if cfg.Scan.Interval.Duration != 30*time.Second {
		t.Fatalf("Scan.Interval = %v, want 30s", cfg.Scan.Interval.Duration)
	}
	// Untouched sections keep their defaults.
	if cfg.Redis.Addr != "localhost:6379" {
		t.Fatalf("Redis.Addr = %q, want default", cfg.Redis.Addr)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("ARBITER_REDIS_ADDR", "redis.internal:6380")
	t.Setenv("ARBITER_SCAN_VENUES", "kalshi, polymarket")
	t.Setenv("ARBITER_DISCREPANCY_MIN_SPREAD", "0.04")

	cfg, err := Load(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Redis.Addr != "redis.internal:6380" {
		t.Fatalf("Redis.Addr = %q, want env override", cfg.Redis.Addr)
	}
	if len(cfg.Scan.Venues) != 2 || cfg.Scan.Venues[0] != "kalshi" {
		t.Fatalf("Scan.Venues = %v, want [kalshi polymarket]", cfg.Scan.Venues)
	}
	if cfg.Discrepancy.MinSpread != 0.04 {
		t.Fatalf("Discrepancy.MinSpread = %v, want 0.04", cfg.Discrepancy.MinSpread)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults pass", func(c *Config) {}, false},
		{"bad mode", func(c *Config) { c.Mode = "trade" }, true},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }, true},
		{"bad port", func(c *Config) { c.Server.Port = -1 }, true},
		{"spread out of range", func(c *Config) { c.Discrepancy.MinSpread = 1.5 }, true},
		{"scan without venues", func(c *Config) { c.Mode = "scan"; c.Scan.Venues = nil }, true},
		{"unknown venue", func(c *Config) { c.Mode = "scan"; c.Scan.Venues = []string{"intrade"} }, true},
		{"zero trade size", func(c *Config) { c.Analytics.DefaultTradeSize = 0 }, true},
	}
	for _, tc := range cases {
		cfg := Defaults()
		tc.mutate(&cfg)
		err := cfg.Validate()
		if tc.wantErr && err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		if !tc.wantErr && err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
	}
}

func TestRedactedConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Kalshi.ApiKey = "key-123"
	cfg.Postgres.Password = "hunter2"

	red := RedactedConfig(&cfg)

	if red.Kalshi.ApiKey != "***" || red.Postgres.Password != "***" {
		t.Fatalf("secrets not redacted: %+v", red.Kalshi)
	}
	// The original must be untouched.
	if cfg.Kalshi.ApiKey != "key-123" {
		t.Fatalf("RedactedConfig mutated the original")
	}
}
