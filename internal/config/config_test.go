package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseYAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
telegram:
  token: "123:abc"
  poll_timeout: "15s"
logging:
  level: debug
  console: true
storage:
  path: ./planner.db
reminder:
  send_timeout: "5s"
  rate_per_sec: 10
session:
  ttl: "20m"
`)
	m := NewManager(path)
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telegram.Token != "123:abc" {
		t.Fatalf("token = %q", cfg.Telegram.Token)
	}
	if cfg.Storage.Path != "./planner.db" {
		t.Fatalf("storage path = %q", cfg.Storage.Path)
	}
	if !cfg.Reminder.IsEnabled() {
		t.Fatal("reminder should default to enabled when omitted")
	}
	if cfg.Reminder.RatePerSec != 10 {
		t.Fatalf("rate_per_sec = %d", cfg.Reminder.RatePerSec)
	}
	if got := m.Get(); got != cfg {
		t.Fatal("Get should return the committed config")
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
telegram:
  token: "t"
  pol_timeout: "15s"
`)
	if _, err := NewManager(path).Load(); err == nil {
		t.Fatal("expected error for misspelled key")
	}
}

func TestReminderExplicitDisable(t *testing.T) {
	path := writeConfig(t, "config.json", `{"reminder":{"enabled":false}}`)
	cfg, err := NewManager(path).Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Reminder.IsEnabled() {
		t.Fatal("explicit enabled:false ignored")
	}
}

func TestEnvOverlayWinsOverFile(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "env-token")
	t.Setenv("DB_PATH", "/var/lib/trenbot/planner.db")
	path := writeConfig(t, "config.yaml", `
telegram:
  token: "file-token"
storage:
  path: ./file.db
reminder:
  enabled: false
`)
	cfg, err := NewManager(path).Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Telegram.Token != "env-token" {
		t.Fatalf("token = %q, want env override", cfg.Telegram.Token)
	}
	if cfg.Storage.Path != "/var/lib/trenbot/planner.db" {
		t.Fatalf("db path = %q, want env override", cfg.Storage.Path)
	}
	// The overlay must not choke on pointer fields the file decode filled in.
	if cfg.Reminder.IsEnabled() {
		t.Fatal("explicit enabled:false lost during env overlay")
	}
}

func TestEnvOverlayLeavesFileValuesWhenUnset(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "")
	t.Setenv("DB_PATH", "")
	path := writeConfig(t, "config.yaml", `
telegram:
  token: "file-token"
storage:
  path: ./file.db
`)
	cfg, err := NewManager(path).Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Telegram.Token != "file-token" {
		t.Fatalf("token = %q, want file value", cfg.Telegram.Token)
	}
	if cfg.Storage.Path != "./file.db" {
		t.Fatalf("db path = %q, want file value", cfg.Storage.Path)
	}
}

func TestParseDurationField(t *testing.T) {
	t.Parallel()
	d, err := ParseDurationField("reminder.send_timeout", "5s")
	if err != nil || d != 5*time.Second {
		t.Fatalf("got %v, %v", d, err)
	}
	if _, err := ParseDurationField("x", "banana"); err == nil {
		t.Fatal("expected error for invalid duration")
	}
	if _, err := ParseDurationField("x", "-5s"); err == nil {
		t.Fatal("expected error for negative duration")
	}
	d, err = ParseDurationOrDefault("x", "", 7*time.Second)
	if err != nil || d != 7*time.Second {
		t.Fatalf("default not applied: %v, %v", d, err)
	}
}
