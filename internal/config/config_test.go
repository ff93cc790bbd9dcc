package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	data := `
address: "0.0.0.0:9000"
stats_url: "http://stats.example/api/game_stats"
poll_interval: 10s
watcher:
  use_polling: false
  replay_directories:
    - /replays
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Address != "0.0.0.0:9000" {
		t.Errorf("address = %q", cfg.Address)
	}
	if cfg.StatsURL != "http://stats.example/api/game_stats" {
		t.Errorf("stats_url = %q", cfg.StatsURL)
	}
	if cfg.PollInterval != 10*time.Second {
		t.Errorf("poll_interval = %v", cfg.PollInterval)
	}
	if cfg.Watcher.Polling() {
		t.Error("use_polling: false should disable polling")
	}
	if len(cfg.Watcher.ReplayDirectories) != 1 || cfg.Watcher.ReplayDirectories[0] != "/replays" {
		t.Errorf("replay_directories = %v", cfg.Watcher.ReplayDirectories)
	}
	// Unset keys keep their defaults.
	if cfg.DatabasePath != Default().DatabasePath {
		t.Errorf("database_path = %q", cfg.DatabasePath)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Address != Default().Address {
		t.Errorf("address = %q", cfg.Address)
	}
	if !cfg.Watcher.Polling() {
		t.Error("polling should default to true")
	}
}

func TestAddressEnvOverride(t *testing.T) {
	t.Setenv("ADDRESS", "127.0.0.1:18080")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Address != "127.0.0.1:18080" {
		t.Errorf("address = %q, want env override", cfg.Address)
	}
}
