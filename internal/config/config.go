// Package config loads the shared YAML configuration for the server and the
// replay watcher agent.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/apex/log"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// Address is the listen address of the web server. The ADDRESS
	// environment variable overrides it.
	Address string `yaml:"address"`
	// DatabasePath is the sqlite file holding parsed game stats.
	DatabasePath string `yaml:"database_path"`
	// StatsURL is the stats source the match list polls.
	StatsURL string `yaml:"stats_url"`
	// PollInterval is the fixed interval between stats fetches.
	PollInterval time.Duration `yaml:"poll_interval"`

	Watcher Watcher `yaml:"watcher"`
}

// Watcher configures the replay directory watcher agent.
type Watcher struct {
	// ServerURL is the base URL replays are reported to.
	ServerURL string `yaml:"server_url"`
	// ReplayDirectories overrides the per-OS directory discovery.
	ReplayDirectories []string `yaml:"replay_directories"`
	// UsePolling selects the portable mtime-scan mode. Defaults to true;
	// set to false to use filesystem notifications instead.
	UsePolling *bool `yaml:"use_polling"`
	// PollingInterval is the scan interval in polling mode.
	PollingInterval time.Duration `yaml:"polling_interval"`
}

// Polling reports whether the watcher should scan instead of subscribing to
// filesystem events.
func (w Watcher) Polling() bool {
	return w.UsePolling == nil || *w.UsePolling
}

// Default returns the configuration used when no config file is present.
func Default() Config {
	return Config{
		Address:      "127.0.0.1:8080",
		DatabasePath: "instance/game_stats.db",
		StatsURL:     "http://127.0.0.1:8080/api/game_stats",
		PollInterval: 5 * time.Second,
		Watcher: Watcher{
			ServerURL:       "http://127.0.0.1:8080",
			PollingInterval: time.Second,
		},
	}
}

// Load reads the YAML file at path on top of the defaults. A missing file is
// not an error; the defaults apply and a warning is logged.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		log.WithField("path", path).Warn("config file not found, using defaults")
		return applyEnv(cfg), nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return applyEnv(cfg), nil
}

func applyEnv(cfg Config) Config {
	if addr := os.Getenv("ADDRESS"); addr != "" {
		cfg.Address = addr
	}
	return cfg
}
