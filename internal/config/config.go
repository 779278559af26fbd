package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Dashboard DashboardConfig `yaml:"dashboard"`
	Inbox     InboxConfig     `yaml:"inbox"`
	Usage     UsageConfig     `yaml:"usage"`
	Autonomy  AutonomyConfig  `yaml:"autonomy"`
	API       APIConfig       `yaml:"api"`
	Storage   StorageConfig   `yaml:"storage"`
}

// DashboardConfig points at the agent runtime.
type DashboardConfig struct {
	WSURL            string `yaml:"ws_url"`
	HTTPURL          string `yaml:"http_url"`
	Token            string `yaml:"token"`
	ReconnectDelayMs int    `yaml:"reconnect_delay_ms"`
	RequestTimeoutMs int    `yaml:"request_timeout_ms"`
}

type InboxConfig struct {
	Capacity      int `yaml:"capacity"`
	BurstWindowMs int `yaml:"burst_window_ms"`
}

type UsageConfig struct {
	HighThreshold int64 `yaml:"high_threshold"`
}

type AutonomyConfig struct {
	ConfirmPhrase string `yaml:"confirm_phrase"`
}

type APIConfig struct {
	Listen         string   `yaml:"listen"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type StorageConfig struct {
	StateDir  string `yaml:"state_dir"`
	OutboxMax int    `yaml:"outbox_max"`
}

func (c DashboardConfig) ReconnectDelay() time.Duration {
	return time.Duration(c.ReconnectDelayMs) * time.Millisecond
}

func (c DashboardConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMs) * time.Millisecond
}

func (c InboxConfig) BurstWindow() time.Duration {
	return time.Duration(c.BurstWindowMs) * time.Millisecond
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadConfig reads path, fills defaults and applies environment overrides.
// A missing path yields the defaults. Variables from a .env file in the
// working directory are loaded first and never override the real environment.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyDefaults()
	cfg.applyEnv()
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Dashboard.WSURL == "" {
		cfg.Dashboard.WSURL = "ws://127.0.0.1:8000/ws"
	}
	if cfg.Dashboard.HTTPURL == "" {
		cfg.Dashboard.HTTPURL = "http://127.0.0.1:8000"
	}
	if cfg.Dashboard.ReconnectDelayMs == 0 {
		cfg.Dashboard.ReconnectDelayMs = 2000
	}
	if cfg.Dashboard.RequestTimeoutMs == 0 {
		cfg.Dashboard.RequestTimeoutMs = 10000
	}
	if cfg.Inbox.Capacity == 0 {
		cfg.Inbox.Capacity = 50
	}
	if cfg.Inbox.BurstWindowMs == 0 {
		cfg.Inbox.BurstWindowMs = 2000
	}
	if cfg.Usage.HighThreshold == 0 {
		cfg.Usage.HighThreshold = 150000
	}
	if cfg.Autonomy.ConfirmPhrase == "" {
		cfg.Autonomy.ConfirmPhrase = "agree"
	}
	if cfg.API.Listen == "" {
		cfg.API.Listen = "127.0.0.1:7780"
	}
	if len(cfg.API.AllowedOrigins) == 0 {
		cfg.API.AllowedOrigins = []string{"http://localhost:*", "http://127.0.0.1:*"}
	}
	if cfg.Storage.OutboxMax == 0 {
		cfg.Storage.OutboxMax = 500
	}
}

func (cfg *Config) applyEnv() {
	if v := os.Getenv("CEO_DASHBOARD_TOKEN"); v != "" {
		cfg.Dashboard.Token = v
	}
	if v := os.Getenv("CEO_WS_URL"); v != "" {
		cfg.Dashboard.WSURL = v
	}
	if v := os.Getenv("CEO_HTTP_URL"); v != "" {
		cfg.Dashboard.HTTPURL = v
	}
	if v := os.Getenv("CEO_API_LISTEN"); v != "" {
		cfg.API.Listen = v
	}
}
