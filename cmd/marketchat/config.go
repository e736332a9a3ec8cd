package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/vovakirdan/marketchat-sdk-go/marketchat"
)

type cliConfig struct {
	URL         string          `yaml:"url"`
	API         string          `yaml:"api"`
	Token       string          `yaml:"token"`
	User        string          `yaml:"user"`
	MetricsAddr string          `yaml:"metrics_addr"`
	Reconnect   reconnectConfig `yaml:"reconnect"`
}

type reconnectConfig struct {
	Disabled    bool          `yaml:"disabled"`
	BaseDelay   time.Duration `yaml:"base_delay"`
	MaxAttempts int           `yaml:"max_attempts"`
}

func defaultCLIConfig() *cliConfig {
	return &cliConfig{
		URL: "ws://localhost:8080/ws",
		API: "http://localhost:8080/api",
	}
}

// loadConfig reads .env, then the YAML file at path (if any), then applies
// MARKETCHAT_* environment overrides.
func loadConfig(path string) (*cliConfig, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := defaultCLIConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	for env, dst := range map[string]*string{
		"MARKETCHAT_URL":   &cfg.URL,
		"MARKETCHAT_API":   &cfg.API,
		"MARKETCHAT_TOKEN": &cfg.Token,
		"MARKETCHAT_USER":  &cfg.User,
	} {
		if v := os.Getenv(env); v != "" {
			*dst = v
		}
	}
	return cfg, nil
}

// clientConfig builds the SDK config. Zero reconnect values keep the SDK defaults.
func (c *cliConfig) clientConfig() marketchat.Config {
	out := marketchat.DefaultConfig()
	out.URL = c.URL
	out.AutoReconnect = !c.Reconnect.Disabled
	if c.Reconnect.BaseDelay > 0 {
		out.ReconnectBaseDelay = c.Reconnect.BaseDelay
	}
	if c.Reconnect.MaxAttempts > 0 {
		out.MaxReconnectAttempts = c.Reconnect.MaxAttempts
	}
	return out
}

func (c *cliConfig) session() marketchat.StaticSession {
	return marketchat.StaticSession{ID: c.User, AccessToken: c.Token}
}

func (c *cliConfig) requireSession() error {
	var missing []string
	if c.User == "" {
		missing = append(missing, "user (MARKETCHAT_USER)")
	}
	if c.Token == "" {
		missing = append(missing, "token (MARKETCHAT_TOKEN)")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing session settings: %v", missing)
	}
	return nil
}
