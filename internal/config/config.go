package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds the CLI settings. Library defaults apply to anything unset.
type Config struct {
	BaseURL       string
	Timeout       time.Duration
	SessionDir    string
	PollInterval  time.Duration
	WebhookListen string
	WebhookToken  string

	ClientID string
	SecretID string
}

const (
	defaultConfigPath    = "~/.config/go-anonymizer/config.toml"
	defaultSessionDir    = "~/.local/go-anonymizer/db"
	defaultPollInterval  = 2 * time.Second
	defaultWebhookListen = "127.0.0.1:8787"

	EnvClientID = "ANONYMIZER_CLIENT_ID"
	EnvSecretID = "ANONYMIZER_SECRET_ID"
	EnvBaseURL  = "ANONYMIZER_BASE_URL"
)

// Load parses the config file at path (or the default location), falling
// back to defaults when it is missing, then applies environment overrides.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		SessionDir:    mustExpand(defaultSessionDir),
		PollInterval:  defaultPollInterval,
		WebhookListen: defaultWebhookListen,
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg.applyEnv()
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		BaseURL             string `toml:"base_url"`
		TimeoutSeconds      int    `toml:"timeout_seconds"`
		SessionDir          string `toml:"session_dir"`
		PollIntervalSeconds int    `toml:"poll_interval_seconds"`
		WebhookListen       string `toml:"webhook_listen"`
		WebhookToken        string `toml:"webhook_token"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg.BaseURL = strings.TrimSpace(raw.BaseURL)
	if raw.TimeoutSeconds > 0 {
		cfg.Timeout = time.Duration(raw.TimeoutSeconds) * time.Second
	}
	if dir := strings.TrimSpace(raw.SessionDir); dir != "" {
		cfg.SessionDir = mustExpand(dir)
	}
	if raw.PollIntervalSeconds > 0 {
		cfg.PollInterval = time.Duration(raw.PollIntervalSeconds) * time.Second
	}
	if listen := strings.TrimSpace(raw.WebhookListen); listen != "" {
		cfg.WebhookListen = listen
	}
	cfg.WebhookToken = strings.TrimSpace(raw.WebhookToken)

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvBaseURL)); v != "" {
		c.BaseURL = v
	}
	c.ClientID = strings.TrimSpace(os.Getenv(EnvClientID))
	c.SecretID = strings.TrimSpace(os.Getenv(EnvSecretID))
}

// HasEnvCredentials reports whether both credentials came from the environment.
func (c Config) HasEnvCredentials() bool {
	return c.ClientID != "" && c.SecretID != ""
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
