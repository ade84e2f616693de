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

// Config holds the settings flowday reads at startup. Everything has a
// working default so a missing config file means local-only mode.
type Config struct {
	RemoteURL string
	RemoteKey string
	DBPath    string
	Debounce  time.Duration
	PollEvery time.Duration
}

const (
	defaultConfigPath = "~/.config/flowday/config.toml"
	defaultDebounceMs = 1000
	defaultPollSecs   = 60
)

// Load locates and parses the flowday config, falling back to defaults when
// the file is missing. Environment variables FLOWDAY_REMOTE_URL and
// FLOWDAY_REMOTE_KEY override the file so credentials can stay out of it.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Debounce:  defaultDebounceMs * time.Millisecond,
		PollEvery: defaultPollSecs * time.Second,
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

	raw, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var parsed struct {
		RemoteURL  string `toml:"remote_url"`
		RemoteKey  string `toml:"remote_key"`
		DBPath     string `toml:"db_path"`
		DebounceMs int    `toml:"debounce_ms"`
		PollSecs   int    `toml:"poll_secs"`
	}
	if err := toml.Unmarshal(raw, &parsed); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg.RemoteURL = strings.TrimSpace(parsed.RemoteURL)
	cfg.RemoteKey = strings.TrimSpace(parsed.RemoteKey)
	if parsed.DebounceMs > 0 {
		cfg.Debounce = time.Duration(parsed.DebounceMs) * time.Millisecond
	}
	if parsed.PollSecs > 0 {
		cfg.PollEvery = time.Duration(parsed.PollSecs) * time.Second
	}
	if p := strings.TrimSpace(parsed.DBPath); p != "" {
		cfg.DBPath = mustExpand(p)
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("FLOWDAY_REMOTE_URL")); v != "" {
		c.RemoteURL = v
	}
	if v := strings.TrimSpace(os.Getenv("FLOWDAY_REMOTE_KEY")); v != "" {
		c.RemoteKey = v
	}
}

// RemoteConfigured reports whether enough is present to talk to a backend.
func (c Config) RemoteConfigured() bool {
	return c.RemoteURL != "" && c.RemoteKey != ""
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
