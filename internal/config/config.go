// Package config handles loading and persisting the Creo client configuration.
//
// Configuration is resolved in the following order, later sources winning:
//  1. Built-in defaults
//  2. The settings file (settings.json or settings.yaml in the data dir)
//  3. Environment variables (CREO_SERVER_URL)
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/oron-mozes/creo-sub001/internal/appdir"
)

const (
	// ServerURLEnv overrides the backend base URL.
	ServerURLEnv = "CREO_SERVER_URL"

	// DefaultServerURL is the local development backend address used when
	// nothing else is configured.
	DefaultServerURL = "http://localhost:8000"
)

// Config holds the client configuration.
type Config struct {
	// ServerURL is the backend base URL (http or https).
	ServerURL string `json:"server_url" yaml:"server_url"`

	// LogLevel is the minimum log level (debug, info, warn, error).
	LogLevel string `json:"log_level,omitempty" yaml:"log_level,omitempty"`

	// LogFile is an optional log file path. Empty means the default
	// location under the data directory; "-" disables file logging.
	LogFile string `json:"log_file,omitempty" yaml:"log_file,omitempty"`
}

// Default returns the built-in default configuration.
func Default() *Config {
	return &Config{
		ServerURL: DefaultServerURL,
		LogLevel:  "info",
	}
}

// Load resolves the configuration from the settings file and environment.
// A missing settings file is not an error; defaults apply.
func Load() (*Config, error) {
	path, err := appdir.SettingsPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom loads the configuration from a specific settings file path,
// applying defaults and environment overrides.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// No settings file; defaults apply.
	case err != nil:
		return nil, fmt.Errorf("read settings %s: %w", path, err)
	default:
		if err := unmarshalSettings(path, data, cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)

	cfg.ServerURL = strings.TrimRight(cfg.ServerURL, "/")
	if cfg.ServerURL == "" {
		cfg.ServerURL = DefaultServerURL
	}
	return cfg, nil
}

// unmarshalSettings decodes the settings file based on its extension.
// JSON is the canonical format; YAML is accepted for hand-edited files.
func unmarshalSettings(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse settings %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse settings %s: %w", path, err)
		}
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(ServerURLEnv); v != "" {
		cfg.ServerURL = v
	}
}

// Save writes the configuration to the settings file as JSON.
func (c *Config) Save() error {
	path, err := appdir.SettingsPath()
	if err != nil {
		return err
	}
	if err := appdir.EnsureDir(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write settings %s: %w", path, err)
	}
	return nil
}
