// Package config loads ollama-chat settings.
// Sources, highest priority first:
//  1. command-line flags (applied by the caller)
//  2. environment variables (OLLAMA_HOST, OLLAMA_CHAT_*)
//  3. the YAML file given by --config, or ~/.config/ollama-chat/config.yaml
//  4. built-in defaults
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/iksnae/ollama-chat/internal"
	"github.com/iksnae/ollama-chat/internal/console"
)

// Config holds all configuration values
type Config struct {
	Model            string `yaml:"model"`
	OllamaHost       string `yaml:"ollama_host"`
	ConversationsDir string `yaml:"conversations_dir"`
	Project          string `yaml:"project"`
	VisualMode       string `yaml:"visual_mode"`

	LogFile  string `yaml:"log_file"`
	LogLevel string `yaml:"log_level"`

	// IndexPath defaults to <conversations_dir>/index.db
	IndexPath    string `yaml:"index_path"`
	IndexEnabled *bool  `yaml:"index_enabled"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Model:            internal.DefaultModel,
		OllamaHost:       internal.DefaultOllamaHost,
		ConversationsDir: "conversations",
		VisualMode:       string(console.ModeAuto),
		LogLevel:         "warn",
	}
}

// DefaultPath returns ~/.config/ollama-chat/config.yaml
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "ollama-chat", "config.yaml")
}

// Load reads path (or the default location when empty), then applies
// environment overrides. A missing file yields the defaults; an explicit
// path that does not exist is an error. Values are not validated here so
// that flags applied by the caller can still replace them; call Validate
// once every override is in place.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("invalid config file %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist) && !explicit:
		default:
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	overrides := []struct {
		key string
		dst *string
	}{
		{"OLLAMA_HOST", &cfg.OllamaHost},
		{"OLLAMA_CHAT_MODEL", &cfg.Model},
		{"OLLAMA_CHAT_DIR", &cfg.ConversationsDir},
		{"OLLAMA_CHAT_PROJECT", &cfg.Project},
		{"OLLAMA_CHAT_MODE", &cfg.VisualMode},
		{"OLLAMA_CHAT_LOG_FILE", &cfg.LogFile},
		{"OLLAMA_CHAT_LOG_LEVEL", &cfg.LogLevel},
		{"OLLAMA_CHAT_INDEX", &cfg.IndexPath},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.key); v != "" {
			*o.dst = v
		}
	}
}

// Validate checks enumerated values
func (c *Config) Validate() error {
	if _, err := console.ParseMode(c.VisualMode); err != nil {
		return err
	}
	if c.ConversationsDir == "" {
		return errors.New("conversations_dir must not be empty")
	}
	if c.Project != "" {
		if err := internal.ValidateSessionName(c.Project); err != nil {
			return &internal.ValidationError{Field: "project", Value: c.Project}
		}
	}
	return nil
}

// Mode returns the parsed visual mode
func (c *Config) Mode() console.Mode {
	m, err := console.ParseMode(c.VisualMode)
	if err != nil {
		return console.ModeAuto
	}
	return m
}

// Level returns the parsed log level
func (c *Config) Level() internal.LogLevel {
	return internal.ParseLogLevel(c.LogLevel)
}

// IndexOn reports whether the history index is enabled (default true)
func (c *Config) IndexOn() bool {
	return c.IndexEnabled == nil || *c.IndexEnabled
}

// ResolvedIndexPath returns the index location
func (c *Config) ResolvedIndexPath() string {
	if c.IndexPath != "" {
		return c.IndexPath
	}
	return filepath.Join(c.ConversationsDir, "index.db")
}
