// Package config loads process settings from the environment.
package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"

	"storygraph/internal/logger"
)

// Prefix is prepended to every variable name, e.g. STORY_ADDR.
const Prefix = "STORY"

// Config is the runtime configuration of the binaries.
type Config struct {
	Addr        string   `envconfig:"ADDR" default:":8080"`
	LogLevel    string   `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding string   `envconfig:"LOG_ENCODING" default:"console"`
	LogFile     string   `envconfig:"LOG_FILE"`
	Chapters    []string `envconfig:"CHAPTERS" default:"stories/chapter1.json"`
	// Strict refuses to serve a story whose validation reports errors.
	Strict bool `envconfig:"STRICT" default:"true"`
}

// Load reads the configuration from STORY_* environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if len(cfg.Chapters) == 0 {
		return nil, fmt.Errorf("failed to load configuration: %s_CHAPTERS is empty", Prefix)
	}
	return &cfg, nil
}

// Logger returns the logger settings.
func (c *Config) Logger() logger.Config {
	return logger.Config{
		Level:      c.LogLevel,
		Encoding:   c.LogEncoding,
		OutputPath: c.LogFile,
		Fields:     map[string]any{"service": "storyserver"},
	}
}
