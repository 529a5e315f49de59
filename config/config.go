package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all tracing library configuration.
type Config struct {
	Trace   TraceConfig `yaml:"trace"`
	Logging LogConfig   `yaml:"logging"`
}

// TraceConfig holds span log sink configuration.
type TraceConfig struct {
	LogFile   string `envconfig:"TRAICING_LOG_FILE" default:".traicing/trace.jsonl" yaml:"log_file"`
	AutoFlush bool   `envconfig:"TRAICING_AUTO_FLUSH" default:"true" yaml:"auto_flush"`
}

// LogConfig holds diagnostic logging configuration.
type LogConfig struct {
	Level       string `envconfig:"TRAICING_LOG_LEVEL" default:"info" yaml:"level"`
	Development bool   `envconfig:"TRAICING_LOG_DEV" default:"false" yaml:"development"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: load from environment: %w", err)
	}
	return &cfg, nil
}

// LoadFile loads configuration from a YAML file, applied over defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault loads configuration from environment or returns defaults.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Trace: TraceConfig{
			LogFile:   ".traicing/trace.jsonl",
			AutoFlush: true,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
	}
}
