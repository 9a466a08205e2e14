// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config holds the settings shared by the server and the REPL
type Config struct {
	// Driver selects the row source: memory, sqlite, postgres, pgx, mysql or sqlserver
	Driver string `env:"BIRCHTREE_DRIVER" envDefault:"memory"`
	DSN    string `env:"BIRCHTREE_DSN"`

	// DataDir is the JSON database directory of the memory driver
	DataDir string `env:"BIRCHTREE_DATA_DIR" envDefault:"data/music"`

	// SchemaCachePath is an optional YAML snapshot of the schema cache
	SchemaCachePath string   `env:"BIRCHTREE_SCHEMA_CACHE"`
	WarmTables      []string `env:"BIRCHTREE_WARM_TABLES" envSeparator:","`

	LogLevel     string `env:"BIRCHTREE_LOG_LEVEL" envDefault:"info"`
	SeqURL       string `env:"BIRCHTREE_SEQ_URL"`
	OTLPEndpoint string `env:"BIRCHTREE_OTEL_ENDPOINT"`

	Port int `env:"BIRCHTREE_PORT" envDefault:"4455"`
}

// Load parses the environment into a Config
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}

// Level maps LogLevel onto a slog level; unknown names fall back to info
func (c *Config) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelInfo
	}
	return level
}

// UsesMemory reports whether the in-memory JSON source is selected
func (c *Config) UsesMemory() bool {
	return c.Driver == "" || strings.EqualFold(c.Driver, "memory")
}
