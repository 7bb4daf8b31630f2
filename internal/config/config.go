// Package config loads the Cairn configuration file.
//
// Configuration is an explicit object handed to the engine and CLI at
// startup; nothing in this module reads process-global state.
package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration.
type Config struct {
	// Database is the SQLite database path.
	Database string `yaml:"database"`

	// LogLevel is the zerolog level name ("debug", "info", ...).
	LogLevel string `yaml:"log_level"`

	// Inventory controls the aggregation view.
	Inventory InventoryConfig `yaml:"inventory"`
}

// InventoryConfig holds the aggregation view settings.
type InventoryConfig struct {
	// AllowTags restricts inventory output to items reachable from
	// these tags. Empty allows everything.
	AllowTags []string `yaml:"allow_tags"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Database: "cairn.db",
		LogLevel: "info",
	}
}

// Load reads a YAML configuration file. Unknown keys are rejected so a
// typo fails loudly instead of silently falling back to defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Database == "" {
		return Config{}, fmt.Errorf("config %s: database path must not be empty", path)
	}
	return cfg, nil
}
