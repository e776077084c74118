// Package config provides configuration loading and structs for the sqlite2es tool.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the migration tool.
type Config struct {
	Debug         bool                `yaml:"debug"`
	Source        SourceConfig        `yaml:"source"`
	Elasticsearch ElasticsearchConfig `yaml:"elasticsearch"`
	Metrics       MetricsConfig       `yaml:"metrics"`
}

// SourceConfig holds the location of the legacy movies database.
type SourceConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// ElasticsearchConfig holds the target cluster and index.
type ElasticsearchConfig struct {
	URL   string `yaml:"url"`
	Index string `yaml:"index"`
}

// MetricsConfig holds Pushgateway settings. An empty pushgateway_url
// disables metrics for the run.
type MetricsConfig struct {
	PushgatewayURL string `yaml:"pushgateway_url"`
	Job            string `yaml:"job"`
}

// Load reads and parses the config file at path, applies defaults, and
// expands the database path. Returns an error if the file cannot be read
// or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Source.DatabasePath = expandPath(cfg.Source.DatabasePath, configDir)

	return &cfg, nil
}

// Default returns a config with all defaults applied, for running without a
// config file. The database path stays relative and resolves against the
// working directory.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "~/" are
// relative to the home directory; other relative paths are relative to
// configDir, so a config file can sit next to its database.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			return home
		}
		return path
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
		return path
	}
	return filepath.Join(configDir, path)
}
