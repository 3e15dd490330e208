// Package config loads the service configuration from YAML and
// validates it before anything connects to a backend.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values like "500ms" parse.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// ImportConfig tunes bulk graph imports on the database backend.
type ImportConfig struct {
	Retries   int      `yaml:"retries" validate:"gte=1,lte=10"`
	Backoff   Duration `yaml:"backoff" validate:"gte=0"`
	BatchSize int      `yaml:"batch_size" validate:"gte=1"`
}

// Config is the full service configuration.
type Config struct {
	// Backend selects the graph storage engine.
	Backend string `yaml:"backend" validate:"oneof=memory disjoint age"`
	// DatabaseURL is required for the age backend.
	DatabaseURL string `yaml:"database_url" validate:"required_if=Backend age"`
	// GraphName is the database graph namespace for the age backend.
	GraphName string `yaml:"graph_name"`

	Import ImportConfig `yaml:"import"`

	// SnapshotDir is where model snapshots are written.
	SnapshotDir string `yaml:"snapshot_dir"`
	LogLevel    string `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Backend:     "memory",
		SnapshotDir: "snapshots",
		LogLevel:    "info",
		Import: ImportConfig{
			Retries:   3,
			Backoff:   Duration(2 * time.Second),
			BatchSize: 100,
		},
	}
}

// Load reads and validates a YAML configuration file. Fields absent
// from the file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the structural constraints of the configuration.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
