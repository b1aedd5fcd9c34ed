// Package config handles reading and writing sessiond's config.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/solokit/sessiond/internal/session"
)

// Config is the top-level structure for config.yaml.
type Config struct {
	DataDir   string         `yaml:"data_dir"`
	Snapshots SnapshotConfig `yaml:"snapshots"`
	Advisor   AdvisorConfig  `yaml:"advisor"`
}

// SnapshotConfig controls the snapshot engine.
type SnapshotConfig struct {
	RingCapacity         int `yaml:"ring_capacity"`
	MaxDescriptionLength int `yaml:"max_description_length"`
}

// AdvisorConfig controls health scoring and prediction thresholds.
type AdvisorConfig struct {
	TargetSnapshotsPerHour float64 `yaml:"target_snapshots_per_hour"`
}

const configFile = "config.yaml"

// DefaultPath returns the default config location under the data directory.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".sessiond", configFile)
}

// Load reads the config file at path, falling back to DefaultPath when
// path is empty. A missing file yields the defaults; a malformed file is
// an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Write writes cfg to the given path, creating parent directories.
func Write(path string, cfg *Config) error {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		DataDir: filepath.Join(home, ".sessiond"),
		Snapshots: SnapshotConfig{
			RingCapacity:         session.DefaultRingCapacity,
			MaxDescriptionLength: 200,
		},
		Advisor: AdvisorConfig{
			TargetSnapshotsPerHour: 2.0,
		},
	}
}

// SessionConfig maps the file config onto the session engine's config.
func (c *Config) SessionConfig() session.Config {
	return session.Config{
		DataDir:                c.DataDir,
		RingCapacity:           c.Snapshots.RingCapacity,
		MaxDescriptionLength:   c.Snapshots.MaxDescriptionLength,
		TargetSnapshotsPerHour: c.Advisor.TargetSnapshotsPerHour,
	}
}
