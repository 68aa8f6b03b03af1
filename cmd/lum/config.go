package main

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config describes one run of the stress and serve commands.
type Config struct {
	Allocator      string `yaml:"allocator"`
	Track          bool   `yaml:"track"`
	ArenaChunkSize int    `yaml:"arena_chunk_size"`
	Workers        int    `yaml:"workers"`
	Iterations     int    `yaml:"iterations"`
	Items          int    `yaml:"items"`
	Listen         string `yaml:"listen"`
}

func DefaultConfig() *Config {
	return &Config{
		Allocator:  "heap",
		Track:      true,
		Workers:    4,
		Iterations: 10000,
		Items:      256,
		Listen:     "127.0.0.1:9464",
	}
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading config [%s]", path)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "error parsing config [%s]", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config [%s]", path)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Allocator {
	case "heap", "arena", "pool", "mmap":
	default:
		return errors.Errorf("unknown allocator '%s'", c.Allocator)
	}
	if c.Workers < 1 {
		return errors.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.Iterations < 1 {
		return errors.Errorf("iterations must be positive, got %d", c.Iterations)
	}
	if c.Items < 1 {
		return errors.Errorf("items must be positive, got %d", c.Items)
	}
	if c.ArenaChunkSize < 0 {
		return errors.Errorf("arena_chunk_size must not be negative, got %d", c.ArenaChunkSize)
	}
	return nil
}
