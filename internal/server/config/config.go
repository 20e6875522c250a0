package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Config holds the server configuration.
type Config struct {
	Port         int `yaml:"port"`
	ViewDistance int `yaml:"view_distance"` // chunks streamed around spawn on connect

	DataDir   string `yaml:"data_dir"`
	WorldName string `yaml:"world_name"`
	Provider  string `yaml:"provider"`  // "nw1", "badger" or "sqlite"
	PageSize  int    `yaml:"page_size"` // nw1 page size for new worlds
	Generator string `yaml:"generator"` // "flatgrass" or "hills"
	Seed      int64  `yaml:"seed"`
	Workers   int    `yaml:"workers"` // generator goroutines

	LightingBudget   int           `yaml:"lighting_budget"` // light updates per drain
	TickInterval     time.Duration `yaml:"tick_interval"`
	AutosaveInterval time.Duration `yaml:"autosave_interval"` // 0 disables autosave

	MetricsAddr  string `yaml:"metrics_addr"`  // empty disables the /metrics endpoint
	RegistryPath string `yaml:"registry_path"` // optional blocks.yaml
	LogLevel     string `yaml:"log_level"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Port:             25565,
		ViewDistance:     4,
		DataDir:          "data",
		WorldName:        "world",
		Provider:         "nw1",
		PageSize:         1024,
		Generator:        "flatgrass",
		Workers:          2,
		LightingBudget:   4096,
		TickInterval:     50 * time.Millisecond,
		AutosaveInterval: 5 * time.Minute,
		MetricsAddr:      ":9100",
		LogLevel:         "info",
	}
}

// Merge applies file-loaded config values into cfg, but only for fields
// that were NOT explicitly set via CLI flags. explicitFlags contains the
// flag names that were explicitly provided on the command line.
// The data directory is never taken from the file since the file lives in it.
func Merge(cfg *Config, fromFile *Config, explicitFlags map[string]bool) {
	if !explicitFlags["port"] {
		cfg.Port = fromFile.Port
	}
	if !explicitFlags["view-distance"] {
		cfg.ViewDistance = fromFile.ViewDistance
	}
	if !explicitFlags["world"] {
		cfg.WorldName = fromFile.WorldName
	}
	if !explicitFlags["provider"] {
		cfg.Provider = fromFile.Provider
	}
	if !explicitFlags["page-size"] {
		cfg.PageSize = fromFile.PageSize
	}
	if !explicitFlags["generator"] {
		cfg.Generator = fromFile.Generator
	}
	if !explicitFlags["seed"] {
		cfg.Seed = fromFile.Seed
	}
	if !explicitFlags["workers"] {
		cfg.Workers = fromFile.Workers
	}
	if !explicitFlags["lighting-budget"] {
		cfg.LightingBudget = fromFile.LightingBudget
	}
	if !explicitFlags["tick"] {
		cfg.TickInterval = fromFile.TickInterval
	}
	if !explicitFlags["autosave"] {
		cfg.AutosaveInterval = fromFile.AutosaveInterval
	}
	if !explicitFlags["metrics-addr"] {
		cfg.MetricsAddr = fromFile.MetricsAddr
	}
	if !explicitFlags["registry"] {
		cfg.RegistryPath = fromFile.RegistryPath
	}
	if !explicitFlags["log-level"] {
		cfg.LogLevel = fromFile.LogLevel
	}
}

// Validate rejects values the server cannot start with.
func (c *Config) Validate() error {
	if c.WorldName == "" || strings.ContainsAny(c.WorldName, `/\`) {
		return fmt.Errorf("invalid world name %q", c.WorldName)
	}
	if c.ViewDistance < 0 {
		return fmt.Errorf("view distance must not be negative, got %d", c.ViewDistance)
	}
	if c.LightingBudget <= 0 {
		return fmt.Errorf("lighting budget must be positive, got %d", c.LightingBudget)
	}
	if c.AutosaveInterval < 0 {
		return fmt.Errorf("autosave interval must not be negative, got %s", c.AutosaveInterval)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("parse log level: %w", err)
	}
	return l, nil
}
