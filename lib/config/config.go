// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/arena-foundation/arena/lib/ref"
)

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local development machines.
	Development Environment = "development"
	// Staging is for pre-production testing.
	Staging Environment = "staging"
	// Production is for production deployments.
	Production Environment = "production"
)

// Config is the master configuration for Arena.
type Config struct {
	// Environment identifies the deployment type (development, staging, production).
	Environment Environment `yaml:"environment"`

	// Paths configures directory locations.
	Paths PathsConfig `yaml:"paths"`

	// Service configures the session service.
	Service ServiceConfig `yaml:"service"`

	// Matching configures the default matching pool and the
	// per-category session queues.
	Matching MatchingConfig `yaml:"matching"`

	// Archive configures compaction of finished sessions.
	Archive ArchiveConfig `yaml:"archive"`

	// EnvironmentOverrides contains per-environment overrides.
	// These are applied after the base config is loaded.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Staging     *ConfigOverrides `yaml:"staging,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per environment.
type ConfigOverrides struct {
	Paths    *PathsConfig      `yaml:"paths,omitempty"`
	Service  *ServiceConfig    `yaml:"service,omitempty"`
	Matching *MatchingConfig   `yaml:"matching,omitempty"`
	Archive  *ArchiveOverrides `yaml:"archive,omitempty"`
}

// PathsConfig configures directory locations.
type PathsConfig struct {
	// Root is the base directory for Arena data.
	Root string `yaml:"root"`

	// State is where runtime state is stored: the session database,
	// the token signing keypair, and the archive key.
	State string `yaml:"state"`

	// Archives is where compacted session archives are written.
	Archives string `yaml:"archives"`
}

// ServiceConfig configures the session service.
type ServiceConfig struct {
	// SocketPath is the Unix socket path for the session service.
	// Default: /run/arena/session.sock
	SocketPath string `yaml:"socket_path"`

	// Admin is the account handle recorded as the admin identity on
	// first boot. The store refuses to overwrite an existing admin,
	// so changing this after first boot has no effect.
	Admin string `yaml:"admin"`

	// DriverInterval is how often the cycle driver runs the match
	// loop, as a Go duration string. Default: 2s
	DriverInterval string `yaml:"driver_interval"`

	// RulesFiles lists JSONC rules documents loaded at startup, one
	// per game category. Rules are stored and served, never enforced.
	RulesFiles []string `yaml:"rules_files"`
}

// MatchingConfig configures the default matching pool and queues.
type MatchingConfig struct {
	// GroupSize is how many participants the default pool gathers
	// into one session. Default: 2
	GroupSize int `yaml:"group_size"`

	// QueueCapacity bounds each category's session queue. A full
	// queue rejects new sessions. Default: 64
	QueueCapacity int `yaml:"queue_capacity"`
}

// ArchiveConfig configures compaction of finished sessions.
type ArchiveConfig struct {
	// Enabled controls whether the compact operation (and the sweep,
	// if configured) is available. Default: true
	Enabled bool `yaml:"enabled"`

	// SweepCycles is the number of driver cycles between automatic
	// compaction sweeps. Zero disables the sweep; compaction then
	// happens only through the explicit compact action. Default: 0
	SweepCycles int `yaml:"sweep_cycles"`

	// KeyFile is the path to the 32-byte archive key. Empty means
	// <paths.state>/archive-key, generated on first use.
	KeyFile string `yaml:"key_file"`
}

// ArchiveOverrides is the per-environment form of ArchiveConfig.
// Enabled is a pointer so an override can distinguish "set to false"
// from "not set".
type ArchiveOverrides struct {
	Enabled     *bool  `yaml:"enabled,omitempty"`
	SweepCycles *int   `yaml:"sweep_cycles,omitempty"`
	KeyFile     string `yaml:"key_file,omitempty"`
}

// Default returns the default configuration.
// These defaults are used as a base before loading the config file.
// They exist primarily to ensure all fields have sensible zero-values,
// not as a fallback - the config file is required.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultRoot := filepath.Join(homeDir, ".cache", "arena")

	return &Config{
		Environment: Development,
		Paths: PathsConfig{
			Root:     defaultRoot,
			State:    filepath.Join(defaultRoot, "state"),
			Archives: filepath.Join(defaultRoot, "archives"),
		},
		Service: ServiceConfig{
			SocketPath:     "/run/arena/session.sock",
			DriverInterval: "2s",
		},
		Matching: MatchingConfig{
			GroupSize:     2,
			QueueCapacity: 64,
		},
		Archive: ArchiveConfig{
			Enabled: true,
		},
	}
}

// Load loads configuration from the ARENA_CONFIG environment variable.
//
// This is the only way to load configuration without an explicit path.
// There are no fallbacks or defaults - if ARENA_CONFIG is not set, this fails.
// This ensures deterministic, auditable configuration with no hidden overrides.
func Load() (*Config, error) {
	configPath := os.Getenv("ARENA_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("ARENA_CONFIG environment variable not set; " +
			"set it to the path of your arena.yaml config file, or use --config flag")
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
//
// The config file is the single source of truth. Environment variables do not
// override config values - this ensures deterministic, auditable configuration.
// The only expansion performed is ${HOME} and similar path variables for portability.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	// Apply environment-specific overrides (development/staging/production sections in the file).
	cfg.applyEnvironmentOverrides()

	// Expand ${HOME} and similar variables in paths for portability.
	cfg.expandVariables()

	return cfg, nil
}

// loadFile loads a single configuration file, merging into the current config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, c)
}

// applyEnvironmentOverrides applies the environment-specific overrides.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
	}

	if overrides == nil {
		return
	}

	if overrides.Paths != nil {
		if overrides.Paths.Root != "" {
			c.Paths.Root = overrides.Paths.Root
		}
		if overrides.Paths.State != "" {
			c.Paths.State = overrides.Paths.State
		}
		if overrides.Paths.Archives != "" {
			c.Paths.Archives = overrides.Paths.Archives
		}
	}

	if overrides.Service != nil {
		if overrides.Service.SocketPath != "" {
			c.Service.SocketPath = overrides.Service.SocketPath
		}
		if overrides.Service.Admin != "" {
			c.Service.Admin = overrides.Service.Admin
		}
		if overrides.Service.DriverInterval != "" {
			c.Service.DriverInterval = overrides.Service.DriverInterval
		}
		if len(overrides.Service.RulesFiles) > 0 {
			c.Service.RulesFiles = overrides.Service.RulesFiles
		}
	}

	if overrides.Matching != nil {
		if overrides.Matching.GroupSize != 0 {
			c.Matching.GroupSize = overrides.Matching.GroupSize
		}
		if overrides.Matching.QueueCapacity != 0 {
			c.Matching.QueueCapacity = overrides.Matching.QueueCapacity
		}
	}

	if overrides.Archive != nil {
		if overrides.Archive.Enabled != nil {
			c.Archive.Enabled = *overrides.Archive.Enabled
		}
		if overrides.Archive.SweepCycles != nil {
			c.Archive.SweepCycles = *overrides.Archive.SweepCycles
		}
		if overrides.Archive.KeyFile != "" {
			c.Archive.KeyFile = overrides.Archive.KeyFile
		}
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"ARENA_ROOT": c.Paths.Root,
		"HOME":       os.Getenv("HOME"),
	}

	c.Paths.Root = expandVars(c.Paths.Root, vars)
	vars["ARENA_ROOT"] = c.Paths.Root // Update for dependent paths.

	c.Paths.State = expandVars(c.Paths.State, vars)
	c.Paths.Archives = expandVars(c.Paths.Archives, vars)
	c.Service.SocketPath = expandVars(c.Service.SocketPath, vars)
	c.Archive.KeyFile = expandVars(c.Archive.KeyFile, vars)
	for i, file := range c.Service.RulesFiles {
		c.Service.RulesFiles[i] = expandVars(file, vars)
	}
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Staging && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if c.Paths.Root == "" {
		errs = append(errs, fmt.Errorf("paths.root is required"))
	}
	if c.Paths.State == "" {
		errs = append(errs, fmt.Errorf("paths.state is required"))
	}

	if c.Service.SocketPath == "" {
		errs = append(errs, fmt.Errorf("service.socket_path is required"))
	}

	if interval, err := time.ParseDuration(c.Service.DriverInterval); err != nil {
		errs = append(errs, fmt.Errorf("service.driver_interval: %w", err))
	} else if interval <= 0 {
		errs = append(errs, fmt.Errorf("service.driver_interval must be positive, got %s", interval))
	}

	if c.Service.Admin != "" {
		if _, err := ref.ParseAccountID(c.Service.Admin); err != nil {
			errs = append(errs, fmt.Errorf("service.admin: %w", err))
		}
	}

	if c.Matching.GroupSize < 2 {
		errs = append(errs, fmt.Errorf("matching.group_size must be at least 2, got %d", c.Matching.GroupSize))
	}
	if c.Matching.QueueCapacity < 1 {
		errs = append(errs, fmt.Errorf("matching.queue_capacity must be at least 1, got %d", c.Matching.QueueCapacity))
	}

	if c.Archive.SweepCycles < 0 {
		errs = append(errs, fmt.Errorf("archive.sweep_cycles must not be negative, got %d", c.Archive.SweepCycles))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// EnsurePaths creates all configured directories if they don't exist.
func (c *Config) EnsurePaths() error {
	paths := []string{
		c.Paths.Root,
		c.Paths.State,
		c.Paths.Archives,
	}

	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
	}

	return nil
}
