// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Environment != Development {
		t.Errorf("expected environment=development, got %s", cfg.Environment)
	}

	if cfg.Service.SocketPath != "/run/arena/session.sock" {
		t.Errorf("expected socket_path=/run/arena/session.sock, got %s", cfg.Service.SocketPath)
	}

	if cfg.Matching.GroupSize != 2 {
		t.Errorf("expected group_size=2, got %d", cfg.Matching.GroupSize)
	}

	if cfg.Matching.QueueCapacity != 64 {
		t.Errorf("expected queue_capacity=64, got %d", cfg.Matching.QueueCapacity)
	}

	if !cfg.Archive.Enabled {
		t.Error("expected archive.enabled=true by default")
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoad_RequiresArenaConfig(t *testing.T) {
	// Save and restore ARENA_CONFIG.
	origConfig := os.Getenv("ARENA_CONFIG")
	defer os.Setenv("ARENA_CONFIG", origConfig)

	// Unset ARENA_CONFIG - Load() should fail.
	os.Unsetenv("ARENA_CONFIG")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when ARENA_CONFIG not set, got nil")
	}

	expectedMsg := "ARENA_CONFIG environment variable not set"
	if err.Error()[:len(expectedMsg)] != expectedMsg {
		t.Errorf("expected error message to start with %q, got %q", expectedMsg, err.Error())
	}
}

func TestLoad_WithArenaConfig(t *testing.T) {
	// Save and restore ARENA_CONFIG.
	origConfig := os.Getenv("ARENA_CONFIG")
	defer os.Setenv("ARENA_CONFIG", origConfig)

	// Create temp config file.
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "arena.yaml")

	configContent := `
environment: staging
paths:
  root: /test/root
service:
  socket_path: /test/session.sock
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	// Set ARENA_CONFIG and load.
	os.Setenv("ARENA_CONFIG", configPath)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Environment != Staging {
		t.Errorf("expected environment=staging, got %s", cfg.Environment)
	}

	if cfg.Paths.Root != "/test/root" {
		t.Errorf("expected root=/test/root, got %s", cfg.Paths.Root)
	}
}

func TestLoadFile(t *testing.T) {
	// Create temp config file.
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "arena.yaml")

	configContent := `
environment: staging

paths:
  root: /custom/root

service:
  socket_path: /custom/session.sock
  admin: ada.lovelace
  driver_interval: 5s
  rules_files:
    - /etc/arena/rules/ranked.jsonc

matching:
  group_size: 4
  queue_capacity: 16

archive:
  enabled: false
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Environment != Staging {
		t.Errorf("expected environment=staging, got %s", cfg.Environment)
	}

	if cfg.Paths.Root != "/custom/root" {
		t.Errorf("expected root=/custom/root, got %s", cfg.Paths.Root)
	}

	if cfg.Service.SocketPath != "/custom/session.sock" {
		t.Errorf("expected socket_path=/custom/session.sock, got %s", cfg.Service.SocketPath)
	}

	if cfg.Service.Admin != "ada.lovelace" {
		t.Errorf("expected admin=ada.lovelace, got %s", cfg.Service.Admin)
	}

	if cfg.Service.DriverInterval != "5s" {
		t.Errorf("expected driver_interval=5s, got %s", cfg.Service.DriverInterval)
	}

	if len(cfg.Service.RulesFiles) != 1 || cfg.Service.RulesFiles[0] != "/etc/arena/rules/ranked.jsonc" {
		t.Errorf("expected one rules file, got %v", cfg.Service.RulesFiles)
	}

	if cfg.Matching.GroupSize != 4 {
		t.Errorf("expected group_size=4, got %d", cfg.Matching.GroupSize)
	}

	if cfg.Matching.QueueCapacity != 16 {
		t.Errorf("expected queue_capacity=16, got %d", cfg.Matching.QueueCapacity)
	}

	if cfg.Archive.Enabled {
		t.Error("expected archive.enabled=false")
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "arena.yaml")

	configContent := `
environment: production

paths:
  root: /default/root

service:
  socket_path: /default/session.sock

matching:
  group_size: 2

archive:
  enabled: true

production:
  paths:
    root: /prod/root
  service:
    socket_path: /prod/session.sock
  matching:
    group_size: 4
  archive:
    enabled: false
    sweep_cycles: 30
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	// Production overrides should be applied.
	if cfg.Paths.Root != "/prod/root" {
		t.Errorf("expected root=/prod/root, got %s", cfg.Paths.Root)
	}

	if cfg.Service.SocketPath != "/prod/session.sock" {
		t.Errorf("expected socket_path=/prod/session.sock, got %s", cfg.Service.SocketPath)
	}

	if cfg.Matching.GroupSize != 4 {
		t.Errorf("expected group_size=4 from production override, got %d", cfg.Matching.GroupSize)
	}

	if cfg.Archive.Enabled {
		t.Error("expected archive.enabled=false from production override")
	}

	if cfg.Archive.SweepCycles != 30 {
		t.Errorf("expected sweep_cycles=30 from production override, got %d", cfg.Archive.SweepCycles)
	}
}

func TestOverridesForOtherEnvironmentIgnored(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "arena.yaml")

	configContent := `
environment: development

paths:
  root: /dev/root

production:
  paths:
    root: /prod/root
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Paths.Root != "/dev/root" {
		t.Errorf("production override applied in development: root=%s", cfg.Paths.Root)
	}
}

func TestEnvVarsDoNotOverride(t *testing.T) {
	// Verify that environment variables do NOT override config file values.
	// The config file is the single source of truth for deterministic configuration.

	// Save and restore env vars.
	origRoot := os.Getenv("ARENA_ROOT")
	origSocket := os.Getenv("ARENA_SOCKET")
	origEnv := os.Getenv("ARENA_ENVIRONMENT")
	defer func() {
		os.Setenv("ARENA_ROOT", origRoot)
		os.Setenv("ARENA_SOCKET", origSocket)
		os.Setenv("ARENA_ENVIRONMENT", origEnv)
	}()

	// Set env vars that should be ignored.
	os.Setenv("ARENA_ROOT", "/env/root")
	os.Setenv("ARENA_SOCKET", "/env/session.sock")
	os.Setenv("ARENA_ENVIRONMENT", "staging")

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "arena.yaml")

	configContent := `
environment: development
paths:
  root: /file/root
service:
  socket_path: /file/session.sock
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	// File values should be used, NOT env vars.
	if cfg.Environment != Development {
		t.Errorf("expected environment=development from file, got %s (env vars should not override)", cfg.Environment)
	}

	if cfg.Paths.Root != "/file/root" {
		t.Errorf("expected root=/file/root from file, got %s (env vars should not override)", cfg.Paths.Root)
	}

	if cfg.Service.SocketPath != "/file/session.sock" {
		t.Errorf("expected socket_path=/file/session.sock from file, got %s (env vars should not override)", cfg.Service.SocketPath)
	}
}

func TestExpandVars(t *testing.T) {
	tests := []struct {
		input    string
		vars     map[string]string
		expected string
	}{
		{
			input:    "${HOME}/arena",
			vars:     map[string]string{"HOME": "/home/user"},
			expected: "/home/user/arena",
		},
		{
			input:    "${MISSING:-default}",
			vars:     map[string]string{},
			expected: "default",
		},
		{
			input:    "${PRESENT:-default}",
			vars:     map[string]string{"PRESENT": "value"},
			expected: "value",
		},
		{
			input:    "${A}/${B}",
			vars:     map[string]string{"A": "first", "B": "second"},
			expected: "first/second",
		},
		{
			input:    "no variables here",
			vars:     map[string]string{},
			expected: "no variables here",
		},
	}

	for _, tt := range tests {
		result := expandVars(tt.input, tt.vars)
		if result != tt.expected {
			t.Errorf("expandVars(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestExpandArenaRoot(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "arena.yaml")

	configContent := `
environment: development
paths:
  root: /data/arena
  state: ${ARENA_ROOT}/state
  archives: ${ARENA_ROOT}/archives
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Paths.State != "/data/arena/state" {
		t.Errorf("expected state=/data/arena/state, got %s", cfg.Paths.State)
	}
	if cfg.Paths.Archives != "/data/arena/archives" {
		t.Errorf("expected archives=/data/arena/archives, got %s", cfg.Paths.Archives)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name: "invalid environment",
			modify: func(c *Config) {
				c.Environment = "invalid"
			},
			wantErr: true,
		},
		{
			name: "empty root path",
			modify: func(c *Config) {
				c.Paths.Root = ""
			},
			wantErr: true,
		},
		{
			name: "empty socket path",
			modify: func(c *Config) {
				c.Service.SocketPath = ""
			},
			wantErr: true,
		},
		{
			name: "bad driver interval",
			modify: func(c *Config) {
				c.Service.DriverInterval = "not-a-duration"
			},
			wantErr: true,
		},
		{
			name: "negative driver interval",
			modify: func(c *Config) {
				c.Service.DriverInterval = "-2s"
			},
			wantErr: true,
		},
		{
			name: "invalid admin handle",
			modify: func(c *Config) {
				c.Service.Admin = "Not A Handle!"
			},
			wantErr: true,
		},
		{
			name: "valid admin handle",
			modify: func(c *Config) {
				c.Service.Admin = "ada.lovelace"
			},
			wantErr: false,
		},
		{
			name: "group size too small",
			modify: func(c *Config) {
				c.Matching.GroupSize = 1
			},
			wantErr: true,
		},
		{
			name: "zero queue capacity",
			modify: func(c *Config) {
				c.Matching.QueueCapacity = 0
			},
			wantErr: true,
		},
		{
			name: "negative sweep cycles",
			modify: func(c *Config) {
				c.Archive.SweepCycles = -1
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEnsurePaths(t *testing.T) {
	tmpDir := t.TempDir()

	cfg := Default()
	cfg.Paths.Root = filepath.Join(tmpDir, "arena")
	cfg.Paths.State = filepath.Join(cfg.Paths.Root, "state")
	cfg.Paths.Archives = filepath.Join(cfg.Paths.Root, "archives")

	if err := cfg.EnsurePaths(); err != nil {
		t.Fatalf("EnsurePaths failed: %v", err)
	}

	// Verify directories were created.
	for _, path := range []string{cfg.Paths.Root, cfg.Paths.State, cfg.Paths.Archives} {
		info, err := os.Stat(path)
		if err != nil {
			t.Errorf("path %s not created: %v", path, err)
			continue
		}
		if !info.IsDir() {
			t.Errorf("path %s is not a directory", path)
		}
	}
}
