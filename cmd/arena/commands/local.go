// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"os"
	"path/filepath"

	"github.com/arena-foundation/arena/cmd/arena/cli"
	"github.com/arena-foundation/arena/lib/config"
)

// stateDirFlags locates the service state directory for commands that
// read key material from disk instead of talking to the socket (token
// mint, key backup/restore, archive inspect). Resolution order:
// --state-dir, --config, the ARENA_CONFIG environment variable, then
// the built-in defaults.
type stateDirFlags struct {
	ConfigFile string `json:"-" flag:"config"    desc:"path to an arena.yaml config file"`
	StateDir   string `json:"-" flag:"state-dir" desc:"service state directory (overrides config)"`
}

func (f *stateDirFlags) config() (*config.Config, error) {
	if f.ConfigFile != "" {
		cfg, err := config.LoadFile(f.ConfigFile)
		if err != nil {
			return nil, cli.Validation("loading config %s: %w", f.ConfigFile, err)
		}
		return cfg, nil
	}
	if os.Getenv("ARENA_CONFIG") != "" {
		cfg, err := config.Load()
		if err != nil {
			return nil, cli.Validation("loading config: %w", err)
		}
		return cfg, nil
	}
	return config.Default(), nil
}

// resolveStateDir returns the directory holding the token signing
// keypair and, unless overridden, the archive key.
func (f *stateDirFlags) resolveStateDir() (string, error) {
	if f.StateDir != "" {
		return f.StateDir, nil
	}
	cfg, err := f.config()
	if err != nil {
		return "", err
	}
	return cfg.Paths.State, nil
}

// resolveArchiveKeyPath mirrors the service's key lookup: an explicit
// key_file in the config wins, otherwise the key lives in the state
// directory.
func (f *stateDirFlags) resolveArchiveKeyPath() (string, error) {
	if f.StateDir != "" {
		return filepath.Join(f.StateDir, "archive-key"), nil
	}
	cfg, err := f.config()
	if err != nil {
		return "", err
	}
	if cfg.Archive.KeyFile != "" {
		return cfg.Archive.KeyFile, nil
	}
	return filepath.Join(cfg.Paths.State, "archive-key"), nil
}
