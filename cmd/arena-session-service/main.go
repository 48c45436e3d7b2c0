// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/arena-foundation/arena/lib/archive"
	"github.com/arena-foundation/arena/lib/clock"
	"github.com/arena-foundation/arena/lib/config"
	"github.com/arena-foundation/arena/lib/entropy"
	"github.com/arena-foundation/arena/lib/matchpool"
	"github.com/arena-foundation/arena/lib/ref"
	"github.com/arena-foundation/arena/lib/rulesdef"
	"github.com/arena-foundation/arena/lib/service"
	"github.com/arena-foundation/arena/lib/servicetoken"
	"github.com/arena-foundation/arena/lib/version"
)

// databaseFile is the session database name under paths.state.
const databaseFile = "sessions.db"

// archiveKeyFile is the default archive key name under paths.state,
// used when archive.key_file is not configured.
const archiveKeyFile = "archive-key"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath  string
		showVersion bool
	)
	flag.StringVar(&configPath, "config", "", "path to arena.yaml (default: $ARENA_CONFIG)")
	flag.BoolVar(&showVersion, "version", false, "print version information and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("arena-session-service %s\n", version.Info())
		return nil
	}

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := cfg.EnsurePaths(); err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clk := clock.Real()

	store, err := OpenStore(StoreConfig{
		Path:   filepath.Join(cfg.Paths.State, databaseFile),
		Logger: logger,
	})
	if err != nil {
		return err
	}
	defer store.Close()

	// The admin identity is first-write-wins: the store refuses to
	// overwrite an existing admin, so a changed config value fails
	// here rather than silently rotating the admin.
	if cfg.Service.Admin != "" {
		admin, err := ref.ParseAccountID(cfg.Service.Admin)
		if err != nil {
			return fmt.Errorf("service.admin: %w", err)
		}
		if err := store.SetAdmin(ctx, admin); err != nil {
			return err
		}
	}

	// Seed per-category rules from the configured files. Seeding
	// overwrites: the files are the source of truth for categories
	// they name, and set-rules covers everything else.
	for _, path := range cfg.Service.RulesFiles {
		def, err := rulesdef.ReadFile(path)
		if err != nil {
			return err
		}
		rules, err := storedRules(def, cfg.Matching.GroupSize)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if err := store.SaveRuleSet(ctx, rules); err != nil {
			return err
		}
		logger.Info("rules loaded", "category", rules.Category.String(), "file", path)
	}

	// The service only verifies tokens; minting happens in the CLI,
	// which reads the private key file from the state directory.
	publicKey, _, generatedKeypair, err := servicetoken.LoadOrGenerateKeypair(cfg.Paths.State)
	if err != nil {
		return fmt.Errorf("token signing keypair: %w", err)
	}
	if generatedKeypair {
		logger.Info("token signing keypair generated", "dir", cfg.Paths.State)
	}

	var arch *archiver
	if cfg.Archive.Enabled {
		keyPath := cfg.Archive.KeyFile
		if keyPath == "" {
			keyPath = filepath.Join(cfg.Paths.State, archiveKeyFile)
		}
		masterKey, generatedKey, err := archive.LoadOrGenerateKeyFile(keyPath)
		if err != nil {
			return err
		}
		keys, err := archive.NewKeySet(masterKey)
		if err != nil {
			masterKey.Close()
			return err
		}
		defer keys.Close()
		if generatedKey {
			logger.Info("archive key generated", "path", keyPath)
		}
		arch = newArchiver(keys, cfg.Paths.Archives, logger)
	}

	orchestrator, err := NewOrchestrator(ctx, OrchestratorConfig{
		Store:         store,
		Pool:          matchpool.NewPool(cfg.Matching.GroupSize),
		Entropy:       entropy.System(),
		Logger:        logger,
		Archiver:      arch,
		QueueCapacity: cfg.Matching.QueueCapacity,
	})
	if err != nil {
		return err
	}

	sessionService := &SessionService{
		orchestrator: orchestrator,
		store:        store,
		clock:        clk,
		logger:       logger,
		startedAt:    clk.Now(),
		groupSize:    cfg.Matching.GroupSize,
	}

	authConfig := &service.AuthConfig{
		PublicKey: publicKey,
		Audience:  serviceName,
		Blacklist: servicetoken.NewBlacklist(),
		Clock:     clk,
	}

	server := service.NewSocketServer(cfg.Service.SocketPath, logger, authConfig)
	sessionService.registerActions(server)
	server.RegisterRevocationHandler()

	socketDone := make(chan error, 1)
	go func() {
		socketDone <- server.Serve(ctx)
	}()

	// DriverInterval already passed Validate, so this cannot fail.
	interval, err := time.ParseDuration(cfg.Service.DriverInterval)
	if err != nil {
		return fmt.Errorf("service.driver_interval: %w", err)
	}
	sweepCycles := 0
	if arch != nil {
		sweepCycles = cfg.Archive.SweepCycles
	}
	cycleDriver := &driver{
		orchestrator: orchestrator,
		clock:        clk,
		logger:       logger,
		interval:     interval,
		sweepCycles:  sweepCycles,
	}
	go cycleDriver.Run(ctx)

	logger.Info("session service running",
		"socket", cfg.Service.SocketPath,
		"interval", interval.String(),
		"group_size", cfg.Matching.GroupSize,
		"cycle", orchestrator.Cycle(),
	)

	<-ctx.Done()
	logger.Info("shutting down")

	if err := <-socketDone; err != nil {
		logger.Error("socket server error", "error", err)
	}
	return nil
}
