// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/arena-foundation/arena/cmd/arena/cli"
	"github.com/arena-foundation/arena/lib/schema/session"
	"github.com/arena-foundation/arena/lib/watchui"
)

type watchParams struct {
	cli.SessionConnection
	LogOutput string `json:"-" flag:"log-output" desc:"write JSON log records to this file"`
}

func watchCommand() *cli.Command {
	var params watchParams

	return &cli.Command{
		Name:    "watch",
		Summary: "Live dashboard of the session registry",
		Description: `Launch an interactive terminal dashboard showing the live session
registry: per-category queue depths, session counts by lifecycle
phase, and a scrolling feed of orchestrator events as the driver
matches, executors acknowledge and claim, and results come in.

The dashboard subscribes to the service's watch stream. It loads a
snapshot of the current registry, then follows live events; on
disconnect it retries with backoff and reloads the snapshot, so it
can be left running across service restarts.

Background log records would corrupt the alt-screen display, so they
are discarded unless --log-output names a file to capture them.`,
		Usage: "arena watch [flags]",
		Examples: []cli.Example{
			{
				Description: "Watch the live session registry",
				Command:     "arena watch",
			},
			{
				Description: "Capture stream diagnostics while watching",
				Command:     "arena watch --log-output /tmp/arena-watch.log",
			},
		},
		Params:         func() any { return &params },
		Annotations:    cli.ReadOnly(),
		RequiredGrants: []string{session.ActionWatch},
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}

			client, err := params.Connect()
			if err != nil {
				return err
			}

			// The source reconnects in the background for as long as the
			// dashboard runs; its log records go to the file sink or
			// nowhere, never to the terminal the TUI owns.
			logger := slog.New(slog.NewTextHandler(io.Discard, nil))
			if params.LogOutput != "" {
				file, err := os.Create(params.LogOutput)
				if err != nil {
					return cli.Validation("cannot open log file %s: %w", params.LogOutput, err)
				}
				defer file.Close()
				logger = slog.New(slog.NewJSONHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug}))
			}

			source := watchui.NewSource(client, logger)
			defer source.Close()

			model := watchui.NewModel(source)
			program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseAllMotion())
			_, err = program.Run()
			return err
		},
	}
}
