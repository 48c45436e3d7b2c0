// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/arena-foundation/arena/cmd/arena/cli"
	"github.com/arena-foundation/arena/lib/version"
)

// Root builds and returns the complete arena CLI command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "arena",
		Description: `Arena: matchmaking and game-session orchestration.

Operate the session service: queue accounts for matching, walk
sessions through their lifecycle, manage category rules, and watch
the live session registry. The token, key, and archive groups manage
the service's signing keys and compacted archives locally.`,
		Subcommands: []*cli.Command{
			statusCommand(),
			queueCommand(),
			sessionCommand(),
			acknowledgeCommand(),
			readyCommand(),
			finishCommand(),
			dropCommand(),
			rulesCommand(),
			compactCommand(),
			watchCommand(),
			tokenCommand(),
			keyCommand(),
			archiveCommand(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(_ context.Context, args []string, _ *slog.Logger) error {
					fmt.Printf("arena %s\n", version.Full())
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "Check the session service (start here when lost)",
				Command:     "arena status",
			},
			{
				Description: "Queue yourself for matching",
				Command:     "arena queue join",
			},
			{
				Description: "Claim the two sessions at the head of a queue",
				Command:     "arena acknowledge --category g1v1 <id> <id>",
			},
			{
				Description: "Watch the live session registry",
				Command:     "arena watch",
			},
			{
				Description: "Mint an executor token",
				Command:     "arena token mint --subject executor-7 --action 'session/**' --output exec.token",
			},
		},
	}
}
