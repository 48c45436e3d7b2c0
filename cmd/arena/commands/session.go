// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/arena-foundation/arena/cmd/arena/cli"
	"github.com/arena-foundation/arena/lib/schema/session"
)

type sessionParams struct {
	cli.SessionConnection
	cli.JSONOutput
	Session string `json:"session" desc:"session identifier" required:"true"`
}

func sessionCommand() *cli.Command {
	var params sessionParams

	return &cli.Command{
		Name:    "session",
		Summary: "Show one session record",
		Description: `Fetch a session record from the registry: its category, lifecycle
state, matched players in seat order, bound executor, and the driver
cycle of each lifecycle transition.

Finished sessions disappear from the registry once "arena compact"
archives them; after that, read them from the archive file with
"arena archive inspect".`,
		Usage: "arena session <session-id> [flags]",
		Examples: []cli.Example{
			{
				Description: "Show a session",
				Command:     "arena session 9f3ac2...",
			},
			{
				Description: "Extract the player list",
				Command:     "arena session 9f3ac2... --json | jq -r '.players[]'",
			},
		},
		Params:         func() any { return &params },
		Annotations:    cli.ReadOnly(),
		RequiredGrants: []string{session.ActionRead},
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			if len(args) == 1 {
				params.Session = args[0]
			} else if len(args) > 1 {
				return cli.Validation("expected 1 positional argument (session ID), got %d", len(args))
			}
			if params.Session == "" {
				return cli.Validation("session ID is required\n\nUsage: arena session <session-id>")
			}

			client, err := params.Connect()
			if err != nil {
				return err
			}

			ctx, cancel := cli.CallContext(ctx)
			defer cancel()

			fields := map[string]any{"session": params.Session}

			var record session.Record
			if err := client.Call(ctx, "session", fields, &record); err != nil {
				return err
			}

			if done, err := params.EmitJSON(record); done {
				return err
			}

			players := make([]string, len(record.Players))
			for i, player := range record.Players {
				players[i] = player.String()
			}

			fmt.Printf("Session:   %s\n", record.ID)
			fmt.Printf("Category:  %s\n", record.Category)
			fmt.Printf("State:     %s\n", formatState(record.State))
			fmt.Printf("Players:   %s\n", strings.Join(players, ", "))
			if !record.Executor.IsZero() {
				fmt.Printf("Executor:  %s\n", record.Executor)
			}
			fmt.Printf("Timeline:  %s\n", formatTimeline(record))
			return nil
		},
	}
}
