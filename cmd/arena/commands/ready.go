// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/arena-foundation/arena/cmd/arena/cli"
	"github.com/arena-foundation/arena/lib/schema/session"
)

type readyParams struct {
	cli.SessionConnection
	cli.JSONOutput
	Session string `json:"session" desc:"session identifier" required:"true"`
}

func readyCommand() *cli.Command {
	var params readyParams

	return &cli.Command{
		Name:    "ready",
		Summary: "Claim an accepted session and mark it running",
		Description: `Bind the token's subject as the session's executor and transition
the session to running. There is no precondition on the current
state; claiming again rebinds the executor to the caller, so a
replacement executor can take over a stalled session by readying it
itself.`,
		Usage: "arena ready <session-id> [flags]",
		Examples: []cli.Example{
			{
				Description: "Claim a session for execution",
				Command:     "arena ready 9f3ac2...",
			},
		},
		Params:         func() any { return &params },
		Annotations:    cli.Idempotent(),
		RequiredGrants: []string{session.ActionReady},
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			if len(args) == 1 {
				params.Session = args[0]
			} else if len(args) > 1 {
				return cli.Validation("expected 1 positional argument (session ID), got %d", len(args))
			}
			if params.Session == "" {
				return cli.Validation("session ID is required\n\nUsage: arena ready <session-id>")
			}

			client, err := params.Connect()
			if err != nil {
				return err
			}

			ctx, cancel := cli.CallContext(ctx)
			defer cancel()

			fields := map[string]any{"session": params.Session}

			var result readyResult
			if err := client.Call(ctx, "ready", fields, &result); err != nil {
				return err
			}

			if done, err := params.EmitJSON(result); done {
				return err
			}

			fmt.Fprintf(os.Stderr, "%s running (executor %s)\n", result.Session.Short(), result.Executor)
			return nil
		},
	}
}
