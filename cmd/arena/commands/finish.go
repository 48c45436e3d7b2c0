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

type finishParams struct {
	cli.SessionConnection
	cli.JSONOutput
	Session string `json:"session" desc:"session identifier" required:"true"`
	Winner  string `json:"winner" flag:"winner,w" desc:"winning account" required:"true"`
}

func finishCommand() *cli.Command {
	var params finishParams

	return &cli.Command{
		Name:    "finish",
		Summary: "Record a running session's result",
		Description: `Transition a session to finished with its winner. There is no
precondition on the current state, and repeating the command
overwrites the winner — the last report wins. The finished record
stays in the registry until "arena compact" archives it.`,
		Usage: "arena finish <session-id> --winner ACCOUNT [flags]",
		Examples: []cli.Example{
			{
				Description: "Record the winner of a session",
				Command:     "arena finish 9f3ac2... --winner ada.lovelace",
			},
		},
		Params:         func() any { return &params },
		Annotations:    cli.Idempotent(),
		RequiredGrants: []string{session.ActionFinish},
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			if len(args) == 1 {
				params.Session = args[0]
			} else if len(args) > 1 {
				return cli.Validation("expected 1 positional argument (session ID), got %d", len(args))
			}
			if params.Session == "" {
				return cli.Validation("session ID is required\n\nUsage: arena finish <session-id> --winner ACCOUNT")
			}
			if params.Winner == "" {
				return cli.Validation("--winner is required")
			}

			client, err := params.Connect()
			if err != nil {
				return err
			}

			ctx, cancel := cli.CallContext(ctx)
			defer cancel()

			fields := map[string]any{
				"session": params.Session,
				"winner":  params.Winner,
			}

			var result finishResult
			if err := client.Call(ctx, "finish", fields, &result); err != nil {
				return err
			}

			if done, err := params.EmitJSON(result); done {
				return err
			}

			fmt.Fprintf(os.Stderr, "%s finished (winner %s)\n", result.Session.Short(), result.Winner)
			return nil
		},
	}
}
