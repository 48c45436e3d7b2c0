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

type dropParams struct {
	cli.SessionConnection
	cli.JSONOutput
	Session  string `json:"session" desc:"session identifier" required:"true"`
	Category string `json:"category" flag:"category,c" desc:"category whose queue to scrub the session from" required:"true"`
}

func dropCommand() *cli.Command {
	var params dropParams

	return &cli.Command{
		Name:    "drop",
		Summary: "Remove a session from the registry and its queue",
		Description: `Delete a session record and scrub its identifier from the named
category queue, preserving the relative order of the remaining
entries. Use it to clear abandoned sessions that will never be
played.

Dropping a session that does not exist succeeds without touching
anything, so the command is safe to retry.`,
		Usage: "arena drop <session-id> --category CATEGORY [flags]",
		Examples: []cli.Example{
			{
				Description: "Drop an abandoned session",
				Command:     "arena drop 9f3ac2... --category g1v1",
			},
		},
		Params:         func() any { return &params },
		Annotations:    cli.Idempotent(),
		RequiredGrants: []string{session.ActionDrop},
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			if len(args) == 1 {
				params.Session = args[0]
			} else if len(args) > 1 {
				return cli.Validation("expected 1 positional argument (session ID), got %d", len(args))
			}
			if params.Session == "" {
				return cli.Validation("session ID is required\n\nUsage: arena drop <session-id> --category CATEGORY")
			}
			if params.Category == "" {
				return cli.Validation("--category is required")
			}

			client, err := params.Connect()
			if err != nil {
				return err
			}

			ctx, cancel := cli.CallContext(ctx)
			defer cancel()

			fields := map[string]any{
				"session":  params.Session,
				"category": params.Category,
			}

			var result dropResult
			if err := client.Call(ctx, "drop", fields, &result); err != nil {
				return err
			}

			if done, err := params.EmitJSON(result); done {
				return err
			}

			fmt.Fprintf(os.Stderr, "%s dropped\n", result.Session.Short())
			return nil
		},
	}
}
