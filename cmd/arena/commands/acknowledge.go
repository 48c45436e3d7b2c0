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

type acknowledgeParams struct {
	cli.SessionConnection
	cli.JSONOutput
	Category string `json:"category" flag:"category,c" desc:"game category (g<game>v<version>)" required:"true"`
}

func acknowledgeCommand() *cli.Command {
	var params acknowledgeParams

	return &cli.Command{
		Name:    "acknowledge",
		Summary: "Claim sessions off the head of a category queue",
		Description: fmt.Sprintf(`Advance waiting sessions to accepted. The positional session IDs
must name a prefix of the queue in exact head-first order — the same
order "arena queue list" prints. A batch names at most %d sessions.

Acknowledgment is all-or-error with a committed prefix: if an
identifier partway through the batch does not match the queue head,
the sessions before the mismatch stay acknowledged and the error
reports how many committed. Re-run "arena queue list" and continue
from the new head.`, session.MaxAcknowledgeBatch),
		Usage: "arena acknowledge --category CATEGORY <session-id>... [flags]",
		Examples: []cli.Example{
			{
				Description: "Claim the first two sessions in g1v1",
				Command:     "arena acknowledge --category g1v1 <id> <id>",
			},
			{
				Description: "Claim the whole visible queue",
				Command:     "arena queue list --category g1v1 --json | jq -r '.entries[]' | xargs arena acknowledge --category g1v1",
			},
		},
		Params:         func() any { return &params },
		Annotations:    cli.Create(),
		RequiredGrants: []string{session.ActionAcknowledge},
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			if params.Category == "" {
				return cli.Validation("--category is required")
			}
			if len(args) == 0 {
				return cli.Validation("at least one session ID is required\n\nUsage: arena acknowledge --category CATEGORY <session-id>...")
			}
			if len(args) > session.MaxAcknowledgeBatch {
				return cli.Validation("%d session IDs exceeds the batch maximum of %d",
					len(args), session.MaxAcknowledgeBatch)
			}

			client, err := params.Connect()
			if err != nil {
				return err
			}

			ctx, cancel := cli.CallContext(ctx)
			defer cancel()

			fields := map[string]any{
				"category": params.Category,
				"sessions": args,
			}

			var result acknowledgeResult
			if err := client.Call(ctx, "acknowledge", fields, &result); err != nil {
				return err
			}

			if done, err := params.EmitJSON(result); done {
				return err
			}

			fmt.Fprintf(os.Stderr, "%d sessions acknowledged in %s\n", result.Acknowledged, params.Category)
			return nil
		},
	}
}
