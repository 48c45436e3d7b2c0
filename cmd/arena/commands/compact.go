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

type compactParams struct {
	cli.SessionConnection
	cli.JSONOutput
	ThroughCycle int64 `json:"through_cycle" flag:"through-cycle" desc:"archive sessions finished at or before this cycle (0 = everything finished so far)"`
}

func compactCommand() *cli.Command {
	var params compactParams

	return &cli.Command{
		Name:    "compact",
		Summary: "Archive finished sessions and delete them from the registry",
		Description: `Move finished sessions out of the live registry into a sealed
archive file. The archive is written and fsynced before the registry
rows are deleted, so a crash between the two duplicates records in
the next archive rather than losing them.

By default everything finished so far is archived; --through-cycle
limits the pass to sessions whose finish cycle is at or before the
given driver cycle. The resulting file is named by its content hash
and readable with "arena archive inspect".`,
		Usage: "arena compact [flags]",
		Examples: []cli.Example{
			{
				Description: "Archive all finished sessions",
				Command:     "arena compact",
			},
			{
				Description: "Archive only sessions finished by cycle 4000",
				Command:     "arena compact --through-cycle 4000",
			},
		},
		Params:         func() any { return &params },
		Annotations:    cli.Destructive(),
		RequiredGrants: []string{session.ActionCompact},
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			if params.ThroughCycle < 0 {
				return cli.Validation("--through-cycle must not be negative")
			}

			client, err := params.Connect()
			if err != nil {
				return err
			}

			ctx, cancel := cli.CallContext(ctx)
			defer cancel()

			fields := map[string]any{}
			if params.ThroughCycle > 0 {
				fields["through_cycle"] = uint64(params.ThroughCycle)
			}

			var result compactResult
			if err := client.Call(ctx, "compact", fields, &result); err != nil {
				return err
			}

			if done, err := params.EmitJSON(result); done {
				return err
			}

			if result.Archived == 0 {
				fmt.Fprintf(os.Stderr, "nothing to archive\n")
				return nil
			}
			fmt.Fprintf(os.Stderr, "%d sessions archived\n", result.Archived)
			fmt.Printf("%s\n", result.Path)
			return nil
		},
	}
}
