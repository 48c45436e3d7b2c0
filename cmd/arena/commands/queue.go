// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/arena-foundation/arena/cmd/arena/cli"
	"github.com/arena-foundation/arena/lib/schema/session"
)

func queueCommand() *cli.Command {
	return &cli.Command{
		Name:    "queue",
		Summary: "Join the matching pool and inspect category queues",
		Description: `Manage the matchmaking side of the service. "join" admits an
account into the matching pool; the driver forms groups from the
pool on its next cycles and queues the resulting sessions per
category. "list" shows a category queue's entries in head-first
order, which is the order an executor must acknowledge them in.`,
		Subcommands: []*cli.Command{
			queueJoinCommand(),
			queueListCommand(),
		},
		Examples: []cli.Example{
			{
				Description: "Queue yourself (the token subject)",
				Command:     "arena queue join",
			},
			{
				Description: "Show the g1v1 queue",
				Command:     "arena queue list --category g1v1",
			},
		},
	}
}

// --- join ---

type queueJoinParams struct {
	cli.SessionConnection
	cli.JSONOutput
	Account string `json:"account" flag:"account,a" desc:"account to queue (defaults to the token subject)"`
}

func queueJoinCommand() *cli.Command {
	var params queueJoinParams

	return &cli.Command{
		Name:    "join",
		Summary: "Admit an account into the matching pool",
		Description: `Add an account to the matching pool. The account waits in the pool
until the driver gathers enough compatible participants to form a
group; the group then becomes a waiting session in its category
queue.

By default the token's subject queues itself. Passing --account
queues someone else, which requires a token grant whose target
patterns cover that account. Queueing an account that is already
pooled or already in a live session is an error.`,
		Usage: "arena queue join [flags]",
		Examples: []cli.Example{
			{
				Description: "Queue yourself",
				Command:     "arena queue join",
			},
			{
				Description: "Queue another account (requires a matching grant target)",
				Command:     "arena queue join --account ada.lovelace",
			},
		},
		Params:         func() any { return &params },
		Annotations:    cli.Create(),
		RequiredGrants: []string{session.ActionQueue},
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			client, err := params.Connect()
			if err != nil {
				return err
			}

			ctx, cancel := cli.CallContext(ctx)
			defer cancel()

			fields := map[string]any{}
			if params.Account != "" {
				fields["account"] = params.Account
			}

			var result queueResult
			if err := client.Call(ctx, "queue", fields, &result); err != nil {
				return err
			}

			if done, err := params.EmitJSON(result); done {
				return err
			}

			fmt.Fprintf(os.Stderr, "%s queued for matching\n", result.Account)
			return nil
		},
	}
}

// --- list ---

type queueListParams struct {
	cli.SessionConnection
	cli.JSONOutput
	Category string `json:"category" flag:"category,c" desc:"game category (g<game>v<version>)" required:"true"`
}

func queueListCommand() *cli.Command {
	var params queueListParams

	return &cli.Command{
		Name:    "list",
		Summary: "List a category queue's sessions in head-first order",
		Description: `Show the waiting sessions in one category queue, head first. The
order shown is the acknowledgment contract: an executor's batch must
name a prefix of exactly this order.

The category is required because queues exist per category; "arena
status" shows which categories currently have depth.`,
		Usage: "arena queue list --category CATEGORY [flags]",
		Examples: []cli.Example{
			{
				Description: "Show the g1v1 queue",
				Command:     "arena queue list --category g1v1",
			},
			{
				Description: "Feed the head of the queue to acknowledge",
				Command:     "arena queue list --category g1v1 --json | jq -r '.entries[0]'",
			},
		},
		Params:         func() any { return &params },
		Annotations:    cli.ReadOnly(),
		RequiredGrants: []string{session.ActionRead},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if params.Category == "" {
				return cli.Validation("--category is required")
			}

			client, err := params.Connect()
			if err != nil {
				return err
			}

			ctx, cancel := cli.CallContext(ctx)
			defer cancel()

			fields := map[string]any{"category": params.Category}

			var result queueEntriesResult
			if err := client.Call(ctx, "queue-entries", fields, &result); err != nil {
				return err
			}

			if done, err := params.EmitJSON(result); done {
				return err
			}

			if len(result.Entries) == 0 {
				logger.Info("queue is empty",
					"category", result.Category.String(),
					"capacity", result.Capacity,
				)
				return nil
			}

			fmt.Printf("%s: %d of %d\n", result.Category, len(result.Entries), result.Capacity)
			writer := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintf(writer, "POS\tSESSION\n")
			for position, id := range result.Entries {
				fmt.Fprintf(writer, "%d\t%s\n", position+1, id)
			}
			return writer.Flush()
		},
	}
}
