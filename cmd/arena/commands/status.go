// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/arena-foundation/arena/cmd/arena/cli"
)

type statusParams struct {
	cli.SessionConnection
	cli.JSONOutput
}

func statusCommand() *cli.Command {
	var params statusParams

	return &cli.Command{
		Name:    "status",
		Summary: "Show session service health and registry counts",
		Description: `Display operational health of the session service: uptime, the
current driver cycle, queue depth per category, live session counts
per lifecycle phase, and the matching pool size.

This queries the service's unauthenticated status endpoint, so no
token is needed. Useful as a first check that the socket is up and
the driver is cycling.`,
		Usage: "arena status [flags]",
		Examples: []cli.Example{
			{
				Description: "Show session service status",
				Command:     "arena status",
			},
			{
				Description: "JSON output for scripting",
				Command:     "arena status --json",
			},
		},
		Params:      func() any { return &params },
		Annotations: cli.ReadOnly(),
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			client := params.ConnectUnauthenticated()

			ctx, cancel := cli.CallContext(ctx)
			defer cancel()

			var status statusResult
			if err := client.Call(ctx, "status", nil, &status); err != nil {
				return err
			}

			if done, err := params.EmitJSON(status); done {
				return err
			}

			fmt.Printf("Service:  %s %s\n", status.Service, status.Version)
			fmt.Printf("Uptime:   %s\n", formatUptime(status.UptimeSeconds))
			if status.Admin != "" {
				fmt.Printf("Admin:    %s\n", status.Admin)
			}
			fmt.Printf("Cycle:    %d\n", status.Cycle)
			fmt.Printf("Pool:     %d waiting\n", status.Pool)

			fmt.Printf("\nQueues\n")
			if len(status.Queues) == 0 {
				fmt.Printf("  (empty)\n")
			}
			for _, category := range sortedKeys(status.Queues) {
				fmt.Printf("  %-10s %d\n", category, status.Queues[category])
			}

			fmt.Printf("\nSessions\n")
			if len(status.Sessions) == 0 {
				fmt.Printf("  (none)\n")
			}
			for _, phase := range sortedKeys(status.Sessions) {
				fmt.Printf("  %-10s %d\n", phase, status.Sessions[phase])
			}

			return nil
		},
	}
}
