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

func rulesCommand() *cli.Command {
	return &cli.Command{
		Name:    "rules",
		Summary: "Show and store per-category rule documents",
		Description: `Rule documents describe how matches in a category are meant to be
played: player count bounds and free-form game parameters. The
service stores and serves them for clients and tooling; match
formation itself uses the service's configured group size and never
consults them.`,
		Subcommands: []*cli.Command{
			rulesShowCommand(),
			rulesSetCommand(),
		},
		Examples: []cli.Example{
			{
				Description: "Show all stored rule sets",
				Command:     "arena rules show",
			},
			{
				Description: "Store a category's rules from a JSONC file",
				Command:     "arena rules set --file g1v1.rules.jsonc",
			},
		},
	}
}

// --- show ---

type rulesShowParams struct {
	cli.SessionConnection
	cli.JSONOutput
	Category string `json:"category" flag:"category,c" desc:"limit output to one category"`
}

func rulesShowCommand() *cli.Command {
	var params rulesShowParams

	return &cli.Command{
		Name:    "show",
		Summary: "Show stored rule sets",
		Description: `List the rule sets the service has stored, or one category's rules
with --category. Asking for a category that has no stored rules is
an error; omitting --category with nothing stored prints an empty
list.`,
		Usage: "arena rules show [flags]",
		Examples: []cli.Example{
			{
				Description: "All stored rule sets",
				Command:     "arena rules show",
			},
			{
				Description: "One category's rules as JSON",
				Command:     "arena rules show --category g1v1 --json",
			},
		},
		Params:         func() any { return &params },
		Annotations:    cli.ReadOnly(),
		RequiredGrants: []string{session.ActionRead},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			client, err := params.Connect()
			if err != nil {
				return err
			}

			ctx, cancel := cli.CallContext(ctx)
			defer cancel()

			fields := map[string]any{}
			if params.Category != "" {
				fields["category"] = params.Category
			}

			var result rulesResult
			if err := client.Call(ctx, "rules", fields, &result); err != nil {
				return err
			}

			if done, err := params.EmitJSON(result.Rules); done {
				return err
			}

			if len(result.Rules) == 0 {
				logger.Info("no rule sets stored")
				return nil
			}

			writer := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintf(writer, "CATEGORY\tPLAYERS\tPARAMS\n")
			for _, rules := range result.Rules {
				fmt.Fprintf(writer, "%s\t%s\t%d\n",
					rules.Category,
					formatPlayerRange(rules.PlayersPerMatch),
					len(rules.Params),
				)
			}
			return writer.Flush()
		},
	}
}

// formatPlayerRange renders the [min, max] player bounds, collapsing
// a fixed size to a single number.
func formatPlayerRange(bounds [2]uint8) string {
	if bounds[0] == bounds[1] {
		return fmt.Sprintf("%d", bounds[0])
	}
	return fmt.Sprintf("%d-%d", bounds[0], bounds[1])
}

// --- set ---

type rulesSetParams struct {
	cli.SessionConnection
	cli.JSONOutput
	File string `json:"-" flag:"file,f" desc:"path to a rules document (JSONC)" required:"true"`
}

func rulesSetCommand() *cli.Command {
	var params rulesSetParams

	return &cli.Command{
		Name:    "set",
		Summary: "Validate and store a category's rule document",
		Description: `Send a rules document to the service. The file is JSONC (JSON with
comments and trailing commas); the category comes from the document's
"category" field. The service validates the document, normalizes it,
and replaces any previously stored rules for the category.

A document may omit "players_per_match", in which case the service
fills in its configured group size as a fixed bound.`,
		Usage: "arena rules set --file FILE [flags]",
		Examples: []cli.Example{
			{
				Description: "Store rules for the category named in the file",
				Command:     "arena rules set --file g1v1.rules.jsonc",
			},
		},
		Params:         func() any { return &params },
		Annotations:    cli.Idempotent(),
		RequiredGrants: []string{session.ActionSetRules},
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			if params.File == "" {
				return cli.Validation("--file is required")
			}

			document, err := os.ReadFile(params.File)
			if err != nil {
				return cli.Validation("reading %s: %v", params.File, err)
			}

			client, err := params.Connect()
			if err != nil {
				return err
			}

			ctx, cancel := cli.CallContext(ctx)
			defer cancel()

			fields := map[string]any{"document": document}

			var stored session.RuleSet
			if err := client.Call(ctx, "set-rules", fields, &stored); err != nil {
				return err
			}

			if done, err := params.EmitJSON(stored); done {
				return err
			}

			fmt.Fprintf(os.Stderr, "rules stored for %s (players %s)\n",
				stored.Category, formatPlayerRange(stored.PlayersPerMatch))
			return nil
		},
	}
}
