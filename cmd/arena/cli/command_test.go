// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestCommand_Execute_DispatchesToSubcommand(t *testing.T) {
	var called string

	root := &Command{
		Name: "arena",
		Subcommands: []*Command{
			{
				Name: "version",
				Run: func(_ context.Context, args []string, _ *slog.Logger) error {
					called = "version"
					return nil
				},
			},
			{
				Name: "status",
				Run: func(_ context.Context, args []string, _ *slog.Logger) error {
					called = "status"
					return nil
				},
			},
		},
	}

	if err := root.Execute(context.Background(), []string{"status"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if called != "status" {
		t.Errorf("dispatched to %q, want %q", called, "status")
	}
}

func TestCommand_Execute_NestedSubcommands(t *testing.T) {
	var called string
	var receivedArgs []string

	root := &Command{
		Name: "arena",
		Subcommands: []*Command{
			{
				Name: "rules",
				Subcommands: []*Command{
					{
						Name: "show",
						Run: func(_ context.Context, args []string, _ *slog.Logger) error {
							called = "rules show"
							receivedArgs = args
							return nil
						},
					},
				},
			},
		},
	}

	if err := root.Execute(context.Background(), []string{"rules", "show", "g1v2"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if called != "rules show" {
		t.Errorf("dispatched to %q, want %q", called, "rules show")
	}
	if len(receivedArgs) != 1 || receivedArgs[0] != "g1v2" {
		t.Errorf("args = %v, want [g1v2]", receivedArgs)
	}
}

func TestCommand_Execute_ParamsParsing(t *testing.T) {
	var params struct {
		Socket string `flag:"socket" desc:"socket path" default:"/default.sock"`
	}
	var target string

	command := &Command{
		Name:   "drop",
		Params: func() any { return &params },
		Run: func(_ context.Context, args []string, _ *slog.Logger) error {
			if len(args) > 0 {
				target = args[0]
			}
			return nil
		},
	}

	if err := command.Execute(context.Background(), []string{"--socket", "/custom.sock", "b3a9"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if params.Socket != "/custom.sock" {
		t.Errorf("params.Socket = %q, want %q", params.Socket, "/custom.sock")
	}
	if target != "b3a9" {
		t.Errorf("target = %q, want %q", target, "b3a9")
	}
}

func TestCommand_Execute_ContextReachesRun(t *testing.T) {
	type contextKey struct{}
	var seen any

	command := &Command{
		Name: "probe",
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			seen = ctx.Value(contextKey{})
			return nil
		},
	}

	ctx := context.WithValue(context.Background(), contextKey{}, "threaded")
	if err := command.Execute(ctx, nil); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if seen != "threaded" {
		t.Errorf("context value = %v, want %q", seen, "threaded")
	}
}

func TestCommand_Execute_UnknownFlagSuggestion(t *testing.T) {
	var params struct {
		Readonly bool   `flag:"readonly" desc:"read-only mode"`
		Socket   string `flag:"socket" desc:"socket path" default:"/default.sock"`
	}

	command := &Command{
		Name:   "watch",
		Params: func() any { return &params },
		Run:    func(_ context.Context, args []string, _ *slog.Logger) error { return nil },
	}

	err := command.Execute(context.Background(), []string{"--readnoly"})
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown flag")
	}
	errStr := err.Error()
	if !strings.Contains(errStr, "did you mean --readonly") {
		t.Errorf("error = %q, want suggestion for '--readonly'", errStr)
	}
	// Suggestion should be on the same line as the error, not buried.
	if !strings.Contains(errStr, "readnoly") {
		t.Errorf("error = %q, should mention the bad flag", errStr)
	}
	// Should include a pointer to --help.
	if !strings.Contains(errStr, "--help") {
		t.Errorf("error = %q, should point to --help", errStr)
	}
}

func TestCommand_Execute_UnknownFlagNoSuggestion(t *testing.T) {
	var params struct {
		Readonly bool `flag:"readonly" desc:"read-only mode"`
	}

	command := &Command{
		Name:   "watch",
		Params: func() any { return &params },
		Run:    func(_ context.Context, args []string, _ *slog.Logger) error { return nil },
	}

	err := command.Execute(context.Background(), []string{"--zzzzzzzzz"})
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown flag")
	}
	if strings.Contains(err.Error(), "did you mean") {
		t.Errorf("error = %q, should not suggest for distant flag", err.Error())
	}
	if !strings.Contains(err.Error(), "--help") {
		t.Errorf("error = %q, should point to --help", err.Error())
	}
}

func TestCommand_Execute_UnknownSubcommandSuggestion(t *testing.T) {
	root := &Command{
		Name: "arena",
		Subcommands: []*Command{
			{Name: "status"},
			{Name: "acknowledge"},
			{Name: "version"},
		},
	}

	err := root.Execute(context.Background(), []string{"acknowlege"})
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown subcommand")
	}
	if !strings.Contains(err.Error(), "did you mean \"acknowledge\"") {
		t.Errorf("error = %q, want suggestion for 'acknowledge'", err.Error())
	}
}

func TestCommand_Execute_UnknownSubcommandNoSuggestion(t *testing.T) {
	root := &Command{
		Name: "arena",
		Subcommands: []*Command{
			{Name: "status"},
			{Name: "watch"},
		},
	}

	err := root.Execute(context.Background(), []string{"zzzzzzz"})
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown subcommand")
	}
	if strings.Contains(err.Error(), "did you mean") {
		t.Errorf("error = %q, should not contain suggestion for distant input", err.Error())
	}
}

func TestCommand_Execute_HelpFlag(t *testing.T) {
	for _, helpArg := range []string{"-h", "--help", "help"} {
		t.Run(helpArg, func(t *testing.T) {
			root := &Command{
				Name:    "arena",
				Summary: "Matchmaking and session lifecycle",
				Subcommands: []*Command{
					{Name: "status", Summary: "Service status"},
				},
			}

			err := root.Execute(context.Background(), []string{helpArg})
			if err != nil {
				t.Errorf("Execute(%q) error: %v", helpArg, err)
			}
		})
	}
}

func TestCommand_Execute_NoArgsShowsHelp(t *testing.T) {
	root := &Command{
		Name: "arena",
		Subcommands: []*Command{
			{Name: "status", Summary: "Service status"},
		},
	}

	err := root.Execute(context.Background(), []string{})
	if err == nil {
		t.Fatal("Execute() = nil, want error for missing subcommand")
	}
	if !strings.Contains(err.Error(), "subcommand required") {
		t.Errorf("error = %q, want 'subcommand required'", err.Error())
	}
}

func TestCommand_PrintHelp(t *testing.T) {
	command := &Command{
		Name:        "arena",
		Description: "Matchmaking and session lifecycle operations.",
		Subcommands: []*Command{
			{Name: "status", Summary: "Show service status"},
			{Name: "acknowledge", Summary: "Claim queued sessions in head order"},
			{Name: "version", Summary: "Print version information"},
		},
		Examples: []Example{
			{
				Description: "Check the service",
				Command:     "arena status",
			},
			{
				Description: "Claim two sessions off the g1v1 queue",
				Command:     "arena acknowledge --category g1v1 b3a9 77f0",
			},
		},
	}

	var buffer bytes.Buffer
	command.PrintHelp(&buffer)
	output := buffer.String()

	// Verify structural elements are present.
	for _, want := range []string{
		"Matchmaking and session lifecycle operations.",
		"Usage:",
		"arena <command> [flags]",
		"Commands:",
		"status",
		"Show service status",
		"acknowledge",
		"Claim queued sessions in head order",
		"Examples:",
		"arena status",
		"arena acknowledge --category g1v1",
		"Run 'arena <command> --help'",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("help output missing %q\n\nFull output:\n%s", want, output)
		}
	}
}

func TestCommand_PrintHelp_WithFlagsAndGrants(t *testing.T) {
	var params struct {
		Socket   string `flag:"socket" desc:"session service socket" default:"/run/arena/session.sock"`
		Category string `flag:"category,c" desc:"game category"`
	}

	command := &Command{
		Name:           "acknowledge",
		Summary:        "Claim queued sessions in head order",
		Usage:          "arena acknowledge --category CATEGORY <session>... [flags]",
		Params:         func() any { return &params },
		RequiredGrants: []string{"session/acknowledge"},
	}

	var buffer bytes.Buffer
	command.PrintHelp(&buffer)
	output := buffer.String()

	for _, want := range []string{
		"arena acknowledge --category CATEGORY <session>... [flags]",
		"Flags:",
		"socket",
		"category",
		"Grants:",
		"session/acknowledge",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("help output missing %q\n\nFull output:\n%s", want, output)
		}
	}
}

func TestCommand_FullName(t *testing.T) {
	root := &Command{Name: "arena"}
	rules := &Command{Name: "rules", parent: root}
	show := &Command{Name: "show", parent: rules}

	if got := root.fullName(); got != "arena" {
		t.Errorf("root.fullName() = %q, want %q", got, "arena")
	}
	if got := rules.fullName(); got != "arena rules" {
		t.Errorf("rules.fullName() = %q, want %q", got, "arena rules")
	}
	if got := show.fullName(); got != "arena rules show" {
		t.Errorf("show.fullName() = %q, want %q", got, "arena rules show")
	}
}
