// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

// Command arena is the operator CLI for the Arena session service:
// queueing accounts, walking sessions through their lifecycle,
// managing rules and tokens, and inspecting archives. Run "arena
// --help" for the command tree.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/arena-foundation/arena/cmd/arena/commands"
)

func main() {
	if err := run(); err != nil {
		// Commands that print their own diagnostics (like "archive
		// inspect" on a failed verification) return an ExitError with
		// the desired code. Don't print a redundant "error:" line for
		// those.
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return commands.Root().Execute(ctx, os.Args[1:])
}
