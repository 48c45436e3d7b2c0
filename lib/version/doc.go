// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

// Package version exposes build metadata for Arena binaries.
//
// Release builds stamp the package-level variables through the linker:
//
//	go build -ldflags "\
//	  -X github.com/arena-foundation/arena/lib/version.Version=0.3.0 \
//	  -X github.com/arena-foundation/arena/lib/version.GitCommit=$(git rev-parse --short HEAD) \
//	  -X github.com/arena-foundation/arena/lib/version.BuildTime=$(date -u +%FT%TZ)"
//
// Unstamped builds (development, go test) report "0.1.0-dev" with an
// unknown commit. [Info] is the one-line rendering used by the session
// service's status response; [Full] adds toolchain and platform for
// the CLI's --version flag.
package version
