// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"runtime"
)

// Stamped at link time via -ldflags -X. The defaults describe a local,
// unstamped build.
var (
	// Version is the release version, or "0.1.0-dev" for local builds.
	Version = "0.1.0-dev"

	// GitCommit is the abbreviated commit hash the binary was built
	// from.
	GitCommit = "unknown"

	// GitDirty is "true" when the working tree had local modifications
	// at build time.
	GitDirty = "false"

	// BuildTime is the UTC build timestamp in RFC 3339 form.
	BuildTime = "unknown"
)

// Info renders the one-line form reported by service status responses
// and --version output: "0.3.0 (4f2a91c, 2026-08-01T12:00:00Z)". A
// dirty working tree marks the commit hash with a "-dirty" suffix.
func Info() string {
	commit := GitCommit
	if GitDirty == "true" {
		commit += "-dirty"
	}
	return fmt.Sprintf("%s (%s, %s)", Version, commit, BuildTime)
}

// Full appends the Go toolchain and target platform to [Info], for the
// CLI's --version flag.
func Full() string {
	return fmt.Sprintf("%s\n  Go: %s\n  Platform: %s/%s",
		Info(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
