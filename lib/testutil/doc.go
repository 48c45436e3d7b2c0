// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for Arena packages.
//
// [SocketDir] creates a temporary directory in /tmp suitable for Unix
// domain sockets. This exists because Unix domain sockets have a
// 108-byte path limit (sun_path in sockaddr_un), and test runners
// often set TMPDIR to deeply nested paths that exceed this limit,
// making t.TempDir() unsuitable for socket files. The directory is
// automatically removed when the test completes.
//
// [RequireReceive] encapsulates the timeout safety valve pattern
// (select with time.After fallback) so that individual tests do not
// need direct time.After calls. The timeout exists only to turn a
// hang into a test failure; tests that exercise time-dependent
// behavior should use a fake clock instead.
//
// Helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package has no Arena-internal dependencies.
package testutil
