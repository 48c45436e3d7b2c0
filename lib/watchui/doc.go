// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

// Package watchui implements the interactive terminal dashboard behind
// "arena watch". Built on bubbletea (Elm architecture), it renders a
// live view of the session service: per-category queue depths, a
// scrolling feed of orchestrator events, and a fuzzy filter over the
// feed.
//
// [Source] consumes the service's watch stream in a background
// goroutine, mirrors the live registry locally, and reconnects with
// backoff when the stream drops. [Model] is the bubbletea model that
// renders the mirror; it learns about changes through the Source's
// notice channel, so the UI never polls.
package watchui
