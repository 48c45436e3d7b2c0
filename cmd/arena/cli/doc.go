// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command framework for the arena CLI:
// command tree dispatch, reflection-based flag binding, structured
// help output, typo suggestions, categorized errors, and the shared
// session service connection flags.
//
// Commands are declared as [Command] values with a Params constructor
// returning a tagged struct; flag parsing populates the struct before
// Run is called. See [BindFlags] for the tag syntax.
package cli
