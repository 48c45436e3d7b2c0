// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

// Package session defines the Arena session protocol types: the
// session state machine, session records, per-category rule sets,
// watch-stream frames, and the action and grant names the session
// service enforces.
package session
