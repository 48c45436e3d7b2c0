// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

package session

// Authorization action constants for the session service. Enforced
// by cmd/arena-session-service via service token grant verification:
// a handler refuses a caller whose token grants do not cover the
// action.

// Mutation operations.
const (
	ActionQueue       = "session/queue"
	ActionDrop        = "session/drop"
	ActionAcknowledge = "session/acknowledge"
	ActionReady       = "session/ready"
	ActionFinish      = "session/finish"
	ActionSetRules    = "session/rules"
	ActionCompact     = "session/admin"
)

// Query and subscription operations.
const (
	ActionRead  = "session/read"
	ActionWatch = "session/watch"
)

// ActionAll is the wildcard pattern matching all session operations.
const ActionAll = "session/**"

// MaxAcknowledgeBatch is the largest number of session identifiers
// one acknowledge call may carry. Larger batches are refused outright
// with ErrBatchTooLarge before any identifier is processed.
const MaxAcknowledgeBatch = 100
