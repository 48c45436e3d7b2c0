// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

package session

import "errors"

// Sentinel errors for session operations. Handlers match them with
// errors.Is; the socket layer sends the full message to the client.
var (
	// ErrDuplicateRegistration: the caller is already in the
	// matching pool and cannot queue again until matched or
	// dropped.
	ErrDuplicateRegistration = errors.New("participant already queued for matching")

	// ErrBatchTooLarge: an acknowledge call carried more than
	// MaxAcknowledgeBatch identifiers. Nothing was processed.
	ErrBatchTooLarge = errors.New("acknowledge batch too large")

	// ErrNoQueue: the named game category has no queue, so there is
	// nothing to acknowledge from.
	ErrNoQueue = errors.New("no queue for game category")

	// ErrAcknowledgeFailed: an identifier in the batch did not match
	// the queue head. Identifiers before it in the batch are already
	// committed; the error message reports how many.
	ErrAcknowledgeFailed = errors.New("acknowledgment does not match queue order")

	// ErrNoSession: the registry holds no session with the given
	// identifier.
	ErrNoSession = errors.New("no such session")
)
