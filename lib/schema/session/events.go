// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

package session

import "github.com/arena-foundation/arena/lib/ref"

// EventKind names the notification emitted by each successful
// orchestrator operation. Every kind appears exactly once per call:
// one operation, one event.
type EventKind string

const (
	// EventParticipantQueued: an account entered the matching pool.
	EventParticipantQueued EventKind = "participant-queued"

	// EventSessionQueued: the matcher produced a group, a session
	// was created and enqueued for its category.
	EventSessionQueued EventKind = "session-queued"

	// EventSessionsAcknowledged: an executor acknowledged a full
	// batch off a category queue. Emitted only when the whole batch
	// succeeds; a prefix failure emits nothing.
	EventSessionsAcknowledged EventKind = "sessions-acknowledged"

	// EventSessionRunning: an executor claimed a session.
	EventSessionRunning EventKind = "session-running"

	// EventSessionFinished: a result was reported.
	EventSessionFinished EventKind = "session-finished"
)

// Event is one orchestrator notification. It rides the watch stream
// and is mirrored into the service log. Fields beyond Kind and Cycle
// are populated per kind:
//
//	participant-queued:    Account
//	session-queued:        Category, Session
//	sessions-acknowledged: Account (the executor), Category, Count
//	session-running:       Account (the executor), Session
//	session-finished:      Session, Winner
type Event struct {
	Kind  EventKind `json:"kind"`
	Cycle uint64    `json:"cycle"`

	Account  ref.AccountID    `json:"account,omitempty"`
	Category ref.GameCategory `json:"category,omitempty"`
	Session  ref.SessionID    `json:"session,omitempty"`
	Winner   ref.AccountID    `json:"winner,omitempty"`
	Count    int              `json:"count,omitempty"`
}
