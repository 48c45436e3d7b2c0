// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"slices"

	"github.com/arena-foundation/arena/lib/ref"
)

// Timeline slot indices for Record.StateChange. Each slot holds the
// cycle number at which the session entered the corresponding state;
// slots the session has not reached stay zero. Cycle numbers start
// at 1, so zero is unambiguous.
const (
	// CycleQueued is set at creation, when the matched group is
	// registered and enqueued.
	CycleQueued = iota

	// CycleAccepted is set when an executor acknowledges the
	// session off its category queue.
	CycleAccepted

	// CycleRunning is set when an executor claims the session.
	CycleRunning

	// CycleFinished is set when the result is reported.
	CycleFinished

	// TimelineSlots is the number of recorded transitions.
	TimelineSlots
)

// Record is one session in the registry: a matched group of players
// moving through the lifecycle states, executed by an external
// executor once claimed.
//
// Records serve both the CBOR socket protocol and CLI JSON output.
type Record struct {
	// ID is the session identifier, assigned at creation.
	ID ref.SessionID `json:"id"`

	// Category is the (game, version) pair the session plays.
	// Determines which queue held the session and which rule set
	// applies.
	Category ref.GameCategory `json:"category"`

	// Executor is the account that claimed the session. Zero until
	// the session goes running; rebound on every claim, so after
	// repeated claims it names the latest one.
	Executor ref.AccountID `json:"executor,omitempty"`

	// Players is the matched group in join order. Order is
	// preserved from the matching pool: seat assignment downstream
	// relies on it.
	Players []ref.AccountID `json:"players"`

	// State is the current lifecycle state.
	State State `json:"state"`

	// StateChange records the cycle number of each lifecycle
	// transition, indexed by CycleQueued through CycleFinished.
	// Unreached slots are zero.
	StateChange [TimelineSlots]uint64 `json:"state_change"`
}

// Clone returns a deep copy. The registry hands records across the
// orchestrator boundary; callers get their own player slice so later
// mutations cannot alias shared state.
func (r Record) Clone() Record {
	r.Players = slices.Clone(r.Players)
	return r
}
