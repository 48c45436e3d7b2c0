// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"fmt"
	"strings"

	"github.com/arena-foundation/arena/lib/ref"
)

// phase is the lifecycle position of a session. It is unexported so
// the only way to build a State is through the constructors, which
// keep the winner payload consistent with the phase.
type phase uint8

const (
	phaseNone phase = iota
	phaseWaiting
	phaseAccepted
	phaseRunning
	phaseFinished
)

var phaseNames = [...]string{
	phaseNone:     "none",
	phaseWaiting:  "waiting",
	phaseAccepted: "accepted",
	phaseRunning:  "running",
	phaseFinished: "finished",
}

// State is the session lifecycle state: none, waiting, accepted,
// running, or finished. Only the finished state carries a payload,
// the winning account. The zero value is the none state.
//
// State is a closed variant: a session is never "finished plus a
// leftover waiting flag". Code cannot construct a winner without the
// finished phase or a finished phase without a winner.
//
// The canonical text form is the phase name, with the winner
// appended for finished states: "waiting", "finished:ada.lovelace".
type State struct {
	phase  phase
	winner ref.AccountID
}

// StateNone returns the none state (no session). Identical to the
// zero value.
func StateNone() State { return State{} }

// StateWaiting returns the waiting state: the session is created and
// sits in its category queue.
func StateWaiting() State { return State{phase: phaseWaiting} }

// StateAccepted returns the accepted state: an executor acknowledged
// the session off the queue.
func StateAccepted() State { return State{phase: phaseAccepted} }

// StateRunning returns the running state: an executor claimed the
// session and the match is in progress.
func StateRunning() State { return State{phase: phaseRunning} }

// StateFinished returns the finished state carrying the winner.
// Panics on a zero winner: a finished session always names its
// winner, callers validate first.
func StateFinished(winner ref.AccountID) State {
	if winner.IsZero() {
		panic("session.StateFinished: zero winner")
	}
	return State{phase: phaseFinished, winner: winner}
}

// ParseState parses the canonical text form.
func ParseState(raw string) (State, error) {
	name, payload, hasPayload := strings.Cut(raw, ":")
	switch name {
	case "none", "":
		if hasPayload {
			return State{}, fmt.Errorf("invalid session state %q: %q takes no payload", raw, name)
		}
		return StateNone(), nil
	case "waiting", "accepted", "running":
		if hasPayload {
			return State{}, fmt.Errorf("invalid session state %q: %q takes no payload", raw, name)
		}
		switch name {
		case "waiting":
			return StateWaiting(), nil
		case "accepted":
			return StateAccepted(), nil
		default:
			return StateRunning(), nil
		}
	case "finished":
		if !hasPayload {
			return State{}, fmt.Errorf("invalid session state %q: finished requires a winner", raw)
		}
		winner, err := ref.ParseAccountID(payload)
		if err != nil {
			return State{}, fmt.Errorf("invalid session state %q: %w", raw, err)
		}
		return StateFinished(winner), nil
	default:
		return State{}, fmt.Errorf("invalid session state %q: unknown phase %q", raw, name)
	}
}

// MustParseState is like ParseState but panics on error. Use in
// tests where the input is known-valid.
func MustParseState(raw string) State {
	s, err := ParseState(raw)
	if err != nil {
		panic(fmt.Sprintf("session.MustParseState(%q): %v", raw, err))
	}
	return s
}

// String returns the canonical text form.
func (s State) String() string {
	if s.phase == phaseFinished {
		return "finished:" + s.winner.String()
	}
	return phaseNames[s.phase]
}

// Phase returns the bare phase name without any payload: "none",
// "waiting", "accepted", "running", "finished".
func (s State) Phase() string { return phaseNames[s.phase] }

// IsNone reports whether the state is none (the zero value).
func (s State) IsNone() bool { return s.phase == phaseNone }

// IsWaiting reports whether the session waits in its category queue.
func (s State) IsWaiting() bool { return s.phase == phaseWaiting }

// IsAccepted reports whether an executor acknowledged the session.
func (s State) IsAccepted() bool { return s.phase == phaseAccepted }

// IsRunning reports whether the match is in progress.
func (s State) IsRunning() bool { return s.phase == phaseRunning }

// IsFinished reports whether the session reached its terminal state.
func (s State) IsFinished() bool { return s.phase == phaseFinished }

// Winner returns the winning account and true for a finished state,
// and the zero AccountID and false otherwise.
func (s State) Winner() (ref.AccountID, bool) {
	if s.phase != phaseFinished {
		return ref.AccountID{}, false
	}
	return s.winner, true
}

// MarshalText implements encoding.TextMarshaler using the canonical
// text form. The none state marshals as "none", not as empty: none
// is a real state, not an absent field.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. An empty input
// produces the none state.
func (s *State) UnmarshalText(data []byte) error {
	parsed, err := ParseState(string(data))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
