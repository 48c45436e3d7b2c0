// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

package session

// WatchFrameType enumerates the frame types on the session watch
// stream ("watch" action). The stream opens with one snapshot frame
// per live session, then a caught_up frame, then live event frames.
type WatchFrameType string

const (
	// FrameSnapshot carries one existing session record during the
	// initial snapshot phase.
	FrameSnapshot WatchFrameType = "snapshot"

	// FrameCaughtUp marks the end of the snapshot: the counts are
	// final and live events follow.
	FrameCaughtUp WatchFrameType = "caught_up"

	// FrameEvent carries one live orchestrator notification.
	FrameEvent WatchFrameType = "event"

	// FrameResync means the subscriber fell behind and events were
	// dropped. The client should discard local state; a fresh
	// snapshot (FrameSnapshot... FrameCaughtUp) follows.
	FrameResync WatchFrameType = "resync"

	// FrameHeartbeat is a liveness probe on an otherwise idle
	// stream, sent every 30 seconds. Clients should treat the
	// stream as dead after missing two.
	FrameHeartbeat WatchFrameType = "heartbeat"

	// FrameError is terminal: Message explains the failure and the
	// connection closes after it.
	FrameError WatchFrameType = "error"
)

// WatchFrame is a single CBOR value written on the watch stream. The
// Type field discriminates which payload fields are set.
type WatchFrame struct {
	Type WatchFrameType `json:"type"`

	// Record is set for FrameSnapshot.
	Record *Record `json:"record,omitempty"`

	// Event is set for FrameEvent.
	Event *Event `json:"event,omitempty"`

	// Cycle is set for FrameCaughtUp: the driver cycle at snapshot
	// time.
	Cycle uint64 `json:"cycle,omitempty"`

	// Sessions and Queued are set for FrameCaughtUp: total live
	// sessions in the snapshot and how many of them are waiting in
	// a queue.
	Sessions int `json:"sessions,omitempty"`
	Queued   int `json:"queued,omitempty"`

	// Message is set for FrameError.
	Message string `json:"message,omitempty"`
}
