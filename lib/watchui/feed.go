// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

package watchui

import (
	"fmt"
	"time"

	"github.com/arena-foundation/arena/lib/schema/session"
)

// maxFeedEntries bounds the in-memory event feed. Older entries fall
// off the front; the service log and archives hold full history.
const maxFeedEntries = 500

// feedEntry is one line in the event feed: an orchestrator event or a
// stream notice, with the wall-clock time it arrived.
type feedEntry struct {
	When  time.Time
	Kind  session.EventKind // empty for stream notices
	Cycle uint64            // zero for stream notices
	Line  string            // plain text; styling is applied at render

	// System marks stream notices (disconnects, resyncs) rather than
	// session activity.
	System bool
}

// appendFeed appends an entry, dropping the oldest when the feed is
// full.
func appendFeed(feed []feedEntry, entry feedEntry) []feedEntry {
	feed = append(feed, entry)
	if len(feed) > maxFeedEntries {
		feed = feed[len(feed)-maxFeedEntries:]
	}
	return feed
}

// formatEvent renders one orchestrator event as a feed line. Plain
// text; the renderer colors it by the phase the event moves sessions
// into.
func formatEvent(event session.Event) string {
	switch event.Kind {
	case session.EventParticipantQueued:
		return fmt.Sprintf("%s joined the matching pool", event.Account)
	case session.EventSessionQueued:
		return fmt.Sprintf("session %s queued in %s", event.Session.Short(), event.Category)
	case session.EventSessionsAcknowledged:
		noun := "sessions"
		if event.Count == 1 {
			noun = "session"
		}
		return fmt.Sprintf("%s acknowledged %d %s in %s", event.Account, event.Count, noun, event.Category)
	case session.EventSessionRunning:
		return fmt.Sprintf("session %s running on %s", event.Session.Short(), event.Account)
	case session.EventSessionFinished:
		if event.Winner.IsZero() {
			return fmt.Sprintf("session %s finished", event.Session.Short())
		}
		return fmt.Sprintf("session %s finished, winner %s", event.Session.Short(), event.Winner)
	default:
		return fmt.Sprintf("%s event", event.Kind)
	}
}

// eventPhase maps an event kind to the lifecycle phase it moves
// sessions into, for feed coloring. Pool joins tint like queued
// sessions; both are waiting-side activity.
func eventPhase(kind session.EventKind) string {
	switch kind {
	case session.EventParticipantQueued, session.EventSessionQueued:
		return "waiting"
	case session.EventSessionsAcknowledged:
		return "accepted"
	case session.EventSessionRunning:
		return "running"
	case session.EventSessionFinished:
		return "finished"
	default:
		return ""
	}
}
