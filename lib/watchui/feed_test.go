// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

package watchui

import (
	"fmt"
	"testing"

	"github.com/arena-foundation/arena/lib/schema/session"
)

func TestFormatEvent(t *testing.T) {
	id := testSessionID(0xab)

	tests := []struct {
		name  string
		event session.Event
		want  string
	}{
		{
			"participant queued",
			session.Event{Kind: session.EventParticipantQueued, Account: ada},
			"ada.lovelace joined the matching pool",
		},
		{
			"session queued",
			session.Event{Kind: session.EventSessionQueued, Category: g1v1, Session: id},
			fmt.Sprintf("session %s queued in g1v1", id.Short()),
		},
		{
			"sessions acknowledged",
			session.Event{Kind: session.EventSessionsAcknowledged, Account: gamma, Category: g1v1, Count: 3},
			"gamma.executor acknowledged 3 sessions in g1v1",
		},
		{
			"one session acknowledged",
			session.Event{Kind: session.EventSessionsAcknowledged, Account: gamma, Category: g2v1, Count: 1},
			"gamma.executor acknowledged 1 session in g2v1",
		},
		{
			"session running",
			session.Event{Kind: session.EventSessionRunning, Account: gamma, Session: id},
			fmt.Sprintf("session %s running on gamma.executor", id.Short()),
		},
		{
			"session finished",
			session.Event{Kind: session.EventSessionFinished, Session: id, Winner: ada},
			fmt.Sprintf("session %s finished, winner ada.lovelace", id.Short()),
		},
		{
			"session finished without winner",
			session.Event{Kind: session.EventSessionFinished, Session: id},
			fmt.Sprintf("session %s finished", id.Short()),
		},
		{
			"unknown kind",
			session.Event{Kind: "session-paused"},
			"session-paused event",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := formatEvent(test.event); got != test.want {
				t.Errorf("got %q, want %q", got, test.want)
			}
		})
	}
}

func TestEventPhase(t *testing.T) {
	tests := []struct {
		kind session.EventKind
		want string
	}{
		{session.EventParticipantQueued, "waiting"},
		{session.EventSessionQueued, "waiting"},
		{session.EventSessionsAcknowledged, "accepted"},
		{session.EventSessionRunning, "running"},
		{session.EventSessionFinished, "finished"},
		{"session-paused", ""},
	}

	for _, test := range tests {
		if got := eventPhase(test.kind); got != test.want {
			t.Errorf("eventPhase(%q): got %q, want %q", test.kind, got, test.want)
		}
	}
}

func TestAppendFeedCap(t *testing.T) {
	var feed []feedEntry
	for i := 0; i < maxFeedEntries+10; i++ {
		feed = appendFeed(feed, feedEntry{Line: fmt.Sprintf("entry %d", i)})
	}

	if len(feed) != maxFeedEntries {
		t.Fatalf("feed length: got %d, want %d", len(feed), maxFeedEntries)
	}

	// The oldest ten entries were dropped.
	if feed[0].Line != "entry 10" {
		t.Errorf("oldest entry: got %q, want %q", feed[0].Line, "entry 10")
	}
	if feed[len(feed)-1].Line != fmt.Sprintf("entry %d", maxFeedEntries+9) {
		t.Errorf("newest entry: got %q", feed[len(feed)-1].Line)
	}
}
