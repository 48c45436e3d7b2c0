// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"net"
	"time"

	"github.com/arena-foundation/arena/lib/codec"
	"github.com/arena-foundation/arena/lib/schema/session"
	"github.com/arena-foundation/arena/lib/servicetoken"
)

// snapshotCounts summarizes a watch snapshot: the driver cycle it was
// taken in, the number of live sessions it carries, and how many of
// those are still waiting in a queue. Sent in the caught_up frame so
// clients can sanity-check what they received.
type snapshotCounts struct {
	Cycle    uint64
	Sessions int
	Queued   int
}

// heartbeatInterval is the time between heartbeat frames on an idle
// watch stream. The client should consider the connection dead if no
// frame of any type arrives within twice this interval.
const heartbeatInterval = 30 * time.Second

// handleWatch is the stream handler for the "watch" action. It writes
// a snapshot of every live session, a caught_up marker, and then live
// event frames as the orchestrator publishes them.
//
// Subscriber registration and snapshot collection happen atomically
// under the orchestrator lock, so no event published after the
// snapshot is missed: anything newer than the snapshot is already
// buffered in the subscriber channel when the snapshot write begins.
// All network I/O happens outside the lock.
func (s *SessionService) handleWatch(ctx context.Context, token *servicetoken.Token, raw []byte, conn net.Conn) {
	encoder := codec.NewEncoder(conn)

	if err := requireGrant(token, session.ActionWatch); err != nil {
		encoder.Encode(session.WatchFrame{Type: session.FrameError, Message: err.Error()})
		return
	}

	sub, records, counts, err := s.orchestrator.Subscribe(ctx)
	if err != nil {
		encoder.Encode(session.WatchFrame{Type: session.FrameError, Message: err.Error()})
		return
	}

	s.logger.Info("watch stream started",
		"subject", token.Subject.String(),
		"sessions", counts.Sessions,
	)

	defer func() {
		close(sub.done)
		s.orchestrator.Unsubscribe(sub)
		s.logger.Info("watch stream ended", "subject", token.Subject.String())
	}()

	if err := writeWatchSnapshot(encoder, records, counts); err != nil {
		s.logger.Debug("watch stream write error during snapshot", "error", err)
		return
	}

	s.watchEventLoop(ctx, encoder, sub)
}

// writeWatchSnapshot writes one snapshot frame per live session,
// then the caught_up marker. Returns the first write error.
func writeWatchSnapshot(encoder *codec.Encoder, records []*session.Record, counts snapshotCounts) error {
	for _, record := range records {
		if err := encoder.Encode(session.WatchFrame{
			Type:   session.FrameSnapshot,
			Record: record,
		}); err != nil {
			return err
		}
	}
	return encoder.Encode(session.WatchFrame{
		Type:     session.FrameCaughtUp,
		Cycle:    counts.Cycle,
		Sessions: counts.Sessions,
		Queued:   counts.Queued,
	})
}

// watchEventLoop forwards orchestrator events to the connection until
// the context is cancelled or a write fails.
//
// On channel overflow (resync flag set) the loop drains the stale
// buffer, writes a resync frame, and replays a fresh snapshot before
// resuming live forwarding.
func (s *SessionService) watchEventLoop(ctx context.Context, encoder *codec.Encoder, sub *subscriber) {
	heartbeat := s.clock.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event := <-sub.channel:
			// A set resync flag means events were dropped and
			// everything buffered (including this event) is stale.
			// The fresh snapshot reflects all of them.
			if sub.resync.CompareAndSwap(true, false) {
				for len(sub.channel) > 0 {
					<-sub.channel
				}

				if err := encoder.Encode(session.WatchFrame{Type: session.FrameResync}); err != nil {
					s.logger.Debug("watch stream write error", "error", err)
					return
				}

				records, counts, err := s.orchestrator.Snapshot(ctx)
				if err != nil {
					encoder.Encode(session.WatchFrame{Type: session.FrameError, Message: err.Error()})
					return
				}
				if err := writeWatchSnapshot(encoder, records, counts); err != nil {
					s.logger.Debug("watch stream write error during resync", "error", err)
					return
				}
				continue
			}

			if err := encoder.Encode(session.WatchFrame{
				Type:  session.FrameEvent,
				Event: &event,
			}); err != nil {
				s.logger.Debug("watch stream write error", "error", err)
				return
			}

		case <-heartbeat.C:
			if err := encoder.Encode(session.WatchFrame{Type: session.FrameHeartbeat}); err != nil {
				s.logger.Debug("watch stream heartbeat error", "error", err)
				return
			}
		}
	}
}
