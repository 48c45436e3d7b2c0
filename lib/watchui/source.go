// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

package watchui

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"net"
	"slices"
	"sync"
	"time"

	"github.com/arena-foundation/arena/lib/codec"
	"github.com/arena-foundation/arena/lib/ref"
	"github.com/arena-foundation/arena/lib/schema/session"
	"github.com/arena-foundation/arena/lib/service"
)

// Stream phases reported by [Source.Stats].
const (
	// PhaseConnecting: not yet connected to the service.
	PhaseConnecting = "connecting"

	// PhaseLoading: connected, receiving the initial snapshot.
	PhaseLoading = "loading"

	// PhaseCaughtUp: snapshot complete, live events flowing.
	PhaseCaughtUp = "caught_up"
)

// Backoff parameters for reconnection after stream disconnects.
const (
	initialBackoff = 1 * time.Second
	maxBackoff     = 30 * time.Second
)

// watchReadTimeout bounds each frame read. The server heartbeats every
// 30 seconds on an idle stream; a read that outlasts two heartbeats
// plus slack means the connection is dead.
const watchReadTimeout = 75 * time.Second

// NoticeKind discriminates what a [Notice] reports.
type NoticeKind string

const (
	// NoticeEvent: a live orchestrator event arrived and the mirror
	// was updated.
	NoticeEvent NoticeKind = "event"

	// NoticePhase: the stream phase changed (connecting, loading,
	// caught up).
	NoticePhase NoticeKind = "phase"

	// NoticeResync: the server dropped events. The mirror was cleared
	// and a fresh snapshot is loading on the same connection.
	NoticeResync NoticeKind = "resync"

	// NoticeDisconnected: the stream ended. The mirror was cleared;
	// a reconnect attempt follows after Backoff.
	NoticeDisconnected NoticeKind = "disconnected"
)

// Notice is one wake-up delivered on [Source.Subscribe] channels: a
// live orchestrator event, or a change in the stream itself. The model
// re-reads [Source.Stats] on every notice; the notice carries only
// what the stats cannot — the event payload and the disconnect cause.
type Notice struct {
	Kind NoticeKind

	// Event is set for NoticeEvent.
	Event *session.Event

	// Err and Backoff are set for NoticeDisconnected: why the stream
	// ended and how long until the reconnect attempt.
	Err     error
	Backoff time.Duration
}

// CategoryCount is the per-category session breakdown for the queue
// table.
type CategoryCount struct {
	Category ref.GameCategory
	Waiting  int
	Accepted int
	Running  int

	// Finished counts session-finished events observed since the
	// stream last caught up. Finished sessions leave the live set, so
	// this is a rate indicator, not registry state.
	Finished int
}

// Stats is a point-in-time view of the mirror for rendering.
type Stats struct {
	Phase    string
	Cycle    uint64
	Sessions int
	Counts   []CategoryCount
}

// trackedSession is the mirror's per-session state: enough to maintain
// per-category counts and the waiting FIFO, nothing more.
type trackedSession struct {
	category ref.GameCategory
	phase    string
}

// Source consumes the session service's watch stream and mirrors the
// live registry locally. A background goroutine owns the connection:
// initial dial, snapshot, live events, and exponential backoff
// reconnection. The model reads the mirror through [Stats] and learns
// about changes through [Subscribe]; it never touches the socket.
//
// The mirror applies the stream's ordering contract: acknowledgment
// events carry a per-category count instead of session IDs, and
// because executors acknowledge in strict queue order, the accepted
// sessions are always the oldest waiting ones in that category.
type Source struct {
	client *service.ServiceClient
	logger *slog.Logger

	mu       sync.Mutex
	phase    string
	cycle    uint64
	sessions map[ref.SessionID]trackedSession
	waiting  map[ref.GameCategory][]ref.SessionID
	finished map[ref.GameCategory]int

	subscribers []chan Notice

	cancel context.CancelFunc
}

// NewSource creates a Source reading the watch stream through client.
// The background goroutine starts immediately; call [Close] to shut it
// down.
func NewSource(client *service.ServiceClient, logger *slog.Logger) *Source {
	source := &Source{
		client:   client,
		logger:   logger,
		phase:    PhaseConnecting,
		sessions: make(map[ref.SessionID]trackedSession),
		waiting:  make(map[ref.GameCategory][]ref.SessionID),
		finished: make(map[ref.GameCategory]int),
	}

	ctx, cancel := context.WithCancel(context.Background())
	source.cancel = cancel
	go source.streamLoop(ctx)

	return source
}

// Subscribe returns a channel that receives a Notice whenever the
// mirror or the stream changes. The channel is buffered; when a
// subscriber falls behind, notices are dropped — the model re-reads
// Stats on every wake-up, so a dropped notice costs at most one feed
// line, never correctness of the counts.
func (source *Source) Subscribe() <-chan Notice {
	source.mu.Lock()
	defer source.mu.Unlock()
	channel := make(chan Notice, 256)
	source.subscribers = append(source.subscribers, channel)
	return channel
}

// Stats returns the current mirror state: stream phase, latest driver
// cycle, live session total, and the per-category breakdown sorted by
// category.
func (source *Source) Stats() Stats {
	source.mu.Lock()
	defer source.mu.Unlock()

	byCategory := make(map[ref.GameCategory]*CategoryCount)
	bucket := func(category ref.GameCategory) *CategoryCount {
		if count, ok := byCategory[category]; ok {
			return count
		}
		count := &CategoryCount{Category: category}
		byCategory[category] = count
		return count
	}

	for _, tracked := range source.sessions {
		count := bucket(tracked.category)
		switch tracked.phase {
		case "waiting":
			count.Waiting++
		case "accepted":
			count.Accepted++
		case "running":
			count.Running++
		}
	}
	for category, finished := range source.finished {
		bucket(category).Finished += finished
	}

	counts := make([]CategoryCount, 0, len(byCategory))
	for _, count := range byCategory {
		counts = append(counts, *count)
	}
	slices.SortFunc(counts, func(a, b CategoryCount) int {
		return cmp.Compare(a.Category.String(), b.Category.String())
	})

	return Stats{
		Phase:    source.phase,
		Cycle:    source.cycle,
		Sessions: len(source.sessions),
		Counts:   counts,
	}
}

// Close shuts down the background stream goroutine and releases the
// connection. Safe to call multiple times.
func (source *Source) Close() {
	source.cancel()
}

// streamLoop manages the watch connection lifecycle with exponential
// backoff reconnection. Runs in a background goroutine until the
// context is cancelled.
func (source *Source) streamLoop(ctx context.Context) {
	backoff := initialBackoff
	for {
		source.setPhase(PhaseConnecting)
		caughtUp, err := source.runStream(ctx)
		if ctx.Err() != nil {
			return
		}
		if caughtUp {
			// The connection was healthy before it broke; start the
			// retry schedule over.
			backoff = initialBackoff
		}
		source.logger.Warn("watch stream disconnected",
			"error", err,
			"backoff", backoff,
		)

		// Clear the mirror on disconnection. The next successful
		// connection delivers a complete snapshot that replaces all
		// previous state.
		source.clearMirror()
		source.publish(Notice{Kind: NoticeDisconnected, Err: err, Backoff: backoff})

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxBackoff)
	}
}

// runStream establishes a single watch connection and processes frames
// until the connection ends or the context is cancelled. Returns
// whether the stream reached caught_up and the error that ended it.
func (source *Source) runStream(ctx context.Context) (bool, error) {
	conn, err := source.client.Stream(ctx, "watch", nil)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	// Close the connection when the context is cancelled. This
	// unblocks the decoder's Read call in processFrames.
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	source.setPhase(PhaseLoading)
	source.logger.Info("watch stream connected")

	return source.processFrames(conn, codec.NewDecoder(conn))
}

// processFrames reads CBOR frames from the decoder and updates the
// mirror. Returns when the connection closes, an error frame arrives,
// or a read outlasts the heartbeat deadline.
func (source *Source) processFrames(conn net.Conn, decoder *codec.Decoder) (bool, error) {
	caughtUp := false
	for {
		if err := conn.SetReadDeadline(time.Now().Add(watchReadTimeout)); err != nil {
			return caughtUp, fmt.Errorf("setting read deadline: %w", err)
		}

		var frame session.WatchFrame
		if err := decoder.Decode(&frame); err != nil {
			return caughtUp, fmt.Errorf("reading frame: %w", err)
		}

		switch frame.Type {
		case session.FrameSnapshot:
			if frame.Record != nil {
				source.addSnapshot(*frame.Record)
			}

		case session.FrameCaughtUp:
			caughtUp = true
			source.mu.Lock()
			source.cycle = frame.Cycle
			source.phase = PhaseCaughtUp
			source.mu.Unlock()
			source.logger.Info("watch stream caught up",
				"cycle", frame.Cycle,
				"sessions", frame.Sessions,
				"queued", frame.Queued,
			)
			source.publish(Notice{Kind: NoticePhase})

		case session.FrameEvent:
			if frame.Event != nil {
				source.applyEvent(*frame.Event)
				source.publish(Notice{Kind: NoticeEvent, Event: frame.Event})
			}

		case session.FrameHeartbeat:
			// Liveness only; resetting the read deadline above is the
			// whole effect.

		case session.FrameResync:
			source.clearMirror()
			source.mu.Lock()
			source.phase = PhaseLoading
			source.mu.Unlock()
			source.logger.Info("watch stream resync, reloading snapshot")
			source.publish(Notice{Kind: NoticeResync})

		case session.FrameError:
			return caughtUp, fmt.Errorf("server error: %s", frame.Message)

		default:
			// Forward compatibility: ignore unknown frame types.
			source.logger.Debug("unknown watch frame type", "type", frame.Type)
		}
	}
}

// addSnapshot adds one snapshot record to the mirror. The snapshot
// arrives in queue order (cycle queued, then ID), so appending waiting
// sessions preserves the category FIFO the acknowledgment inference
// depends on.
func (source *Source) addSnapshot(record session.Record) {
	source.mu.Lock()
	defer source.mu.Unlock()

	source.sessions[record.ID] = trackedSession{
		category: record.Category,
		phase:    record.State.Phase(),
	}
	if record.State.IsWaiting() {
		source.waiting[record.Category] = append(source.waiting[record.Category], record.ID)
	}
}

// applyEvent advances the mirror by one orchestrator event.
func (source *Source) applyEvent(event session.Event) {
	source.mu.Lock()
	defer source.mu.Unlock()

	source.cycle = event.Cycle

	switch event.Kind {
	case session.EventParticipantQueued:
		// Pool membership is not mirrored; the feed reports it.

	case session.EventSessionQueued:
		source.sessions[event.Session] = trackedSession{
			category: event.Category,
			phase:    "waiting",
		}
		source.waiting[event.Category] = append(source.waiting[event.Category], event.Session)

	case session.EventSessionsAcknowledged:
		// The event carries a count, not session IDs. Executors
		// acknowledge in strict queue order, so the accepted sessions
		// are the oldest waiting ones in the category.
		queue := source.waiting[event.Category]
		count := min(event.Count, len(queue))
		for _, id := range queue[:count] {
			if tracked, ok := source.sessions[id]; ok {
				tracked.phase = "accepted"
				source.sessions[id] = tracked
			}
		}
		source.waiting[event.Category] = queue[count:]

	case session.EventSessionRunning:
		// A claim needs no prior acknowledgment, so the session may
		// still sit in the waiting FIFO.
		if tracked, ok := source.sessions[event.Session]; ok {
			source.dropWaiting(tracked.category, event.Session)
			tracked.phase = "running"
			source.sessions[event.Session] = tracked
		}

	case session.EventSessionFinished:
		// Finished sessions leave the live set. A repeated finish
		// re-emits the event for a session already gone; skipping it
		// keeps the finished counter honest.
		if tracked, ok := source.sessions[event.Session]; ok {
			source.dropWaiting(tracked.category, event.Session)
			delete(source.sessions, event.Session)
			source.finished[tracked.category]++
		}
	}
}

// dropWaiting removes one session from a category's waiting FIFO.
// No-op when the session already left the queue. Caller holds mu.
func (source *Source) dropWaiting(category ref.GameCategory, id ref.SessionID) {
	queue := source.waiting[category]
	for i, queued := range queue {
		if queued == id {
			source.waiting[category] = slices.Delete(queue, i, i+1)
			return
		}
	}
}

// clearMirror discards all mirrored state. Called on disconnection and
// resync so the next snapshot starts from a clean slate.
func (source *Source) clearMirror() {
	source.mu.Lock()
	defer source.mu.Unlock()
	source.sessions = make(map[ref.SessionID]trackedSession)
	source.waiting = make(map[ref.GameCategory][]ref.SessionID)
	source.finished = make(map[ref.GameCategory]int)
}

// setPhase updates the stream phase and notifies subscribers if it
// changed.
func (source *Source) setPhase(phase string) {
	source.mu.Lock()
	changed := source.phase != phase
	source.phase = phase
	source.mu.Unlock()
	if changed {
		source.publish(Notice{Kind: NoticePhase})
	}
}

// publish delivers a notice to every subscriber. Non-blocking: a full
// subscriber buffer drops the notice rather than stalling the stream
// goroutine.
func (source *Source) publish(notice Notice) {
	source.mu.Lock()
	subscribers := source.subscribers
	source.mu.Unlock()

	for _, subscriber := range subscribers {
		select {
		case subscriber <- notice:
		default:
		}
	}
}
