// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/zeebo/blake3"

	"github.com/arena-foundation/arena/lib/codec"
	"github.com/arena-foundation/arena/lib/entropy"
	"github.com/arena-foundation/arena/lib/matchpool"
	"github.com/arena-foundation/arena/lib/ref"
	"github.com/arena-foundation/arena/lib/schema/session"
	"github.com/arena-foundation/arena/lib/sessionqueue"
)

// idDomainTag parameterizes the entropy source for session id
// generation. Seeds drawn under this tag are independent of any
// other consumer of the same source.
const idDomainTag = "arenaseq"

// maxMatchesPerCycle bounds the work one driver cycle may do: at
// most this many match attempts, each creating at most one session.
const maxMatchesPerCycle = 10

// defaultBracket is the matching bracket participants queue into.
// Skill brackets are a matcher concern; the service pins everyone to
// bracket zero until a real rating source exists.
const defaultBracket uint8 = 0

// defaultCategory is the game category assigned to driver-created
// sessions.
var defaultCategory = ref.MustParseGameCategory("g1v1")

// sessionStore is the durable state the orchestrator operates on.
// *Store implements it; orchestrator unit tests substitute an
// in-memory fake with the same per-call atomicity.
type sessionStore interface {
	Nonce(ctx context.Context) (uint64, error)
	CreateSession(ctx context.Context, record *session.Record, nonce uint64, queue queueState) error
	Session(ctx context.Context, id ref.SessionID) (*session.Record, error)
	SaveSession(ctx context.Context, record *session.Record) error
	AcknowledgeSession(ctx context.Context, record *session.Record, queue queueState) error
	DropSession(ctx context.Context, id ref.SessionID, queue *queueState) error
	DeleteSessions(ctx context.Context, ids []ref.SessionID) error
	Queue(ctx context.Context, category ref.GameCategory) (queueState, bool, error)
	LiveSessions(ctx context.Context) ([]*session.Record, error)
	FinishedSessions(ctx context.Context, throughCycle uint64) ([]*session.Record, error)
	Cycle(ctx context.Context) (uint64, error)
	AdvanceCycle(ctx context.Context) (uint64, error)
}

// Orchestrator owns the session lifecycle: pool admission, the
// per-cycle match loop, queue acknowledgment, executor claims, and
// results. Every operation serializes through one mutex held
// end-to-end, so the queue and pool types need no locking of their
// own and an operation observes no concurrent state changes.
type Orchestrator struct {
	store    sessionStore
	pool     matchpool.Matcher
	entropy  entropy.Source
	logger   *slog.Logger
	archiver *archiver // nil disables compact

	queueCapacity int

	mu       sync.Mutex
	cycle    uint64 // cycle most recently started by the driver
	notifier *notifier
}

// OrchestratorConfig configures NewOrchestrator.
type OrchestratorConfig struct {
	Store   sessionStore
	Pool    matchpool.Matcher
	Entropy entropy.Source
	Logger  *slog.Logger

	// Archiver handles compact requests. Nil disables compaction
	// (the compact action reports archiving as unavailable).
	Archiver *archiver

	// QueueCapacity is the capacity for lazily created category
	// queues. Defaults to sessionqueue.DefaultCapacity.
	QueueCapacity int
}

// NewOrchestrator builds an orchestrator and primes its cycle
// counter from the store so events carry continuous cycle numbers
// across restarts.
func NewOrchestrator(ctx context.Context, cfg OrchestratorConfig) (*Orchestrator, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("orchestrator: Store is required")
	}
	if cfg.Pool == nil {
		return nil, fmt.Errorf("orchestrator: Pool is required")
	}
	if cfg.Entropy == nil {
		return nil, fmt.Errorf("orchestrator: Entropy is required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("orchestrator: Logger is required")
	}

	capacity := cfg.QueueCapacity
	if capacity <= 0 {
		capacity = sessionqueue.DefaultCapacity
	}

	cycle, err := cfg.Store.Cycle(ctx)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: reading cycle: %w", err)
	}

	return &Orchestrator{
		store:         cfg.Store,
		pool:          cfg.Pool,
		entropy:       cfg.Entropy,
		logger:        cfg.Logger,
		archiver:      cfg.Archiver,
		queueCapacity: capacity,
		cycle:         cycle,
		notifier:      newNotifier(),
	}, nil
}

// Queue admits the caller into the matching pool. The pool refuses
// an account that is already waiting, across all brackets.
func (o *Orchestrator) Queue(ctx context.Context, caller ref.AccountID) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.pool.Add(caller, defaultBracket) {
		return fmt.Errorf("account %s: %w", caller, session.ErrDuplicateRegistration)
	}
	o.notify(session.Event{
		Kind:    session.EventParticipantQueued,
		Cycle:   o.cycle,
		Account: caller,
	})
	return nil
}

// Drop removes a session from the registry and, when the named
// category's queue still holds the identifier, from that queue,
// preserving the relative order of the remaining entries. Dropping
// an absent session succeeds without touching anything.
func (o *Orchestrator) Drop(ctx context.Context, caller ref.AccountID, id ref.SessionID, category ref.GameCategory) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	record, err := o.store.Session(ctx, id)
	if err != nil {
		return err
	}
	if record == nil {
		return nil
	}

	var updated *queueState
	stored, ok, err := o.store.Queue(ctx, category)
	if err != nil {
		return err
	}
	if ok {
		queue, err := sessionqueue.Load(stored.Capacity, stored.IDs)
		if err != nil {
			return fmt.Errorf("queue %s: %w", category, err)
		}
		if queue.Remove(id) {
			stored.IDs = queue.IDs()
			updated = &stored
		}
	}

	if err := o.store.DropSession(ctx, id, updated); err != nil {
		return err
	}
	o.logger.Info("session dropped",
		"session", id.Short(),
		"category", category.String(),
		"caller", caller.String(),
		"dequeued", updated != nil)
	return nil
}

// Acknowledge claims sessions off the head of a category queue, in
// strict queue order. Each matched identifier commits on its own:
// the session advances to Accepted and the queue head comes off in
// one transaction. The first identifier that is not the current head
// stops the batch with ErrAcknowledgeFailed; work already committed
// stays committed, and the returned count says how much that was.
func (o *Orchestrator) Acknowledge(ctx context.Context, caller ref.AccountID, category ref.GameCategory, ids []ref.SessionID) (int, error) {
	if len(ids) > session.MaxAcknowledgeBatch {
		return 0, fmt.Errorf("%w: %d identifiers exceeds the maximum of %d",
			session.ErrBatchTooLarge, len(ids), session.MaxAcknowledgeBatch)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	stored, ok, err := o.store.Queue(ctx, category)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%w: %s", session.ErrNoQueue, category)
	}
	queue, err := sessionqueue.Load(stored.Capacity, stored.IDs)
	if err != nil {
		return 0, fmt.Errorf("queue %s: %w", category, err)
	}

	count := 0
	for _, id := range ids {
		head, err := queue.Peek()
		if err != nil || head != id {
			return count, fmt.Errorf("%w: %s is not the head of %s (%d of %d acknowledged)",
				session.ErrAcknowledgeFailed, id.Short(), category, count, len(ids))
		}

		record, err := o.store.Session(ctx, id)
		if err != nil {
			return count, err
		}
		if record == nil {
			return count, fmt.Errorf("%w: %s", session.ErrNoSession, id)
		}

		queue.Dequeue()
		record.State = session.StateAccepted()
		record.StateChange[session.CycleAccepted] = o.cycle
		if err := o.store.AcknowledgeSession(ctx, record, queueState{
			Category: category,
			Capacity: queue.Capacity(),
			IDs:      queue.IDs(),
		}); err != nil {
			return count, err
		}
		count++
	}

	o.notify(session.Event{
		Kind:     session.EventSessionsAcknowledged,
		Cycle:    o.cycle,
		Account:  caller,
		Category: category,
		Count:    count,
	})
	return count, nil
}

// Ready claims a session for execution: the caller becomes the
// executor and the session goes Running. No precondition on the
// prior state; a repeated claim rebinds the executor, and the last
// claim wins.
func (o *Orchestrator) Ready(ctx context.Context, caller ref.AccountID, id ref.SessionID) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	record, err := o.store.Session(ctx, id)
	if err != nil {
		return err
	}
	if record == nil {
		return fmt.Errorf("%w: %s", session.ErrNoSession, id)
	}

	record.Executor = caller
	record.State = session.StateRunning()
	record.StateChange[session.CycleRunning] = o.cycle
	if err := o.store.SaveSession(ctx, record); err != nil {
		return err
	}

	o.notify(session.Event{
		Kind:    session.EventSessionRunning,
		Cycle:   o.cycle,
		Account: caller,
		Session: id,
	})
	return nil
}

// Finish records the session result. Like Ready it has no
// precondition: any state advances to Finished, and a repeated
// finish overwrites the winner.
func (o *Orchestrator) Finish(ctx context.Context, caller ref.AccountID, id ref.SessionID, winner ref.AccountID) error {
	if winner.IsZero() {
		return fmt.Errorf("finish %s: winner is required", id.Short())
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	record, err := o.store.Session(ctx, id)
	if err != nil {
		return err
	}
	if record == nil {
		return fmt.Errorf("%w: %s", session.ErrNoSession, id)
	}

	record.State = session.StateFinished(winner)
	record.StateChange[session.CycleFinished] = o.cycle
	if err := o.store.SaveSession(ctx, record); err != nil {
		return err
	}

	o.notify(session.Event{
		Kind:    session.EventSessionFinished,
		Cycle:   o.cycle,
		Session: id,
		Winner:  winner,
	})
	return nil
}

// Session returns a copy of one record, or ErrNoSession.
func (o *Orchestrator) Session(ctx context.Context, id ref.SessionID) (*session.Record, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	record, err := o.store.Session(ctx, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, fmt.Errorf("%w: %s", session.ErrNoSession, id)
	}
	return record, nil
}

// QueueEntries returns a category's queue state: the ordered
// identifiers waiting in it and its capacity. A category that never
// had a queue yields ErrNoQueue.
func (o *Orchestrator) QueueEntries(ctx context.Context, category ref.GameCategory) (queueState, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	stored, ok, err := o.store.Queue(ctx, category)
	if err != nil {
		return queueState{}, err
	}
	if !ok {
		return queueState{}, fmt.Errorf("%w: %s", session.ErrNoQueue, category)
	}
	return stored, nil
}

// PoolSize returns the number of accounts waiting in the matching
// pool.
func (o *Orchestrator) PoolSize() int {
	o.mu.Lock()
	defer o.mu.Unlock()

	if pool, ok := o.pool.(*matchpool.Pool); ok {
		return pool.Len()
	}
	return 0
}

// Cycle returns the cycle most recently started by the driver.
func (o *Orchestrator) Cycle() uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cycle
}

// RunCycle advances the durable cycle counter and runs the match
// loop: up to maxMatchesPerCycle attempts, each asking the pool for
// a group and creating a session from it. The loop ends early on the
// first empty group, and on a full queue (the group goes back into
// the pool and later cycles retry once acknowledgments drain the
// queue).
func (o *Orchestrator) RunCycle(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	cycle, err := o.store.AdvanceCycle(ctx)
	if err != nil {
		return err
	}
	o.cycle = cycle

	for range maxMatchesPerCycle {
		group := o.pool.TryMatch()
		if len(group) == 0 {
			break
		}
		if err := o.create(ctx, group, defaultCategory); err != nil {
			// The matched group would otherwise be lost: they are
			// out of the pool and have no session. Put them back
			// before surfacing the failure.
			for _, account := range group {
				o.pool.Add(account, defaultBracket)
			}
			if errors.Is(err, sessionqueue.ErrFull) {
				o.logger.Warn("queue full, match deferred",
					"category", defaultCategory.String(),
					"cycle", cycle,
					"players", len(group))
				break
			}
			return err
		}
	}
	return nil
}

// create builds a Waiting session for a matched group and enqueues
// it for its category. Caller holds o.mu. A full queue aborts before
// anything is written.
func (o *Orchestrator) create(ctx context.Context, group []ref.AccountID, category ref.GameCategory) error {
	stored, ok, err := o.store.Queue(ctx, category)
	if err != nil {
		return err
	}
	if !ok {
		stored = queueState{Category: category, Capacity: o.queueCapacity}
	}
	queue, err := sessionqueue.Load(stored.Capacity, stored.IDs)
	if err != nil {
		return fmt.Errorf("queue %s: %w", category, err)
	}

	id, nonce, err := o.generateSessionID(ctx, group[0])
	if err != nil {
		return err
	}
	if err := queue.Enqueue(id); err != nil {
		return fmt.Errorf("queue %s: %w", category, err)
	}

	record := &session.Record{
		ID:       id,
		Category: category,
		Players:  group,
		State:    session.StateWaiting(),
	}
	record.StateChange[session.CycleQueued] = o.cycle

	if err := o.store.CreateSession(ctx, record, nonce, queueState{
		Category: category,
		Capacity: queue.Capacity(),
		IDs:      queue.IDs(),
	}); err != nil {
		return err
	}

	o.notify(session.Event{
		Kind:     session.EventSessionQueued,
		Cycle:    o.cycle,
		Category: category,
		Session:  id,
	})
	return nil
}

// generateSessionID derives a fresh identifier: BLAKE3 over the
// deterministic CBOR encoding of [seed, submitter, nonce], with the
// seed drawn from the entropy source under the id domain tag. The
// pre-advance nonce goes into the hash; the returned value is the
// advanced nonce (wrapping at the uint64 maximum) for the caller to
// persist in the same transaction as the insert. There is no
// collision detection: 32 bytes of keyed hash over fresh entropy do
// not collide in practice.
func (o *Orchestrator) generateSessionID(ctx context.Context, submitter ref.AccountID) (ref.SessionID, uint64, error) {
	seed, err := o.entropy.Seed(idDomainTag)
	if err != nil {
		return ref.SessionID{}, 0, fmt.Errorf("seeding session id: %w", err)
	}
	nonce, err := o.store.Nonce(ctx)
	if err != nil {
		return ref.SessionID{}, 0, err
	}

	input, err := codec.Marshal([]any{seed[:], submitter, nonce})
	if err != nil {
		return ref.SessionID{}, 0, fmt.Errorf("encoding session id input: %w", err)
	}
	digest := blake3.Sum256(input)
	return ref.SessionIDFromDigest(digest), nonce + 1, nil
}

// CompactResult reports what a compact pass did.
type CompactResult struct {
	// Archived is the number of finished sessions written to the
	// archive and deleted from the registry.
	Archived int `json:"archived"`

	// ContentID identifies the archive file, empty when Archived
	// is zero.
	ContentID string `json:"content_id,omitempty"`

	// Path is where the archive file was written.
	Path string `json:"path,omitempty"`
}

// Compact archives every finished session whose finish cycle is at
// or before throughCycle (zero means the current cycle) and deletes
// the archived records from the registry. The delete happens only
// after the archive file is durably written, so a crash between the
// two leaves duplicates, never losses.
func (o *Orchestrator) Compact(ctx context.Context, throughCycle uint64) (*CompactResult, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.archiver == nil {
		return nil, fmt.Errorf("archiving is disabled in this service's configuration")
	}
	if throughCycle == 0 {
		throughCycle = o.cycle
	}

	records, err := o.store.FinishedSessions(ctx, throughCycle)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return &CompactResult{}, nil
	}

	path, contentID, err := o.archiver.archive(records)
	if err != nil {
		return nil, err
	}

	ids := make([]ref.SessionID, len(records))
	for i, record := range records {
		ids[i] = record.ID
	}
	if err := o.store.DeleteSessions(ctx, ids); err != nil {
		return nil, err
	}

	o.logger.Info("finished sessions compacted",
		"archived", len(records),
		"through_cycle", throughCycle,
		"content_id", contentID.String())
	return &CompactResult{
		Archived:  len(records),
		ContentID: contentID.String(),
		Path:      path,
	}, nil
}

// Subscribe registers a watch subscriber and returns it together
// with a consistent snapshot: the live records and the counts the
// caught_up frame carries. Registration and snapshot happen under
// the orchestrator mutex, so no event falls between the snapshot
// and the subscriber's first live frame.
func (o *Orchestrator) Subscribe(ctx context.Context) (*subscriber, []*session.Record, snapshotCounts, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	records, err := o.store.LiveSessions(ctx)
	if err != nil {
		return nil, nil, snapshotCounts{}, err
	}
	sub := o.notifier.subscribe()
	return sub, records, o.countSnapshot(records), nil
}

// Snapshot returns the live records and counts without registering
// anything. The watch stream uses it to rebuild a subscriber that
// fell behind.
func (o *Orchestrator) Snapshot(ctx context.Context) ([]*session.Record, snapshotCounts, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	records, err := o.store.LiveSessions(ctx)
	if err != nil {
		return nil, snapshotCounts{}, err
	}
	return records, o.countSnapshot(records), nil
}

// Unsubscribe removes a watch subscriber. Idempotent.
func (o *Orchestrator) Unsubscribe(sub *subscriber) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.notifier.unsubscribe(sub)
}

// countSnapshot derives the caught_up frame counts from a snapshot.
// Caller holds o.mu.
func (o *Orchestrator) countSnapshot(records []*session.Record) snapshotCounts {
	counts := snapshotCounts{Cycle: o.cycle, Sessions: len(records)}
	for _, record := range records {
		if record.State.IsWaiting() {
			counts.Queued++
		}
	}
	return counts
}

// notify delivers one event to the log and to every watch
// subscriber. Caller holds o.mu.
func (o *Orchestrator) notify(event session.Event) {
	attrs := []any{"cycle", event.Cycle}
	if !event.Account.IsZero() {
		attrs = append(attrs, "account", event.Account.String())
	}
	if !event.Category.IsZero() {
		attrs = append(attrs, "category", event.Category.String())
	}
	if !event.Session.IsZero() {
		attrs = append(attrs, "session", event.Session.Short())
	}
	if !event.Winner.IsZero() {
		attrs = append(attrs, "winner", event.Winner.String())
	}
	if event.Count > 0 {
		attrs = append(attrs, "count", event.Count)
	}
	o.logger.Info(string(event.Kind), attrs...)

	o.notifier.publish(event)
}
