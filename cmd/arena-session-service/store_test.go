// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/arena-foundation/arena/lib/ref"
	"github.com/arena-foundation/arena/lib/schema/session"
)

// testStore opens a session store backed by a temporary database
// file. The store is closed automatically when the test completes.
func testStore(t *testing.T) *Store {
	t.Helper()

	store, err := OpenStore(StoreConfig{
		Path:   filepath.Join(t.TempDir(), "sessions.db"),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return store
}

// storeRecord builds a Waiting record with a synthetic identifier.
func storeRecord(seq byte, queuedCycle uint64, players ...ref.AccountID) *session.Record {
	record := &session.Record{
		ID:       ref.SessionIDFromDigest([32]byte{seq}),
		Category: defaultCategory,
		Players:  players,
		State:    session.StateWaiting(),
	}
	record.StateChange[session.CycleQueued] = queuedCycle
	return record
}

// createSession inserts a record through CreateSession, appending it
// to its category queue. The nonce advances by one per call.
func createSession(t *testing.T, store *Store, record *session.Record) {
	t.Helper()
	ctx := context.Background()

	queue, ok, err := store.Queue(ctx, record.Category)
	if err != nil {
		t.Fatalf("Queue: %v", err)
	}
	if !ok {
		queue = queueState{Category: record.Category, Capacity: 8}
	}
	queue.IDs = append(queue.IDs, record.ID)

	nonce, err := store.Nonce(ctx)
	if err != nil {
		t.Fatalf("Nonce: %v", err)
	}
	if err := store.CreateSession(ctx, record, nonce+1, queue); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
}

// --- Nonce and cycle tests ---

func TestStoreFreshDatabase(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	nonce, err := store.Nonce(ctx)
	if err != nil {
		t.Fatalf("Nonce: %v", err)
	}
	if nonce != 0 {
		t.Errorf("nonce: got %d, want 0", nonce)
	}

	cycle, err := store.Cycle(ctx)
	if err != nil {
		t.Fatalf("Cycle: %v", err)
	}
	if cycle != 0 {
		t.Errorf("cycle: got %d, want 0", cycle)
	}

	admin, err := store.Admin(ctx)
	if err != nil {
		t.Fatalf("Admin: %v", err)
	}
	if !admin.IsZero() {
		t.Errorf("admin: got %s, want unset", admin)
	}
}

func TestAdvanceCycleSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.db")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	store, err := OpenStore(StoreConfig{Path: path, Logger: logger})
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	for want := uint64(1); want <= 3; want++ {
		cycle, err := store.AdvanceCycle(ctx)
		if err != nil {
			t.Fatalf("AdvanceCycle: %v", err)
		}
		if cycle != want {
			t.Errorf("AdvanceCycle: got %d, want %d", cycle, want)
		}
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Reopening passes the schema version check and resumes the
	// counter instead of reusing cycle numbers.
	store, err = OpenStore(StoreConfig{Path: path, Logger: logger})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer store.Close()

	cycle, err := store.Cycle(ctx)
	if err != nil {
		t.Fatalf("Cycle: %v", err)
	}
	if cycle != 3 {
		t.Errorf("cycle after reopen: got %d, want 3", cycle)
	}
}

// --- Session tests ---

func TestCreateSessionRoundTrip(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	record := storeRecord(1, 7, ada, bob)
	createSession(t, store, record)

	nonce, err := store.Nonce(ctx)
	if err != nil {
		t.Fatalf("Nonce: %v", err)
	}
	if nonce != 1 {
		t.Errorf("nonce: got %d, want 1", nonce)
	}

	loaded, err := store.Session(ctx, record.ID)
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if loaded == nil {
		t.Fatal("Session returned nil for a created record")
	}
	if loaded.ID != record.ID {
		t.Errorf("id: got %s, want %s", loaded.ID, record.ID)
	}
	if loaded.Category != defaultCategory {
		t.Errorf("category: got %s, want %s", loaded.Category, defaultCategory)
	}
	if !loaded.Executor.IsZero() {
		t.Errorf("executor: got %s, want unset", loaded.Executor)
	}
	if len(loaded.Players) != 2 || loaded.Players[0] != ada || loaded.Players[1] != bob {
		t.Errorf("players: got %v, want [%s %s]", loaded.Players, ada, bob)
	}
	if !loaded.State.IsWaiting() {
		t.Errorf("state: got %v, want waiting", loaded.State)
	}
	if loaded.StateChange[session.CycleQueued] != 7 {
		t.Errorf("queued cycle: got %d, want 7", loaded.StateChange[session.CycleQueued])
	}

	queue, ok, err := store.Queue(ctx, defaultCategory)
	if err != nil {
		t.Fatalf("Queue: %v", err)
	}
	if !ok {
		t.Fatal("queue missing after create")
	}
	if queue.Capacity != 8 {
		t.Errorf("capacity: got %d, want 8", queue.Capacity)
	}
	if len(queue.IDs) != 1 || queue.IDs[0] != record.ID {
		t.Errorf("entries: got %v, want [%s]", queue.IDs, record.ID)
	}
}

func TestCreateSessionRollsBackAsOne(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	record := storeRecord(1, 1, ada, bob)
	createSession(t, store, record)

	// Inserting the same identifier again violates the primary key.
	// The nonce write and queue write in the same transaction roll
	// back with it.
	queue := queueState{Category: defaultCategory, Capacity: 8, IDs: []ref.SessionID{record.ID, record.ID}}
	err := store.CreateSession(ctx, record, 99, queue)
	if err == nil {
		t.Fatal("expected error for duplicate id, got nil")
	}

	nonce, err := store.Nonce(ctx)
	if err != nil {
		t.Fatalf("Nonce: %v", err)
	}
	if nonce != 1 {
		t.Errorf("nonce after failed create: got %d, want 1", nonce)
	}
	stored, _, err := store.Queue(ctx, defaultCategory)
	if err != nil {
		t.Fatalf("Queue: %v", err)
	}
	if len(stored.IDs) != 1 {
		t.Errorf("queue after failed create: got %d entries, want 1", len(stored.IDs))
	}
}

func TestSessionAbsent(t *testing.T) {
	store := testStore(t)

	record, err := store.Session(context.Background(), ref.SessionIDFromDigest([32]byte{0xee}))
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if record != nil {
		t.Errorf("got %+v, want nil", record)
	}
}

func TestSaveSessionRewritesMutableColumns(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	record := storeRecord(1, 1, ada, bob)
	createSession(t, store, record)

	record.Executor = gamma
	record.State = session.StateFinished(bob)
	record.StateChange[session.CycleAccepted] = 2
	record.StateChange[session.CycleRunning] = 3
	record.StateChange[session.CycleFinished] = 5
	if err := store.SaveSession(ctx, record); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	loaded, err := store.Session(ctx, record.ID)
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if loaded.Executor != gamma {
		t.Errorf("executor: got %s, want %s", loaded.Executor, gamma)
	}
	if !loaded.State.IsFinished() {
		t.Fatalf("state: got %v, want finished", loaded.State)
	}
	winner, ok := loaded.State.Winner()
	if !ok || winner != bob {
		t.Errorf("winner: got %v %v, want %s", winner, ok, bob)
	}
	// Identity columns never change on save.
	if loaded.Category != defaultCategory {
		t.Errorf("category: got %s, want %s", loaded.Category, defaultCategory)
	}
	if len(loaded.Players) != 2 {
		t.Errorf("players: got %v", loaded.Players)
	}
	want := [session.TimelineSlots]uint64{1, 2, 3, 5}
	if loaded.StateChange != want {
		t.Errorf("timeline: got %v, want %v", loaded.StateChange, want)
	}
}

func TestAcknowledgeSessionCommitsRecordAndQueue(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	first := storeRecord(1, 1, ada, bob)
	second := storeRecord(2, 1, carol, dan)
	createSession(t, store, first)
	createSession(t, store, second)

	first.State = session.StateAccepted()
	first.StateChange[session.CycleAccepted] = 2
	remainder := queueState{Category: defaultCategory, Capacity: 8, IDs: []ref.SessionID{second.ID}}
	if err := store.AcknowledgeSession(ctx, first, remainder); err != nil {
		t.Fatalf("AcknowledgeSession: %v", err)
	}

	loaded, err := store.Session(ctx, first.ID)
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if !loaded.State.IsAccepted() {
		t.Errorf("state: got %v, want accepted", loaded.State)
	}
	queue, _, err := store.Queue(ctx, defaultCategory)
	if err != nil {
		t.Fatalf("Queue: %v", err)
	}
	if len(queue.IDs) != 1 || queue.IDs[0] != second.ID {
		t.Errorf("queue: got %v, want [%s]", queue.IDs, second.ID)
	}
}

func TestDropSessionUpdatesQueue(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	first := storeRecord(1, 1, ada, bob)
	second := storeRecord(2, 1, carol, dan)
	createSession(t, store, first)
	createSession(t, store, second)

	remainder := queueState{Category: defaultCategory, Capacity: 8, IDs: []ref.SessionID{second.ID}}
	if err := store.DropSession(ctx, first.ID, &remainder); err != nil {
		t.Fatalf("DropSession: %v", err)
	}

	record, err := store.Session(ctx, first.ID)
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if record != nil {
		t.Error("dropped session still loads")
	}
	queue, _, err := store.Queue(ctx, defaultCategory)
	if err != nil {
		t.Fatalf("Queue: %v", err)
	}
	if len(queue.IDs) != 1 || queue.IDs[0] != second.ID {
		t.Errorf("queue: got %v, want [%s]", queue.IDs, second.ID)
	}

	// A nil queue leaves the stored queue untouched, and deleting an
	// absent row is not an error.
	if err := store.DropSession(ctx, first.ID, nil); err != nil {
		t.Fatalf("DropSession absent: %v", err)
	}
}

func TestDeleteSessionsBatch(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	first := storeRecord(1, 1, ada, bob)
	second := storeRecord(2, 1, carol, dan)
	third := storeRecord(3, 2, gamma, ada)
	createSession(t, store, first)
	createSession(t, store, second)
	createSession(t, store, third)

	if err := store.DeleteSessions(ctx, nil); err != nil {
		t.Fatalf("DeleteSessions(nil): %v", err)
	}

	if err := store.DeleteSessions(ctx, []ref.SessionID{first.ID, third.ID}); err != nil {
		t.Fatalf("DeleteSessions: %v", err)
	}
	counts, err := store.SessionCounts(ctx)
	if err != nil {
		t.Fatalf("SessionCounts: %v", err)
	}
	if counts["waiting"] != 1 {
		t.Errorf("counts: got %v, want 1 waiting", counts)
	}
}

// --- Queue and listing tests ---

func TestQueueAbsentCategory(t *testing.T) {
	store := testStore(t)

	_, ok, err := store.Queue(context.Background(), defaultCategory)
	if err != nil {
		t.Fatalf("Queue: %v", err)
	}
	if ok {
		t.Error("got ok=true for a category with no queue")
	}
}

func TestQueuesOrderedByCategory(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	other := storeRecord(2, 1, carol, dan)
	other.Category = ref.MustParseGameCategory("g2v1")
	createSession(t, store, other)
	createSession(t, store, storeRecord(1, 1, ada, bob))

	queues, err := store.Queues(ctx)
	if err != nil {
		t.Fatalf("Queues: %v", err)
	}
	if len(queues) != 2 {
		t.Fatalf("got %d queues, want 2", len(queues))
	}
	if queues[0].Category != defaultCategory || queues[1].Category != other.Category {
		t.Errorf("order: got [%s %s], want [%s %s]",
			queues[0].Category, queues[1].Category, defaultCategory, other.Category)
	}
	if len(queues[1].IDs) != 1 || queues[1].IDs[0] != other.ID {
		t.Errorf("g2v1 entries: got %v, want [%s]", queues[1].IDs, other.ID)
	}
}

func TestLiveSessionsExcludeFinished(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	late := storeRecord(1, 5, ada, bob)
	early := storeRecord(2, 2, carol, dan)
	finished := storeRecord(3, 1, gamma, ada)
	createSession(t, store, late)
	createSession(t, store, early)
	createSession(t, store, finished)

	finished.State = session.StateFinished(gamma)
	finished.StateChange[session.CycleFinished] = 6
	if err := store.SaveSession(ctx, finished); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	live, err := store.LiveSessions(ctx)
	if err != nil {
		t.Fatalf("LiveSessions: %v", err)
	}
	if len(live) != 2 {
		t.Fatalf("got %d live sessions, want 2", len(live))
	}
	// Ordered by the cycle they were queued in.
	if live[0].ID != early.ID || live[1].ID != late.ID {
		t.Errorf("order: got [%s %s], want [%s %s]",
			live[0].ID.Short(), live[1].ID.Short(), early.ID.Short(), late.ID.Short())
	}
}

func TestFinishedSessionsThroughCycle(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	running := storeRecord(1, 1, ada, bob)
	oldDone := storeRecord(2, 1, carol, dan)
	newDone := storeRecord(3, 1, gamma, ada)
	createSession(t, store, running)
	createSession(t, store, oldDone)
	createSession(t, store, newDone)

	oldDone.State = session.StateFinished(carol)
	oldDone.StateChange[session.CycleFinished] = 2
	newDone.State = session.StateFinished(gamma)
	newDone.StateChange[session.CycleFinished] = 4
	for _, record := range []*session.Record{oldDone, newDone} {
		if err := store.SaveSession(ctx, record); err != nil {
			t.Fatalf("SaveSession: %v", err)
		}
	}

	finished, err := store.FinishedSessions(ctx, 2)
	if err != nil {
		t.Fatalf("FinishedSessions: %v", err)
	}
	if len(finished) != 1 || finished[0].ID != oldDone.ID {
		t.Fatalf("through cycle 2: got %d records, want just %s", len(finished), oldDone.ID.Short())
	}
	winner, ok := finished[0].State.Winner()
	if !ok || winner != carol {
		t.Errorf("winner: got %v %v, want %s", winner, ok, carol)
	}

	finished, err = store.FinishedSessions(ctx, 4)
	if err != nil {
		t.Fatalf("FinishedSessions: %v", err)
	}
	if len(finished) != 2 {
		t.Fatalf("through cycle 4: got %d records, want 2", len(finished))
	}
	// Oldest finish first.
	if finished[0].ID != oldDone.ID || finished[1].ID != newDone.ID {
		t.Errorf("order: got [%s %s]", finished[0].ID.Short(), finished[1].ID.Short())
	}
}

func TestSessionCountsByPhase(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	first := storeRecord(1, 1, ada, bob)
	second := storeRecord(2, 1, carol, dan)
	third := storeRecord(3, 1, gamma, ada)
	createSession(t, store, first)
	createSession(t, store, second)
	createSession(t, store, third)

	second.State = session.StateRunning()
	if err := store.SaveSession(ctx, second); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
	third.State = session.StateFinished(gamma)
	if err := store.SaveSession(ctx, third); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	counts, err := store.SessionCounts(ctx)
	if err != nil {
		t.Fatalf("SessionCounts: %v", err)
	}
	want := map[string]int{"waiting": 1, "running": 1, "finished": 1}
	for phase, count := range want {
		if counts[phase] != count {
			t.Errorf("counts[%s]: got %d, want %d", phase, counts[phase], count)
		}
	}
}

// --- Admin tests ---

func TestSetAdminFirstWriteWins(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	if err := store.SetAdmin(ctx, ada); err != nil {
		t.Fatalf("SetAdmin: %v", err)
	}
	// Re-claiming the same identity is a no-op.
	if err := store.SetAdmin(ctx, ada); err != nil {
		t.Fatalf("SetAdmin repeat: %v", err)
	}

	err := store.SetAdmin(ctx, bob)
	if err == nil {
		t.Fatal("expected error claiming a second admin, got nil")
	}
	if !strings.Contains(err.Error(), "already ada.lovelace") {
		t.Errorf("error: got %q", err)
	}

	admin, err := store.Admin(ctx)
	if err != nil {
		t.Fatalf("Admin: %v", err)
	}
	if admin != ada {
		t.Errorf("admin: got %s, want %s", admin, ada)
	}
}

// --- Rules tests ---

func TestRuleSetRoundTrip(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	rules, err := store.RuleSet(ctx, defaultCategory)
	if err != nil {
		t.Fatalf("RuleSet: %v", err)
	}
	if rules != nil {
		t.Errorf("got %+v, want nil for unset category", rules)
	}

	stored := session.RuleSet{
		Category:        defaultCategory,
		PlayersPerMatch: [2]uint8{2, 2},
		Params:          map[string]any{"rounds": uint64(3)},
	}
	if err := store.SaveRuleSet(ctx, stored); err != nil {
		t.Fatalf("SaveRuleSet: %v", err)
	}

	rules, err = store.RuleSet(ctx, defaultCategory)
	if err != nil {
		t.Fatalf("RuleSet: %v", err)
	}
	if rules == nil {
		t.Fatal("RuleSet returned nil after save")
	}
	if rules.Category != defaultCategory {
		t.Errorf("category: got %s, want %s", rules.Category, defaultCategory)
	}
	if rules.PlayersPerMatch != [2]uint8{2, 2} {
		t.Errorf("players per match: got %v", rules.PlayersPerMatch)
	}
	if rules.Params["rounds"] != uint64(3) {
		t.Errorf("params: got %v", rules.Params)
	}

	// Saving again replaces the stored document.
	stored.PlayersPerMatch = [2]uint8{2, 4}
	if err := store.SaveRuleSet(ctx, stored); err != nil {
		t.Fatalf("SaveRuleSet replace: %v", err)
	}
	rules, err = store.RuleSet(ctx, defaultCategory)
	if err != nil {
		t.Fatalf("RuleSet: %v", err)
	}
	if rules.PlayersPerMatch != [2]uint8{2, 4} {
		t.Errorf("players per match after replace: got %v", rules.PlayersPerMatch)
	}
}

func TestRuleSetsOrderedByCategory(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	second := session.RuleSet{Category: ref.MustParseGameCategory("g2v1"), PlayersPerMatch: [2]uint8{3, 3}}
	first := session.RuleSet{Category: defaultCategory, PlayersPerMatch: [2]uint8{2, 2}}
	if err := store.SaveRuleSet(ctx, second); err != nil {
		t.Fatalf("SaveRuleSet: %v", err)
	}
	if err := store.SaveRuleSet(ctx, first); err != nil {
		t.Fatalf("SaveRuleSet: %v", err)
	}

	all, err := store.RuleSets(ctx)
	if err != nil {
		t.Fatalf("RuleSets: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("got %d rule sets, want 2", len(all))
	}
	if all[0].Category != first.Category || all[1].Category != second.Category {
		t.Errorf("order: got [%s %s], want [%s %s]",
			all[0].Category, all[1].Category, first.Category, second.Category)
	}
}
