// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/arena-foundation/arena/lib/clock"
	"github.com/arena-foundation/arena/lib/entropy"
	"github.com/arena-foundation/arena/lib/matchpool"
	"github.com/arena-foundation/arena/lib/ref"
	"github.com/arena-foundation/arena/lib/schema/session"
)

// driverInterval is the tick interval used in driver tests.
const driverInterval = time.Minute

type driverOpts struct {
	sweepCycles int
	entropy     entropy.Source
	archiver    *archiver
}

type driverEnv struct {
	driver       *driver
	orchestrator *Orchestrator
	store        *Store
	clock        *clock.FakeClock
}

// newDriverEnv builds a driver over a real store and a fake clock.
// The driver is not running; tests start it themselves.
func newDriverEnv(t *testing.T, opts driverOpts) *driverEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := testStore(t)

	source := opts.entropy
	if source == nil {
		source = entropy.System()
	}
	orchestrator, err := NewOrchestrator(context.Background(), OrchestratorConfig{
		Store:    store,
		Pool:     matchpool.NewPool(2),
		Entropy:  source,
		Logger:   logger,
		Archiver: opts.archiver,
	})
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}

	fake := clock.Fake(testClockEpoch)
	return &driverEnv{
		driver: &driver{
			orchestrator: orchestrator,
			clock:        fake,
			logger:       logger,
			interval:     driverInterval,
			sweepCycles:  opts.sweepCycles,
		},
		orchestrator: orchestrator,
		store:        store,
		clock:        fake,
	}
}

// start runs the driver until the test ends and waits for its ticker
// to register before returning.
func (env *driverEnv) start(t *testing.T) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		env.driver.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	env.clock.WaitForTimers(1)
}

// waitForCycle polls until the orchestrator reaches the given cycle.
func waitForCycle(t *testing.T, o *Orchestrator, want uint64) {
	t.Helper()
	for range 500 {
		if o.Cycle() >= want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("cycle did not reach %d (at %d)", want, o.Cycle())
}

// waitForSessionGone polls until the store no longer has the session.
func waitForSessionGone(t *testing.T, store *Store, id ref.SessionID) {
	t.Helper()
	for range 500 {
		record, err := store.Session(context.Background(), id)
		if err != nil {
			t.Fatalf("Session: %v", err)
		}
		if record == nil {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("session %s still in the registry", id.Short())
}

func TestDriverRunsCyclePerTick(t *testing.T) {
	env := newDriverEnv(t, driverOpts{})
	o := env.orchestrator

	queueAccounts(t, o, ada, bob)
	sub, _, _ := subscribe(t, o)
	env.start(t)

	env.clock.Advance(driverInterval)
	event := nextEvent(t, sub)
	if event.Kind != session.EventSessionQueued {
		t.Fatalf("event kind: got %q, want %q", event.Kind, session.EventSessionQueued)
	}
	if event.Cycle != 1 {
		t.Errorf("event cycle: got %d, want 1", event.Cycle)
	}

	record, err := env.store.Session(context.Background(), event.Session)
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if record == nil || !record.State.IsWaiting() {
		t.Fatalf("created session: got %+v, want waiting", record)
	}

	// An empty pool still advances the cycle counter.
	env.clock.Advance(driverInterval)
	waitForCycle(t, o, 2)
}

func TestDriverSweepCompactsOnSchedule(t *testing.T) {
	env := newDriverEnv(t, driverOpts{sweepCycles: 2, archiver: testArchiver(t)})
	o := env.orchestrator
	ctx := context.Background()

	// A session finished in cycle 1, before the driver starts.
	queueAccounts(t, o, ada, bob)
	if err := o.RunCycle(ctx); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	entries, err := o.QueueEntries(ctx, defaultCategory)
	if err != nil {
		t.Fatalf("QueueEntries: %v", err)
	}
	id := entries.IDs[0]
	if err := o.Finish(ctx, gamma, id, ada); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	env.start(t)

	// The first tick is cycle 2, a sweep cycle: the finished session
	// is archived out of the registry.
	env.clock.Advance(driverInterval)
	waitForCycle(t, o, 2)
	waitForSessionGone(t, env.store, id)
}

func TestDriverNoSweepWhenDisabled(t *testing.T) {
	env := newDriverEnv(t, driverOpts{archiver: testArchiver(t)})
	o := env.orchestrator
	ctx := context.Background()

	queueAccounts(t, o, ada, bob)
	if err := o.RunCycle(ctx); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	entries, err := o.QueueEntries(ctx, defaultCategory)
	if err != nil {
		t.Fatalf("QueueEntries: %v", err)
	}
	id := entries.IDs[0]
	if err := o.Finish(ctx, gamma, id, bob); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	env.start(t)

	// Tick one cycle at a time: the ticker buffers a single tick, so
	// back-to-back advances would collapse into one.
	for want := uint64(2); want <= 5; want++ {
		env.clock.Advance(driverInterval)
		waitForCycle(t, o, want)
	}

	// Zero sweepCycles means compact only happens on demand.
	record, err := env.store.Session(ctx, id)
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if record == nil {
		t.Fatal("finished session was archived without a sweep schedule")
	}
}

func TestDriverSurvivesCycleFailure(t *testing.T) {
	env := newDriverEnv(t, driverOpts{
		entropy: entropy.Failing(errors.New("entropy exhausted")),
	})
	o := env.orchestrator

	// With participants pooled and a failing entropy source, every
	// cycle errors after advancing the counter. The driver logs and
	// keeps ticking.
	queueAccounts(t, o, ada, bob)
	env.start(t)

	env.clock.Advance(driverInterval)
	waitForCycle(t, o, 1)
	env.clock.Advance(driverInterval)
	waitForCycle(t, o, 2)

	if o.PoolSize() != 2 {
		t.Errorf("pool size: got %d, want 2", o.PoolSize())
	}
}
