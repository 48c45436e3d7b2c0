// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time abstraction.
//
// Production code takes a Clock instead of calling the time package
// directly; Real() restores standard behavior, Fake() gives tests a
// clock that moves only when told to.
//
// The cycle driver, the watch-stream heartbeat, and token expiry all
// run on a Clock, so their tests advance time deterministically:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	d := newDriver(store, c)
//	go d.run(ctx)
//	c.WaitForTimers(1)              // driver registered its ticker
//	c.Advance(500 * time.Millisecond) // one cycle fires
//
// WaitForTimers closes the race between a goroutine registering its
// timer and the test advancing past the deadline; without it a test
// can advance before the timer exists and then hang.
package clock
