// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"slices"
	"sync"
	"time"
)

// Fake returns a FakeClock frozen at the given time. Nothing fires
// until Advance moves the clock past a waiter's deadline.
//
// FakeClock is safe for concurrent use.
func Fake(initial time.Time) *FakeClock {
	c := &FakeClock{now: initial}
	c.registered = sync.NewCond(&c.mu)
	return c
}

// FakeClock is a deterministic Clock for tests. Time moves only via
// Advance. Timers, tickers, and sleeps register waiters that fire,
// in deadline order, when Advance crosses their deadline.
//
// AfterFunc callbacks run synchronously inside Advance. Calling
// Sleep or Advance from inside such a callback deadlocks.
type FakeClock struct {
	mu         sync.Mutex
	now        time.Time
	waiters    []*waiter
	registered *sync.Cond
}

// waiter is one pending timer, ticker, or sleep.
type waiter struct {
	due time.Time

	// ch receives the fire time for After, Sleep, and ticker
	// waiters; nil for AfterFunc.
	ch chan time.Time

	// fn runs synchronously during Advance for AfterFunc waiters;
	// nil otherwise.
	fn func()

	// every is non-zero for tickers: after firing, the waiter is
	// rescheduled at due + every.
	every time.Duration

	// stopped waiters are skipped and dropped by the next Advance.
	stopped bool

	// fired marks a one-shot waiter that already fired, so Stop
	// and Reset can report the truth.
	fired bool
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// After returns a channel that receives once Advance crosses the
// deadline. A non-positive d delivers immediately.
func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan time.Time, 1)
	if d <= 0 {
		ch <- c.now
		return ch
	}

	c.waiters = append(c.waiters, &waiter{due: c.now.Add(d), ch: ch})
	c.registered.Broadcast()
	return ch
}

// AfterFunc schedules f after duration d. The returned Timer has a
// nil C. A non-positive d runs f synchronously before returning.
func (c *FakeClock) AfterFunc(d time.Duration, f func()) *Timer {
	if d <= 0 {
		f()
		return &Timer{
			stop:  func() bool { return false },
			reset: func(time.Duration) bool { return false },
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	w := &waiter{due: c.now.Add(d), fn: f}
	c.waiters = append(c.waiters, w)
	c.registered.Broadcast()

	return &Timer{
		stop: func() bool {
			c.mu.Lock()
			defer c.mu.Unlock()
			if w.stopped || w.fired {
				return false
			}
			w.stopped = true
			return true
		},
		reset: func(d time.Duration) bool {
			c.mu.Lock()
			defer c.mu.Unlock()
			wasActive := !w.stopped && !w.fired
			w.stopped = false
			w.fired = false
			w.due = c.now.Add(d)
			if !wasActive {
				// Fired waiters were removed from the
				// list; put it back.
				c.waiters = append(c.waiters, w)
				c.registered.Broadcast()
			}
			return wasActive
		},
	}
}

// NewTicker returns a Ticker firing every d. Panics if d <= 0.
func (c *FakeClock) NewTicker(d time.Duration) *Ticker {
	if d <= 0 {
		panic("clock: non-positive interval for NewTicker")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan time.Time, 1)
	w := &waiter{due: c.now.Add(d), ch: ch, every: d}
	c.waiters = append(c.waiters, w)
	c.registered.Broadcast()

	return &Ticker{
		C: ch,
		stop: func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			w.stopped = true
		},
		reset: func(d time.Duration) {
			c.mu.Lock()
			defer c.mu.Unlock()
			w.every = d
			w.due = c.now.Add(d)
			w.stopped = false
		},
	}
}

// Sleep blocks the calling goroutine until Advance crosses the
// deadline. A non-positive d returns immediately.
func (c *FakeClock) Sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	<-c.After(d)
}

// Advance moves the clock forward by d and fires every waiter whose
// deadline falls within the new time, in deadline order. Channel
// sends are non-blocking (a full ticker channel drops the tick,
// matching time.Ticker). AfterFunc callbacks run in the calling
// goroutine; if a callback registers a new waiter that is already
// due, that waiter fires in the same Advance.
//
// A ticker whose interval fits multiple times into the advance fires
// once per elapsed interval, though only one tick can sit in its
// buffer.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	target := c.now
	c.mu.Unlock()

	for {
		due := c.takeDue(target)
		if len(due) == 0 {
			return
		}
		slices.SortStableFunc(due, func(a, b *waiter) int {
			return a.due.Compare(b.due)
		})
		for _, w := range due {
			switch {
			case w.fn != nil:
				w.fn()
			case w.ch != nil:
				select {
				case w.ch <- target:
				default:
				}
			}
		}
	}
}

// takeDue removes waiters due at or before target from the pending
// list, reschedules tickers for their next interval, and returns
// the batch to fire.
func (c *FakeClock) takeDue(target time.Time) []*waiter {
	c.mu.Lock()
	defer c.mu.Unlock()

	var due, keep []*waiter
	for _, w := range c.waiters {
		switch {
		case w.stopped:
			// Dropped.
		case !w.due.After(target):
			due = append(due, w)
		default:
			keep = append(keep, w)
		}
	}

	for _, w := range due {
		if w.every > 0 {
			w.due = w.due.Add(w.every)
			keep = append(keep, w)
		} else {
			w.fired = true
		}
	}

	c.waiters = keep
	return due
}

// WaitForTimers blocks until at least n waiters are pending. Use it
// to close the race between a goroutine registering its timer and
// the test advancing the clock:
//
//	go func() { fc.Sleep(5 * time.Second) }()
//	fc.WaitForTimers(1)
//	fc.Advance(5 * time.Second)
func (c *FakeClock) WaitForTimers(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.activeLocked() < n {
		c.registered.Wait()
	}
}

// PendingCount returns the number of active (not stopped, not yet
// fired) waiters.
func (c *FakeClock) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeLocked()
}

func (c *FakeClock) activeLocked() int {
	n := 0
	for _, w := range c.waiters {
		if !w.stopped {
			n++
		}
	}
	return n
}
