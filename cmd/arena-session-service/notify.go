// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"sync/atomic"

	"github.com/arena-foundation/arena/lib/schema/session"
)

// subscriberChannelSize is the per-subscriber event buffer. Sized
// for bursts (a busy cycle emits at most a few dozen events); a
// subscriber that cannot drain this within a heartbeat interval is
// resynced rather than allowed to stall the orchestrator.
const subscriberChannelSize = 256

// subscriber is one active watch stream. The orchestrator publishes
// events into channel with a non-blocking send; the stream handler
// owns the receive side and closes done when the connection ends.
type subscriber struct {
	// channel carries live events from the orchestrator to the
	// stream handler.
	channel chan session.Event

	// resync is set when the channel was full and an event was
	// dropped. The stream handler clears it, discards the buffered
	// backlog, and sends the client a resync frame with a fresh
	// snapshot.
	resync atomic.Bool

	// done is closed by the stream handler when the connection
	// ends. Publishing prunes subscribers whose done is closed.
	done chan struct{}
}

// notifier is the watch-stream fanout registry. It has no lock of
// its own: every method is called with the orchestrator mutex held,
// which also orders publishes against subscribe/unsubscribe.
type notifier struct {
	subscribers []*subscriber
}

func newNotifier() *notifier {
	return &notifier{}
}

// subscribe registers a new subscriber.
func (n *notifier) subscribe() *subscriber {
	sub := &subscriber{
		channel: make(chan session.Event, subscriberChannelSize),
		done:    make(chan struct{}),
	}
	n.subscribers = append(n.subscribers, sub)
	return sub
}

// unsubscribe removes a subscriber. Idempotent: a subscriber already
// pruned by publish is simply not found.
func (n *notifier) unsubscribe(sub *subscriber) {
	for i, candidate := range n.subscribers {
		if candidate == sub {
			n.subscribers = append(n.subscribers[:i], n.subscribers[i+1:]...)
			return
		}
	}
}

// publish delivers an event to every live subscriber without
// blocking. A full channel marks the subscriber for resync and drops
// the event; a closed-done subscriber is pruned. Iterates in reverse
// so pruning does not skip entries.
func (n *notifier) publish(event session.Event) {
	for i := len(n.subscribers) - 1; i >= 0; i-- {
		sub := n.subscribers[i]

		select {
		case <-sub.done:
			n.subscribers = append(n.subscribers[:i], n.subscribers[i+1:]...)
			continue
		default:
		}

		select {
		case sub.channel <- event:
		default:
			sub.resync.Store(true)
		}
	}
}
