// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

// Package sessionqueue provides the bounded FIFO of session
// identifiers kept per game category. Executors drain it in strict
// order via acknowledge; drop may remove an identifier from the
// middle, and the remainder keeps its relative order.
//
// A Queue carries no locking. The orchestrator owns every queue and
// serializes access under its own mutex.
package sessionqueue

import (
	"errors"
	"fmt"
	"slices"

	"github.com/arena-foundation/arena/lib/ref"
)

// DefaultCapacity is the queue bound used when a category's
// configuration does not name one. Sized so a stalled executor fleet
// backs pressure onto matching well before memory matters.
const DefaultCapacity = 64

var (
	// ErrFull: the queue is at capacity. The caller decides what to
	// do with the session it could not enqueue.
	ErrFull = errors.New("session queue full")

	// ErrEmpty: nothing to dequeue or peek.
	ErrEmpty = errors.New("session queue empty")
)

// Queue is a capacity-bounded FIFO of session identifiers.
type Queue struct {
	capacity int
	ids      []ref.SessionID
}

// New returns an empty queue with the given capacity. Panics if
// capacity is less than 1; capacities come from validated
// configuration, not user input.
func New(capacity int) *Queue {
	if capacity < 1 {
		panic(fmt.Sprintf("sessionqueue.New: capacity %d", capacity))
	}
	return &Queue{capacity: capacity}
}

// Load rebuilds a queue from its stored form: the configured
// capacity and the identifiers in order. Fails if the stored
// contents exceed the capacity (a sign the capacity was lowered
// out-of-band or the blob is corrupt).
func Load(capacity int, ids []ref.SessionID) (*Queue, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("sessionqueue: stored capacity %d", capacity)
	}
	if len(ids) > capacity {
		return nil, fmt.Errorf("sessionqueue: %d stored entries exceed capacity %d", len(ids), capacity)
	}
	return &Queue{capacity: capacity, ids: slices.Clone(ids)}, nil
}

// Enqueue appends id at the tail. Returns ErrFull at capacity.
func (q *Queue) Enqueue(id ref.SessionID) error {
	if len(q.ids) >= q.capacity {
		return fmt.Errorf("%w: capacity %d", ErrFull, q.capacity)
	}
	q.ids = append(q.ids, id)
	return nil
}

// Dequeue removes and returns the head. Returns ErrEmpty on an
// empty queue.
func (q *Queue) Dequeue() (ref.SessionID, error) {
	if len(q.ids) == 0 {
		return ref.SessionID{}, ErrEmpty
	}
	id := q.ids[0]
	q.ids = slices.Delete(q.ids, 0, 1)
	return id, nil
}

// Peek returns the head without removing it. Returns ErrEmpty on an
// empty queue.
func (q *Queue) Peek() (ref.SessionID, error) {
	if len(q.ids) == 0 {
		return ref.SessionID{}, ErrEmpty
	}
	return q.ids[0], nil
}

// Remove deletes the first occurrence of id, wherever it sits, and
// reports whether it was present. The remaining identifiers keep
// their relative order.
func (q *Queue) Remove(id ref.SessionID) bool {
	i := slices.Index(q.ids, id)
	if i < 0 {
		return false
	}
	q.ids = slices.Delete(q.ids, i, i+1)
	return true
}

// Contains reports whether id is in the queue.
func (q *Queue) Contains(id ref.SessionID) bool {
	return slices.Contains(q.ids, id)
}

// Len returns the number of queued identifiers.
func (q *Queue) Len() int { return len(q.ids) }

// Capacity returns the configured bound.
func (q *Queue) Capacity() int { return q.capacity }

// IDs returns a copy of the queued identifiers in order, head
// first. The copy is the read surface and the stored form; the
// queue's own slice never escapes.
func (q *Queue) IDs() []ref.SessionID {
	return slices.Clone(q.ids)
}
