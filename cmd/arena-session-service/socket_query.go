// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/arena-foundation/arena/lib/codec"
	"github.com/arena-foundation/arena/lib/ref"
	"github.com/arena-foundation/arena/lib/schema/session"
	"github.com/arena-foundation/arena/lib/servicetoken"
)

// sessionRequest is the request for the "session" action.
type sessionRequest struct {
	// Session is the identifier to look up.
	Session string `cbor:"session"`
}

// handleSession returns one session record.
func (s *SessionService) handleSession(ctx context.Context, token *servicetoken.Token, raw []byte) (any, error) {
	if err := requireGrant(token, session.ActionRead); err != nil {
		return nil, err
	}

	var request sessionRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	if request.Session == "" {
		return nil, errors.New("missing required field: session")
	}
	id, err := ref.ParseSessionID(request.Session)
	if err != nil {
		return nil, fmt.Errorf("invalid session: %w", err)
	}

	return s.orchestrator.Session(ctx, id)
}

// queueEntriesRequest is the request for the "queue-entries" action.
type queueEntriesRequest struct {
	// Category names the queue to inspect.
	Category string `cbor:"category"`
}

// queueEntriesResponse is the response to the "queue-entries" action.
type queueEntriesResponse struct {
	Category ref.GameCategory `cbor:"category"`

	// Entries lists the waiting session identifiers in queue order,
	// head first.
	Entries []ref.SessionID `cbor:"entries"`

	// Capacity is the most entries the queue will hold.
	Capacity int `cbor:"capacity"`
}

// handleQueueEntries returns the ordered contents of one category
// queue.
func (s *SessionService) handleQueueEntries(ctx context.Context, token *servicetoken.Token, raw []byte) (any, error) {
	if err := requireGrant(token, session.ActionRead); err != nil {
		return nil, err
	}

	var request queueEntriesRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	if request.Category == "" {
		return nil, errors.New("missing required field: category")
	}
	category, err := ref.ParseGameCategory(request.Category)
	if err != nil {
		return nil, fmt.Errorf("invalid category: %w", err)
	}

	queue, err := s.orchestrator.QueueEntries(ctx, category)
	if err != nil {
		return nil, err
	}
	entries := queue.IDs
	if entries == nil {
		entries = []ref.SessionID{}
	}
	return queueEntriesResponse{
		Category: queue.Category,
		Entries:  entries,
		Capacity: queue.Capacity,
	}, nil
}

// rulesRequest is the request for the "rules" action.
type rulesRequest struct {
	// Category restricts the response to one category's rules.
	// Empty returns every stored rule set.
	Category string `cbor:"category,omitempty"`
}

// rulesResponse is the response to the "rules" action.
type rulesResponse struct {
	Rules []session.RuleSet `cbor:"rules"`
}

// handleRules returns stored rule documents, either one category's
// or all of them.
func (s *SessionService) handleRules(ctx context.Context, token *servicetoken.Token, raw []byte) (any, error) {
	if err := requireGrant(token, session.ActionRead); err != nil {
		return nil, err
	}

	var request rulesRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	if request.Category == "" {
		all, err := s.store.RuleSets(ctx)
		if err != nil {
			return nil, err
		}
		if all == nil {
			all = []session.RuleSet{}
		}
		return rulesResponse{Rules: all}, nil
	}

	category, err := ref.ParseGameCategory(request.Category)
	if err != nil {
		return nil, fmt.Errorf("invalid category: %w", err)
	}
	rules, err := s.store.RuleSet(ctx, category)
	if err != nil {
		return nil, err
	}
	if rules == nil {
		return nil, fmt.Errorf("no rules stored for category %s", category)
	}
	return rulesResponse{Rules: []session.RuleSet{*rules}}, nil
}
