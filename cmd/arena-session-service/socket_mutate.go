// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/arena-foundation/arena/lib/codec"
	"github.com/arena-foundation/arena/lib/ref"
	"github.com/arena-foundation/arena/lib/rulesdef"
	"github.com/arena-foundation/arena/lib/schema/session"
	"github.com/arena-foundation/arena/lib/servicetoken"
)

// queueRequest is the request for the "queue" action.
type queueRequest struct {
	// Account queues an account other than the token subject.
	// Requires a grant whose target patterns cover that account.
	// Empty means the subject queues itself.
	Account string `cbor:"account,omitempty"`
}

// queueResponse is the response to the "queue" action.
type queueResponse struct {
	// Account is the account admitted to the matching pool.
	Account ref.AccountID `cbor:"account"`
}

// handleQueue admits an account into the matching pool.
func (s *SessionService) handleQueue(ctx context.Context, token *servicetoken.Token, raw []byte) (any, error) {
	var request queueRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	account := token.Subject
	if request.Account != "" {
		parsed, err := ref.ParseAccountID(request.Account)
		if err != nil {
			return nil, fmt.Errorf("invalid account: %w", err)
		}
		account = parsed
	}
	if err := requireGrantFor(token, session.ActionQueue, account); err != nil {
		return nil, err
	}

	if err := s.orchestrator.Queue(ctx, account); err != nil {
		return nil, err
	}
	return queueResponse{Account: account}, nil
}

// dropRequest is the request for the "drop" action.
type dropRequest struct {
	// Session is the identifier to remove from the registry.
	Session string `cbor:"session"`

	// Category names the queue to scrub the identifier from.
	Category string `cbor:"category"`
}

// dropResponse is the response to the "drop" action.
type dropResponse struct {
	// Session is the identifier that was dropped (or was already
	// absent; dropping an unknown session succeeds).
	Session ref.SessionID `cbor:"session"`
}

// handleDrop removes a session from the registry and its category
// queue.
func (s *SessionService) handleDrop(ctx context.Context, token *servicetoken.Token, raw []byte) (any, error) {
	if err := requireGrant(token, session.ActionDrop); err != nil {
		return nil, err
	}

	var request dropRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	if request.Session == "" {
		return nil, errors.New("missing required field: session")
	}
	if request.Category == "" {
		return nil, errors.New("missing required field: category")
	}
	id, err := ref.ParseSessionID(request.Session)
	if err != nil {
		return nil, fmt.Errorf("invalid session: %w", err)
	}
	category, err := ref.ParseGameCategory(request.Category)
	if err != nil {
		return nil, fmt.Errorf("invalid category: %w", err)
	}

	if err := s.orchestrator.Drop(ctx, token.Subject, id, category); err != nil {
		return nil, err
	}
	return dropResponse{Session: id}, nil
}

// acknowledgeRequest is the request for the "acknowledge" action.
type acknowledgeRequest struct {
	// Category names the queue being acknowledged from.
	Category string `cbor:"category"`

	// Sessions are the identifiers to claim, which must match the
	// queue head order exactly. At most session.MaxAcknowledgeBatch.
	Sessions []string `cbor:"sessions"`
}

// acknowledgeResponse is the response to the "acknowledge" action.
type acknowledgeResponse struct {
	// Acknowledged is the number of sessions advanced to Accepted.
	// Always the full batch on success; a mismatch partway through
	// is an error whose message reports the committed prefix.
	Acknowledged int `cbor:"acknowledged"`
}

// handleAcknowledge claims sessions off the head of a category
// queue in strict order.
func (s *SessionService) handleAcknowledge(ctx context.Context, token *servicetoken.Token, raw []byte) (any, error) {
	if err := requireGrant(token, session.ActionAcknowledge); err != nil {
		return nil, err
	}

	var request acknowledgeRequest
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
	ids := make([]ref.SessionID, len(request.Sessions))
	for i, text := range request.Sessions {
		id, err := ref.ParseSessionID(text)
		if err != nil {
			return nil, fmt.Errorf("invalid session at index %d: %w", i, err)
		}
		ids[i] = id
	}

	count, err := s.orchestrator.Acknowledge(ctx, token.Subject, category, ids)
	if err != nil {
		return nil, err
	}
	return acknowledgeResponse{Acknowledged: count}, nil
}

// readyRequest is the request for the "ready" action.
type readyRequest struct {
	// Session is the identifier the caller claims for execution.
	Session string `cbor:"session"`
}

// readyResponse is the response to the "ready" action.
type readyResponse struct {
	Session  ref.SessionID `cbor:"session"`
	Executor ref.AccountID `cbor:"executor"`
}

// handleReady binds the caller as the session's executor and marks
// it running.
func (s *SessionService) handleReady(ctx context.Context, token *servicetoken.Token, raw []byte) (any, error) {
	if err := requireGrant(token, session.ActionReady); err != nil {
		return nil, err
	}

	var request readyRequest
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

	if err := s.orchestrator.Ready(ctx, token.Subject, id); err != nil {
		return nil, err
	}
	return readyResponse{Session: id, Executor: token.Subject}, nil
}

// finishRequest is the request for the "finish" action.
type finishRequest struct {
	// Session is the identifier being finished.
	Session string `cbor:"session"`

	// Winner is the winning account.
	Winner string `cbor:"winner"`
}

// finishResponse is the response to the "finish" action.
type finishResponse struct {
	Session ref.SessionID `cbor:"session"`
	Winner  ref.AccountID `cbor:"winner"`
}

// handleFinish records the session result.
func (s *SessionService) handleFinish(ctx context.Context, token *servicetoken.Token, raw []byte) (any, error) {
	if err := requireGrant(token, session.ActionFinish); err != nil {
		return nil, err
	}

	var request finishRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	if request.Session == "" {
		return nil, errors.New("missing required field: session")
	}
	if request.Winner == "" {
		return nil, errors.New("missing required field: winner")
	}
	id, err := ref.ParseSessionID(request.Session)
	if err != nil {
		return nil, fmt.Errorf("invalid session: %w", err)
	}
	winner, err := ref.ParseAccountID(request.Winner)
	if err != nil {
		return nil, fmt.Errorf("invalid winner: %w", err)
	}

	if err := s.orchestrator.Finish(ctx, token.Subject, id, winner); err != nil {
		return nil, err
	}
	return finishResponse{Session: id, Winner: winner}, nil
}

// setRulesRequest is the request for the "set-rules" action.
type setRulesRequest struct {
	// Document is a rules document in the JSONC authoring format.
	// The category comes from the document itself.
	Document []byte `cbor:"document"`
}

// handleSetRules validates and stores a category's rule document.
func (s *SessionService) handleSetRules(ctx context.Context, token *servicetoken.Token, raw []byte) (any, error) {
	if err := requireGrant(token, session.ActionSetRules); err != nil {
		return nil, err
	}

	var request setRulesRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	if len(request.Document) == 0 {
		return nil, errors.New("missing required field: document")
	}

	parsed, err := rulesdef.Parse(request.Document)
	if err != nil {
		return nil, err
	}
	rules, err := storedRules(parsed, s.groupSize)
	if err != nil {
		return nil, err
	}

	if err := s.store.SaveRuleSet(ctx, rules); err != nil {
		return nil, err
	}
	s.logger.Info("rules stored", "category", rules.Category.String(), "by", token.Subject.String())
	return rules, nil
}

// compactRequest is the request for the "compact" action.
type compactRequest struct {
	// ThroughCycle archives finished sessions whose finish cycle is
	// at or before this cycle. Zero means the current cycle, i.e.
	// everything finished so far.
	ThroughCycle uint64 `cbor:"through_cycle,omitempty"`
}

// handleCompact archives finished sessions and deletes them from
// the registry.
func (s *SessionService) handleCompact(ctx context.Context, token *servicetoken.Token, raw []byte) (any, error) {
	if err := requireGrant(token, session.ActionCompact); err != nil {
		return nil, err
	}

	var request compactRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	result, err := s.orchestrator.Compact(ctx, request.ThroughCycle)
	if err != nil {
		return nil, err
	}
	return result, nil
}
