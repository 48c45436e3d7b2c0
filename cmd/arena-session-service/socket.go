// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/arena-foundation/arena/lib/clock"
	"github.com/arena-foundation/arena/lib/ref"
	"github.com/arena-foundation/arena/lib/service"
	"github.com/arena-foundation/arena/lib/servicetoken"
	"github.com/arena-foundation/arena/lib/version"
)

// serviceName is the audience expected in service tokens and the
// name reported by the status action.
const serviceName = "session"

// SessionService bundles the pieces the socket handlers need: the
// orchestrator for mutations and snapshots, the store for plain
// reads, and the clock for uptime and heartbeats.
type SessionService struct {
	orchestrator *Orchestrator
	store        *Store
	clock        clock.Clock
	logger       *slog.Logger
	startedAt    time.Time

	// groupSize is the configured match group size, used as the
	// default players-per-match when a rules document omits it.
	groupSize int
}

// registerActions registers all socket API actions on the server.
//
// The "status" action is unauthenticated; everything else requires a
// valid service token, and each handler checks the grant named in
// the action table (session/queue, session/drop, and so on).
func (s *SessionService) registerActions(server *service.SocketServer) {
	server.Handle("status", s.handleStatus)

	// Participant operations.
	server.HandleAuth("queue", s.handleQueue)
	server.HandleAuth("drop", s.handleDrop)

	// Executor operations.
	server.HandleAuth("acknowledge", s.handleAcknowledge)
	server.HandleAuth("ready", s.handleReady)
	server.HandleAuth("finish", s.handleFinish)

	// Queries.
	server.HandleAuth("session", s.handleSession)
	server.HandleAuth("queue-entries", s.handleQueueEntries)
	server.HandleAuth("rules", s.handleRules)

	// Administration.
	server.HandleAuth("set-rules", s.handleSetRules)
	server.HandleAuth("compact", s.handleCompact)

	// Live event stream.
	server.HandleAuthStream("watch", s.handleWatch)
}

// requireGrant checks a self-service action against the token's
// grants.
func requireGrant(token *servicetoken.Token, action string) error {
	if !servicetoken.GrantsAllow(token.Grants, action, "") {
		return fmt.Errorf("access denied: missing grant for %s", action)
	}
	return nil
}

// requireGrantFor checks an action affecting the given account. For
// the token's own subject this is the plain grant check; for any
// other account the grant must also carry a matching target pattern.
func requireGrantFor(token *servicetoken.Token, action string, target ref.AccountID) error {
	if target == token.Subject {
		return requireGrant(token, action)
	}
	if !servicetoken.GrantsAllow(token.Grants, action, target.String()) {
		return fmt.Errorf("access denied: missing grant for %s on account %s", action, target)
	}
	return nil
}

// statusResponse is the response to the unauthenticated "status"
// action.
type statusResponse struct {
	// Service is the service role name.
	Service string `cbor:"service"`

	// Version is the build version string.
	Version string `cbor:"version"`

	// UptimeSeconds is how long the service has been running.
	UptimeSeconds float64 `cbor:"uptime_seconds"`

	// Admin is the one-time admin identity, empty when unclaimed.
	Admin string `cbor:"admin,omitempty"`

	// Cycle is the driver cycle most recently started.
	Cycle uint64 `cbor:"cycle"`

	// Queues maps each game category to its queue depth.
	Queues map[string]int `cbor:"queues"`

	// Sessions maps each lifecycle phase to its session count.
	Sessions map[string]int `cbor:"sessions"`

	// Pool is the number of accounts waiting in the matching pool.
	Pool int `cbor:"pool"`
}

// handleStatus reports service identity and aggregate state.
func (s *SessionService) handleStatus(ctx context.Context, raw []byte) (any, error) {
	queues, err := s.store.Queues(ctx)
	if err != nil {
		return nil, err
	}
	depths := make(map[string]int, len(queues))
	for _, queue := range queues {
		depths[queue.Category.String()] = len(queue.IDs)
	}

	counts, err := s.store.SessionCounts(ctx)
	if err != nil {
		return nil, err
	}

	admin, err := s.store.Admin(ctx)
	if err != nil {
		return nil, err
	}

	return statusResponse{
		Service:       serviceName,
		Version:       version.Info(),
		UptimeSeconds: s.clock.Now().Sub(s.startedAt).Seconds(),
		Admin:         admin.String(),
		Cycle:         s.orchestrator.Cycle(),
		Queues:        depths,
		Sessions:      counts,
		Pool:          s.orchestrator.PoolSize(),
	}, nil
}
