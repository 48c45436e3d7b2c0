// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"github.com/arena-foundation/arena/lib/ref"
	"github.com/arena-foundation/arena/lib/schema/session"
)

// Mirrors of the session service's socket response types. Defined here
// because the server-side types live in the service binary; the wire
// format is the contract. Shared schema types (session.Record,
// session.RuleSet, session.WatchFrame) are imported directly and need
// no mirror.
//
// Each type carries cbor tags matching the service's encoding and json
// tags for --json output.

// statusResult is the response to the unauthenticated "status" action.
type statusResult struct {
	Service       string         `cbor:"service"        json:"service"        desc:"service name"`
	Version       string         `cbor:"version"        json:"version"        desc:"service build version"`
	UptimeSeconds float64        `cbor:"uptime_seconds" json:"uptime_seconds" desc:"seconds since the service started"`
	Admin         string         `cbor:"admin"          json:"admin,omitempty" desc:"configured admin account"`
	Cycle         uint64         `cbor:"cycle"          json:"cycle"          desc:"current driver cycle"`
	Queues        map[string]int `cbor:"queues"         json:"queues"         desc:"queue depth per category"`
	Sessions      map[string]int `cbor:"sessions"       json:"sessions"       desc:"live session count per lifecycle phase"`
	Pool          int            `cbor:"pool"           json:"pool"           desc:"accounts waiting in the matching pool"`
}

// queueResult is the response to the "queue" action.
type queueResult struct {
	Account ref.AccountID `cbor:"account" json:"account" desc:"account admitted to the matching pool"`
}

// dropResult is the response to the "drop" action.
type dropResult struct {
	Session ref.SessionID `cbor:"session" json:"session" desc:"session identifier that was dropped"`
}

// acknowledgeResult is the response to the "acknowledge" action.
type acknowledgeResult struct {
	Acknowledged int `cbor:"acknowledged" json:"acknowledged" desc:"number of sessions advanced to accepted"`
}

// readyResult is the response to the "ready" action.
type readyResult struct {
	Session  ref.SessionID `cbor:"session"  json:"session"  desc:"session marked running"`
	Executor ref.AccountID `cbor:"executor" json:"executor" desc:"account bound as the session's executor"`
}

// finishResult is the response to the "finish" action.
type finishResult struct {
	Session ref.SessionID `cbor:"session" json:"session" desc:"session marked finished"`
	Winner  ref.AccountID `cbor:"winner"  json:"winner"  desc:"recorded winning account"`
}

// queueEntriesResult is the response to the "queue-entries" action.
type queueEntriesResult struct {
	Category ref.GameCategory `cbor:"category" json:"category" desc:"queried category"`
	Entries  []ref.SessionID  `cbor:"entries"  json:"entries"  desc:"queued session identifiers in head-first order"`
	Capacity int              `cbor:"capacity" json:"capacity" desc:"maximum queue depth"`
}

// rulesResult is the response to the "rules" action.
type rulesResult struct {
	Rules []session.RuleSet `cbor:"rules" json:"rules" desc:"stored rule sets"`
}

// compactResult is the response to the "compact" action. The service
// encodes its CompactResult with json tag names.
type compactResult struct {
	Archived  int    `json:"archived"             desc:"finished sessions archived and deleted"`
	ContentID string `json:"content_id,omitempty" desc:"content hash naming the archive file"`
	Path      string `json:"path,omitempty"       desc:"filesystem path of the archive file"`
}

// revokeResult is the response to the unauthenticated "revoke-tokens"
// action.
type revokeResult struct {
	Revoked int `cbor:"revoked" json:"revoked" desc:"number of token IDs added to the blacklist"`
}
