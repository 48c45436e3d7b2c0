// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

// Arena-session-service is the standalone daemon that owns the game
// session lifecycle: the matching pool, the per-category waiting
// queues, the session registry, and the per-cycle driver that turns
// matched groups into Waiting sessions. It serves queries, mutations,
// and a live watch stream over a Unix socket using the CBOR protocol.
//
// # Startup
//
// The service loads its YAML config (--config or ARENA_CONFIG), opens
// the SQLite store under paths.state, loads or generates the Ed25519
// token-signing keypair and the archive key, seeds per-category rules
// from the configured rules files, and starts listening on the
// configured socket path. The driver goroutine then advances the
// match cycle at the configured interval.
//
// # Socket API
//
// Clients connect to the Unix socket and send one CBOR request per
// connection. The "action" field determines the operation: status,
// queue, drop, acknowledge, ready, finish, session, queue-entries,
// rules, set-rules, compact, watch. All actions except status require
// a signed service token whose grants cover the action.
//
// # Durability
//
// Sessions, queues, rules, the id-generation nonce, and the cycle
// counter live in SQLite; every mutation runs in an IMMEDIATE
// transaction. The matching pool is deliberately memory-only:
// restart loses pool membership and participants re-queue.
package main
