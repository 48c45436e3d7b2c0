// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

// Package service provides the Unix socket layer shared by Arena
// services and their clients.
//
// An Arena service is a standalone binary that owns a Unix socket and
// answers CBOR requests on it. Each connection carries one request: a
// CBOR map with an "action" field naming the operation, a "token"
// field carrying the caller's service token, and whatever parameters
// the action needs. The server decodes the envelope, dispatches to the
// registered handler, and writes a single response object back. Stream
// actions are the exception: the handler takes over the connection and
// writes CBOR values until the subscription ends.
//
// The package provides both halves:
//
//   - SocketServer: action dispatch with per-action authentication,
//     connection timeouts, request size limits, and graceful shutdown
//     that waits for in-flight connections.
//   - ServiceClient: one-shot Call for request/response actions and
//     Stream for subscriptions, loading the caller's token from disk
//     or from memory.
//
// Services compose the server in their own main() function rather
// than subclassing a framework. The package provides building blocks,
// not a runtime.
//
// # Authentication
//
// Handlers registered with HandleAuth or HandleAuthStream require a
// valid service token on every request. The server verifies the
// token's signature against the service's public key, checks the
// audience, expiry, and the revocation blacklist, and hands the
// decoded token to the handler for grant checks. Handlers registered
// with Handle skip all of this and must be limited to actions that
// reveal nothing (health probes, version info).
//
// Token minting, verification, and the grant model live in
// lib/servicetoken; this package only enforces them at the socket
// boundary.
package service
