// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

// Package servicetoken implements Ed25519-signed bearer tokens for
// authenticating accounts to Arena services over shared Unix sockets.
//
// The session service listens on a single socket shared by every
// participant and executor on the machine. Connections arrive from
// multiple accounts on the same listener with no inherent way to
// distinguish callers (SO_PEERCRED is unreliable across PID/UID
// namespace boundaries).
//
// The operator mints a signed token per account using the service's
// signing key. The token proves the caller's identity and carries
// pre-resolved authorization grants scoped to the service's action
// namespace. The service verifies tokens cryptographically without
// consulting any external authority.
//
// # Wire format
//
// A token is raw bytes: CBOR-encoded payload followed by a 64-byte
// Ed25519 signature over the payload bytes.
//
//	[CBOR payload bytes] [64-byte Ed25519 signature]
//
// The split point is always len(token) - 64. No header, no length
// prefix, no base64 — the algorithm is fixed and the signature size
// is constant.
//
// # Token lifecycle
//
//   - The service generates its signing keypair on first boot
//     (LoadOrGenerateKeypair) and mints a one-time admin token
//   - Operators mint further tokens with "arena token mint", scoping
//     grants per account (participants get session/queue and
//     session/drop; executors get acknowledge/ready/finish)
//   - Clients read the token from ARENA_TOKEN or a file and attach it
//     to every request
//   - Services reject expired tokens unconditionally
//   - Emergency revocation via Blacklist (token ID set with TTL-based
//     auto-cleanup)
//
// # Revocation
//
// When an executor is decommissioned or a token leaks, the operator
// pushes a signed revocation request to the service. The revocation
// wire format mirrors token signing: CBOR-encoded [RevocationRequest]
// followed by a 64-byte Ed25519 signature from the signing key. The
// service verifies the signature using the same public key it uses for
// token verification, then adds the token IDs to its [Blacklist].
// Token expiry provides a natural fallback — revocation push is
// best-effort, and tokens expire on their own regardless.
//
// # Dependencies
//
// This package depends on crypto/ed25519 for signing, lib/codec for
// CBOR encoding, lib/glob for grant matching, and standard library
// packages. It does not depend on the session service or any other
// Arena subsystem — clients import it directly without pulling in the
// service's dependency tree.
package servicetoken
