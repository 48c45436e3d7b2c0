// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the arena CLI command tree.
//
// Most commands are thin clients of the session service's CBOR socket:
// they parse flags, build a request, make one Call, and render the
// response as a table or JSON. The token, key, and archive groups work
// locally against the service's state directory instead and never
// touch the socket (except "token revoke", which pushes the signed
// revocation to the running service).
//
// Request and response shapes for socket actions are mirrored in
// wire.go; the shared schema types (session records, rule sets, watch
// frames) come from lib/schema/session.
package commands
