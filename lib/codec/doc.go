// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides Arena's standard CBOR encoding configuration.
//
// Arena uses two serialization formats with a clear boundary:
//
//   - JSON for operator-facing surfaces: CLI --json output and the
//     JSONC rules documents loaded at service start.
//   - CBOR for everything internal: the session-service socket
//     protocol, capability tokens, the durable queue and session
//     blobs in sqlite, session-identifier hash inputs, and archive
//     payloads.
//
// This package provides the shared CBOR encode and decode modes so
// that every Arena package encodes identically without duplicating
// configuration. The encoder uses Core Deterministic Encoding
// (RFC 8949 §4.2): sorted map keys, smallest integer encoding, no
// indefinite-length items. Same logical data always produces
// identical bytes, which session identifiers (hashes of encoded
// values) and token signatures depend on.
//
// For buffer-oriented operations (blobs, tokens, hash inputs):
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// For stream-oriented operations (sockets):
//
//	encoder := codec.NewEncoder(conn)
//	decoder := codec.NewDecoder(conn)
//
// # Struct Tag Rules
//
// The struct tag on a type documents its serialization format:
//
//   - `cbor` tag: this type is ONLY ever serialized as CBOR. It will
//     never be marshaled to JSON or shown by CLI tooling. Examples:
//     stored queue and session blobs, the session-identifier hash
//     input, token revocation envelopes.
//   - `json` tag: this type may be serialized as BOTH JSON and CBOR.
//     fxamacker/cbor v2 reads `json` tags as fallback when `cbor`
//     tags are absent, so a single `json` tag controls field naming
//     and omitempty for both formats. Examples: service socket
//     request/response types (which the CLI renders as JSON), rule
//     sets (authored as JSONC, served over CBOR).
//
// Never use both `cbor` and `json` tags on the same field. The tag
// choice documents the contract; doubling up is noise that obscures
// whether a type participates in JSON serialization.
package codec
