// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

// Package ref provides strongly typed, immutable identity references
// for Arena: accounts, sessions, and game categories. Each is a
// validated value type with a canonical text form.
//
// All constructors validate their inputs and return errors for
// invalid values. Once constructed, a ref is immutable; the zero
// value of each type means "unset" and is reported by IsZero.
//
// Canonical text forms:
//   - AccountID: the bare handle ("ada.lovelace")
//   - SessionID: 64 lowercase hex characters (a 32-byte digest)
//   - GameCategory: "g<game>v<version>" ("g1v1")
//
// JSON and CBOR serialization use these forms via
// encoding.TextMarshaler; lib/codec configures the CBOR modes to
// honor them.
package ref
