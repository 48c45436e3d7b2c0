// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"encoding/hex"
	"fmt"
)

// SessionIDSize is the size in bytes of a session identifier digest.
const SessionIDSize = 32

// SessionID identifies a session: a 32-byte BLAKE3 digest computed at
// creation from the entropy seed, the submitter, and the service
// nonce. The canonical text form is 64 lowercase hex characters.
//
// SessionID is an immutable, comparable value type. The zero value
// (all-zero digest) is not a valid identifier; use IsZero to check.
type SessionID struct {
	digest [SessionIDSize]byte
}

// SessionIDFromDigest wraps a raw 32-byte digest.
func SessionIDFromDigest(digest [SessionIDSize]byte) SessionID {
	return SessionID{digest: digest}
}

// ParseSessionID parses the canonical hex form. Uppercase hex is
// rejected: identifiers have exactly one text form so they can be
// compared as strings anywhere.
func ParseSessionID(raw string) (SessionID, error) {
	if len(raw) != 2*SessionIDSize {
		return SessionID{}, fmt.Errorf("invalid session ID %q: %d characters, want %d", raw, len(raw), 2*SessionIDSize)
	}
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return SessionID{}, fmt.Errorf("invalid session ID %q: character %q at position %d (want lowercase hex)", raw, c, i)
		}
	}
	var id SessionID
	if _, err := hex.Decode(id.digest[:], []byte(raw)); err != nil {
		return SessionID{}, fmt.Errorf("invalid session ID %q: %w", raw, err)
	}
	return id, nil
}

// MustParseSessionID is like ParseSessionID but panics on error. Use
// in tests where the input is known-valid.
func MustParseSessionID(raw string) SessionID {
	id, err := ParseSessionID(raw)
	if err != nil {
		panic(fmt.Sprintf("ref.MustParseSessionID(%q): %v", raw, err))
	}
	return id
}

// String returns the 64-character lowercase hex form, or "" for the
// zero value.
func (s SessionID) String() string {
	if s.IsZero() {
		return ""
	}
	return hex.EncodeToString(s.digest[:])
}

// Short returns the first 8 hex characters, for log lines and table
// cells where the full digest is noise. Empty for the zero value.
func (s SessionID) Short() string {
	if s.IsZero() {
		return ""
	}
	return hex.EncodeToString(s.digest[:4])
}

// Digest returns the raw 32-byte digest.
func (s SessionID) Digest() [SessionIDSize]byte { return s.digest }

// IsZero reports whether the SessionID is the zero value.
func (s SessionID) IsZero() bool { return s.digest == [SessionIDSize]byte{} }

// MarshalText implements encoding.TextMarshaler using the canonical
// hex form.
func (s SessionID) MarshalText() ([]byte, error) {
	if s.IsZero() {
		return nil, nil
	}
	text := make([]byte, 2*SessionIDSize)
	hex.Encode(text, s.digest[:])
	return text, nil
}

// UnmarshalText implements encoding.TextUnmarshaler. An empty input
// produces the zero value (unset session).
func (s *SessionID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*s = SessionID{}
		return nil
	}
	parsed, err := ParseSessionID(string(data))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
