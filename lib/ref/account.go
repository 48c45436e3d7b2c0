// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import "fmt"

// AccountID is a validated account handle ("ada.lovelace"). Accounts
// name everyone the platform deals with: participants joining the
// matching pool, executors running sessions, winners, and the admin
// identity. The handle is also the subject of a capability token, so
// the socket layer compares AccountIDs to decide who called.
//
// AccountID is an immutable value type. The zero value is not valid;
// use IsZero to check.
type AccountID struct {
	handle string
}

// ParseAccountID validates and wraps a raw handle. The handle must be
// 1 to 84 bytes of lowercase letters, digits, and the separators
// . _ -, and must start and end with a letter or digit.
func ParseAccountID(raw string) (AccountID, error) {
	if err := validateHandle(raw); err != nil {
		return AccountID{}, fmt.Errorf("invalid account ID: %w", err)
	}
	return AccountID{handle: raw}, nil
}

// MustParseAccountID is like ParseAccountID but panics on error. Use
// in tests and static initialization where the input is known-valid.
func MustParseAccountID(raw string) AccountID {
	a, err := ParseAccountID(raw)
	if err != nil {
		panic(fmt.Sprintf("ref.MustParseAccountID(%q): %v", raw, err))
	}
	return a
}

// String returns the handle ("ada.lovelace").
func (a AccountID) String() string { return a.handle }

// IsZero reports whether the AccountID is the zero value.
func (a AccountID) IsZero() bool { return a.handle == "" }

// MarshalText implements encoding.TextMarshaler for JSON, CBOR, and
// other text-based serialization.
func (a AccountID) MarshalText() ([]byte, error) {
	if a.handle == "" {
		return nil, nil
	}
	return []byte(a.handle), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Validates the
// handle. An empty input produces the zero value (unset account).
func (a *AccountID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*a = AccountID{}
		return nil
	}
	parsed, err := ParseAccountID(string(data))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
