// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import "fmt"

// maxHandleLength bounds account handles. Long enough for
// federation-style names, short enough that a handle never dominates
// a log line or a status table column.
const maxHandleLength = 84

// handleChars is the set of bytes permitted in account handles:
// lowercase letters, digits, and the separators . _ -.
var handleChars [256]bool

func init() {
	for c := byte('a'); c <= 'z'; c++ {
		handleChars[c] = true
	}
	for c := byte('0'); c <= '9'; c++ {
		handleChars[c] = true
	}
	handleChars['.'] = true
	handleChars['_'] = true
	handleChars['-'] = true
}

// validateHandle enforces the account handle rules: 1 to
// maxHandleLength bytes from handleChars, starting and ending with a
// letter or digit.
func validateHandle(handle string) error {
	if handle == "" {
		return fmt.Errorf("handle is empty")
	}
	if len(handle) > maxHandleLength {
		return fmt.Errorf("handle %q is %d bytes, maximum is %d", handle, len(handle), maxHandleLength)
	}
	for i := 0; i < len(handle); i++ {
		if !handleChars[handle[i]] {
			return fmt.Errorf("handle %q: invalid character %q at position %d (allowed: a-z, 0-9, ., _, -)", handle, handle[i], i)
		}
	}
	if isSeparator(handle[0]) {
		return fmt.Errorf("handle %q must not start with %q", handle, handle[0])
	}
	if isSeparator(handle[len(handle)-1]) {
		return fmt.Errorf("handle %q must not end with %q", handle, handle[len(handle)-1])
	}
	return nil
}

func isSeparator(c byte) bool {
	return c == '.' || c == '_' || c == '-'
}
