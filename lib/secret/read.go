// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
)

// ReadFromPath reads a secret from a file path, or from stdin when
// path is "-". Leading and trailing whitespace is trimmed, the
// transient copies are zeroed, and the result lands in a protected
// Buffer the caller must close. An empty source is an error.
func ReadFromPath(path string) (*Buffer, error) {
	data, err := readRaw(path)
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		Zero(data)
		return nil, fmt.Errorf("secret at %s is empty", path)
	}

	// NewFromBytes zeros trimmed; the surrounding whitespace bytes
	// still need scrubbing.
	buffer, err := NewFromBytes(trimmed)
	Zero(data)
	if err != nil {
		return nil, err
	}
	return buffer, nil
}

// readRaw returns the secret bytes from the file, or the first line
// of stdin for "-". The stdin slice aliases the scanner's buffer, so
// the caller's Zero scrubs that buffer too.
func readRaw(path string) ([]byte, error) {
	if path != "-" {
		return os.ReadFile(path)
	}

	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return nil, fmt.Errorf("stdin is empty")
	}
	return scanner.Bytes(), nil
}
