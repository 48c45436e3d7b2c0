// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/arena-foundation/arena/lib/secret"
)

// The archive key at rest is the lowercase hex encoding of KeySize
// random bytes, one line, so operators can copy it with ordinary
// text tools. The decoded key lives only in protected buffers.

// LoadKeyFile reads a hex-encoded archive key from path. The caller
// owns the returned buffer and must close it.
func LoadKeyFile(path string) (*secret.Buffer, error) {
	encoded, err := secret.ReadFromPath(path)
	if err != nil {
		return nil, fmt.Errorf("reading archive key: %w", err)
	}
	defer encoded.Close()

	raw := make([]byte, hex.DecodedLen(encoded.Len()))
	if _, err := hex.Decode(raw, encoded.Bytes()); err != nil {
		secret.Zero(raw)
		return nil, fmt.Errorf("archive key at %s is not valid hex: %w", path, err)
	}
	if len(raw) != KeySize {
		got := len(raw)
		secret.Zero(raw)
		return nil, fmt.Errorf("archive key at %s decodes to %d bytes, want %d", path, got, KeySize)
	}

	return secret.NewFromBytes(raw)
}

// GenerateKeyFile creates a fresh random archive key, writes its hex
// encoding to path with 0600 permissions, and returns the key.
func GenerateKeyFile(path string) (*secret.Buffer, error) {
	raw := make([]byte, KeySize)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("generating archive key: %w", err)
	}

	encoded := make([]byte, hex.EncodedLen(KeySize)+1)
	hex.Encode(encoded, raw)
	encoded[len(encoded)-1] = '\n'
	err := os.WriteFile(path, encoded, 0600)
	secret.Zero(encoded)
	if err != nil {
		secret.Zero(raw)
		return nil, fmt.Errorf("writing archive key: %w", err)
	}

	return secret.NewFromBytes(raw)
}

// LoadOrGenerateKeyFile loads the key at path, or generates and saves
// a new one if the file does not exist. Returns the key and whether
// it was newly generated.
func LoadOrGenerateKeyFile(path string) (*secret.Buffer, bool, error) {
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return nil, false, fmt.Errorf("checking archive key: %w", err)
		}
		key, err := GenerateKeyFile(path)
		if err != nil {
			return nil, false, err
		}
		return key, true, nil
	}

	key, err := LoadKeyFile(path)
	if err != nil {
		return nil, false, err
	}
	return key, false, nil
}
