// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

package servicetoken

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
)

// Key files live in the session service's state directory. The private
// half signs every token the operator mints; losing it invalidates all
// outstanding tokens, which is why "arena key backup" exists.
const (
	privateKeyFile = "token-signing-key"
	publicKeyFile  = "token-signing-key.pub"
)

// GenerateKeypair creates a fresh Ed25519 signing keypair.
func GenerateKeypair() (ed25519.PublicKey, ed25519.PrivateKey, error) {
	public, private, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("generating Ed25519 keypair: %w", err)
	}
	return public, private, nil
}

// SaveKeypair writes both key halves into stateDir: the private key
// at 0600, the public key at 0644.
func SaveKeypair(stateDir string, public ed25519.PublicKey, private ed25519.PrivateKey) error {
	if err := os.WriteFile(filepath.Join(stateDir, privateKeyFile), private, 0600); err != nil {
		return fmt.Errorf("writing private key: %w", err)
	}
	if err := os.WriteFile(filepath.Join(stateDir, publicKeyFile), public, 0644); err != nil {
		return fmt.Errorf("writing public key: %w", err)
	}
	return nil
}

// LoadKeypair reads both key halves from stateDir, rejecting files of
// the wrong size.
func LoadKeypair(stateDir string) (ed25519.PublicKey, ed25519.PrivateKey, error) {
	private, err := loadKey(filepath.Join(stateDir, privateKeyFile), ed25519.PrivateKeySize)
	if err != nil {
		return nil, nil, fmt.Errorf("reading private key: %w", err)
	}
	public, err := loadKey(filepath.Join(stateDir, publicKeyFile), ed25519.PublicKeySize)
	if err != nil {
		return nil, nil, fmt.Errorf("reading public key: %w", err)
	}
	return ed25519.PublicKey(public), ed25519.PrivateKey(private), nil
}

func loadKey(path string, wantSize int) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(raw) != wantSize {
		return nil, fmt.Errorf("%s has %d bytes, want %d", filepath.Base(path), len(raw), wantSize)
	}
	return raw, nil
}

// LoadOrGenerateKeypair loads the stateDir keypair, generating and
// saving a fresh one on first boot. The bool reports whether a new
// keypair was generated.
//
// A private key file that exists but fails to load is an error, never
// a trigger for regeneration: overwriting a signing key silently would
// invalidate every outstanding token.
func LoadOrGenerateKeypair(stateDir string) (ed25519.PublicKey, ed25519.PrivateKey, bool, error) {
	public, private, err := LoadKeypair(stateDir)
	if err == nil {
		return public, private, false, nil
	}
	if _, statErr := os.Stat(filepath.Join(stateDir, privateKeyFile)); statErr == nil {
		return nil, nil, false, err
	}

	public, private, err = GenerateKeypair()
	if err != nil {
		return nil, nil, false, err
	}
	if err := SaveKeypair(stateDir, public, private); err != nil {
		return nil, nil, false, err
	}
	return public, private, true, nil
}
